package service

import (
	"html"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rich-wisdom/SetList/internal/model"
)

const profilesIndex = "profiles"

// SearchIndexService keeps the profile directory mirrored into
// Meilisearch for the fuzzy musician/venue search page. The exact
// prefix-range lookups stay in SQL; this index serves typo-tolerant
// full search over stage names, bios and genres.
type SearchIndexService interface {
	IndexProfile(user *model.User) error
	DeleteProfile(id string) error
}

type searchIndexService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchIndexService(client meilisearch.ServiceManager) SearchIndexService {
	s := &searchIndexService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *searchIndexService) initIndex() {
	filterable := []any{"account_type", "genres"}
	if _, err := s.client.Index(profilesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update profiles filterable attributes: %v", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(profilesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update profiles sortable attributes: %v", err)
	}

	log.Println("Meilisearch profiles index initialized")
}

type meiliProfileDoc struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	StageName     string   `json:"stage_name"`
	AccountType   string   `json:"account_type"`
	Bio           string   `json:"bio"`
	Genres        []string `json:"genres"`
	Instruments   []string `json:"instruments"`
	VenueCapacity int      `json:"venue_capacity"`
	ProfileImage  string   `json:"profile_image"`
	CreatedAt     int64    `json:"created_at"`
}

// cleanText strips markup user-authored text may carry before indexing.
func (s *searchIndexService) cleanText(text string) string {
	sanitized := s.sanitizer.Sanitize(text)
	unescaped := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(unescaped), " ")
}

func (s *searchIndexService) IndexProfile(user *model.User) error {
	if user.Profile == nil {
		return nil
	}

	doc := meiliProfileDoc{
		ID:          user.ID.String(),
		Username:    user.Username,
		StageName:   user.Profile.StageName,
		AccountType: user.Profile.AccountType,
		Genres:      user.Profile.Genres,
		Instruments: user.Profile.Instruments,
		CreatedAt:   user.CreatedAt.Unix(),
	}
	if user.Profile.Bio != nil {
		doc.Bio = s.cleanText(*user.Profile.Bio)
	}
	if user.Profile.VenueCapacity != nil {
		doc.VenueCapacity = *user.Profile.VenueCapacity
	}
	if user.Profile.ProfileImage != nil {
		doc.ProfileImage = *user.Profile.ProfileImage
	}

	task, err := s.client.Index(profilesIndex).AddDocuments([]meiliProfileDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed profile %s, task id: %d", user.ID, task.TaskUID)
	return nil
}

func (s *searchIndexService) DeleteProfile(id string) error {
	_, err := s.client.Index(profilesIndex).DeleteDocument(id)
	return err
}

func strPtr(s string) *string {
	return &s
}
