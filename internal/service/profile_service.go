package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"github.com/rich-wisdom/SetList/pkg/storage"
	"gorm.io/gorm"
)

const searchLimit = 20

type UpdateProfileInput struct {
	StageName     *string  `json:"stage_name" binding:"omitempty,max=100"`
	Bio           *string  `json:"bio"`
	Genres        []string `json:"genres"`
	Instruments   []string `json:"instruments"`
	VenueCapacity *int     `json:"venue_capacity"`
}

type ProfileService interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput, avatar *AvatarFile) (*model.User, error)
	// Search runs the prefix-range scan over username and stage name and
	// merges both windows, deduplicated.
	Search(ctx context.Context, prefix string) ([]*model.User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type profileService struct {
	repo         repository.UserRepository
	imageStorage storage.ImageStorage
	search       SearchIndexService
}

func NewProfileService(repo repository.UserRepository, imageStorage storage.ImageStorage, search SearchIndexService) ProfileService {
	return &profileService{
		repo:         repo,
		imageStorage: imageStorage,
		search:       search,
	}
}

func (s *profileService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *profileService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput, avatar *AvatarFile) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if user.Profile == nil {
		return nil, apperror.ErrNotFound
	}

	profile := user.Profile

	if input.StageName != nil && strings.TrimSpace(*input.StageName) != "" {
		profile.StageName = strings.TrimSpace(*input.StageName)
	}
	if input.Bio != nil {
		profile.Bio = normalizeOptional(input.Bio)
	}
	if input.Genres != nil {
		profile.Genres = input.Genres
	}
	if input.Instruments != nil {
		profile.Instruments = input.Instruments
	}
	if input.VenueCapacity != nil {
		profile.VenueCapacity = input.VenueCapacity
	}

	if err := validateAccountVariant(profile.AccountType, profile.Instruments, profile.VenueCapacity); err != nil {
		return nil, err
	}

	if avatar != nil && avatar.Reader != nil && s.imageStorage != nil {
		old := profile.ProfileImage
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "profiles", avatar.FileName)
		if err != nil {
			return nil, err
		}
		profile.ProfileImage = &url

		if old != nil {
			if err := s.imageStorage.DeleteImage(ctx, *old); err != nil {
				log.Printf("Failed to delete old profile image: %v", err)
			}
		}
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexProfile(user); err != nil {
			log.Printf("Failed to reindex profile %s: %v", user.ID, err)
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *profileService) Search(ctx context.Context, prefix string) ([]*model.User, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, apperror.ErrBadRequest
	}

	byUsername, err := s.repo.SearchByUsernamePrefix(ctx, strings.ToLower(prefix), searchLimit)
	if err != nil {
		return nil, err
	}

	byStageName, err := s.repo.SearchByStageNamePrefix(ctx, prefix, searchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(byUsername))
	results := make([]*model.User, 0, len(byUsername)+len(byStageName))
	for _, u := range append(byUsername, byStageName...) {
		if seen[u.ID.String()] {
			continue
		}
		seen[u.ID.String()] = true
		u.PasswordHash = ""
		results = append(results, u)
	}

	return results, nil
}

// IsUsernameAvailable case-folds before comparing.
func (s *profileService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return false, apperror.ErrBadRequest
	}

	_, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}

	return false, nil
}
