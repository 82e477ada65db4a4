package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"github.com/rich-wisdom/SetList/pkg/storage"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username      string   `json:"username" form:"username" binding:"required,min=3,max=50,alphanum"`
	Email         string   `json:"email" form:"email" binding:"required,email"`
	Password      string   `json:"password" form:"password" binding:"required,min=8"`
	StageName     string   `json:"stage_name" form:"stage_name" binding:"required,max=100"`
	AccountType   string   `json:"account_type" form:"account_type" binding:"required,oneof=musician venue"`
	Bio           *string  `json:"bio" form:"bio"`
	Genres        []string `json:"genres" form:"genres"`
	Instruments   []string `json:"instruments" form:"instruments"`
	VenueCapacity *int     `json:"venue_capacity" form:"venue_capacity"`
}

// AvatarFile is an uploaded profile image.
type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *model.User    `json:"user"`
	Profile     *model.Profile `json:"profile"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput, avatar *AvatarFile) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	GoogleLogin() string
	GoogleCallback(ctx context.Context, code string) (*AuthResponse, error)
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

type authService struct {
	repo         repository.UserRepository
	imageStorage storage.ImageStorage
	search       SearchIndexService
	redisClient  *redis.Client
	googleConfig *oauth2.Config
	secret       string
	tokenTTL     time.Duration
}

func NewAuthService(repo repository.UserRepository, imageStorage storage.ImageStorage, search SearchIndexService, redisClient *redis.Client) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	googleConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		repo:         repo,
		imageStorage: imageStorage,
		search:       search,
		redisClient:  redisClient,
		googleConfig: googleConfig,
		secret:       secret,
		tokenTTL:     ttl,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput, avatar *AvatarFile) (*AuthResponse, error) {
	// Usernames are case-folded before every compare and store.
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))

	if err := validateAccountVariant(input.AccountType, input.Instruments, input.VenueCapacity); err != nil {
		return nil, err
	}

	if err := s.ensureUserUnique(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Upload the avatar only after the business validations passed.
	var imageURL *string
	if avatar != nil && avatar.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "profiles", avatar.FileName)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}

	profile := &model.Profile{
		StageName:     strings.TrimSpace(input.StageName),
		AccountType:   input.AccountType,
		Bio:           normalizeOptional(input.Bio),
		Genres:        input.Genres,
		Instruments:   input.Instruments,
		VenueCapacity: input.VenueCapacity,
		ProfileImage:  imageURL,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	user.Profile = profile
	s.indexProfile(user)

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.buildAuthResponse(user)
}

// Logout blacklists the token id until the token would have expired
// anyway; the middleware refuses revoked ids.
func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.redisClient == nil || tokenID == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.redisClient.Set(ctx, revokedTokenKey(tokenID), "revoked", ttl).Err()
}

func (s *authService) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if s.redisClient == nil || tokenID == "" {
		return false
	}

	exists, err := s.redisClient.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		log.Printf("Failed to check token revocation: %v", err)
		return false
	}
	return exists > 0
}

func revokedTokenKey(tokenID string) string {
	return "revoked_token:" + tokenID
}

func (s *authService) GoogleLogin() string {
	return s.googleConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("failed to exchange token: " + err.Error())
	}

	client := s.googleConfig.Client(ctx, token)
	userInfoResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, errors.New("failed to get user info: " + err.Error())
	}
	defer userInfoResp.Body.Close()

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	if err := json.NewDecoder(userInfoResp.Body).Decode(&googleUser); err != nil {
		return nil, errors.New("failed to decode user info: " + err.Error())
	}

	user, err := s.repo.FindByEmail(ctx, googleUser.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First federated sign-in: create an account with a derived
			// username and a minimal musician profile; the user fills in
			// the rest through the profile update endpoint.
			randomPassword := uuid.New().String()
			hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(randomPassword), bcrypt.DefaultCost)

			username := strings.ToLower(strings.Split(googleUser.Email, "@")[0])
			username = strings.ReplaceAll(username, " ", "_")
			if _, err := s.repo.FindByUsername(ctx, username); err == nil {
				username = username + "_" + uuid.New().String()[:4]
			}

			newUser := &model.User{
				Username:     username,
				Email:        googleUser.Email,
				PasswordHash: string(hashedPassword),
				GoogleID:     &googleUser.ID,
			}

			newProfile := &model.Profile{
				StageName:    googleUser.Name,
				AccountType:  model.AccountTypeMusician,
				ProfileImage: normalizeOptional(&googleUser.Picture),
			}

			if err := s.repo.Create(ctx, newUser, newProfile); err != nil {
				return nil, errors.New("failed to create user: " + err.Error())
			}

			newUser.Profile = newProfile
			s.indexProfile(newUser)
			user = newUser
		} else {
			return nil, err
		}
	} else if user.GoogleID == nil || *user.GoogleID != googleUser.ID {
		user.GoogleID = &googleUser.ID
		if err := s.repo.Update(ctx, user, nil); err != nil {
			log.Printf("Failed to update google id for user %s: %v", user.Email, err)
		}
	}

	return s.buildAuthResponse(user)
}

func (s *authService) indexProfile(user *model.User) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexProfile(user); err != nil {
		log.Printf("Failed to index profile %s: %v", user.ID, err)
	}
}

func (s *authService) buildAuthResponse(user *model.User) (*AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		Profile:     user.Profile,
	}, nil
}

func (s *authService) generateToken(user *model.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

func (s *authService) ensureUserUnique(ctx context.Context, email, username string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return errors.New("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return apperror.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

// validateAccountVariant enforces the musician/venue split: a venue has
// no instruments and a musician has no capacity.
func validateAccountVariant(accountType string, instruments []string, venueCapacity *int) error {
	switch accountType {
	case model.AccountTypeMusician:
		if venueCapacity != nil {
			return fmt.Errorf("%w: venue capacity is not valid for a musician account", apperror.ErrInvalidInput)
		}
	case model.AccountTypeVenue:
		if len(instruments) > 0 {
			return fmt.Errorf("%w: instruments are not valid for a venue account", apperror.ErrInvalidInput)
		}
	default:
		return apperror.ErrInvalidInput
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
