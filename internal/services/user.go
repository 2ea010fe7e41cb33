package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/lovance/backend/internal/models"
	"github.com/lovance/backend/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	jwtExpDays = 365
)

// UserService handles user accounts: registration, tokens, profile.
type UserService struct {
	users     UserStore
	media     MediaStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(users UserStore, media MediaStore, jwtSecret string) *UserService {
	return &UserService{
		users:     users,
		media:     media,
		jwtSecret: jwtSecret,
	}
}

// GenerateUniqueCode generates a partner code not yet present in the store.
func (s *UserService) GenerateUniqueCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		exists, err := s.users.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

// generateCode generates a random 6-character code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// Register creates a new anonymous user and returns it with a signed token.
func (s *UserService) Register(ctx context.Context, name string) (*models.User, string, error) {
	code, err := s.GenerateUniqueCode(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate code: %w", err)
	}

	userID := uuid.New().String()

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	user := &models.User{
		ID:        userID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return user, token, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfileParams holds the optional profile fields a user may change.
type UpdateProfileParams struct {
	Name        *string    `json:"name,omitempty"`
	Anniversary *time.Time `json:"anniversary,omitempty"`
	Onboarded   *bool      `json:"onboarded,omitempty"`
}

// UpdateProfile applies the given fields and returns the refreshed user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, p UpdateProfileParams) (*models.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, p.Name, p.Anniversary, p.Onboarded); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.users.GetByID(ctx, userID)
}

// AvatarUpload holds a presigned profile picture upload.
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	ExpiresIn int    `json:"expires_in"`
}

// AvatarUploadURL presigns a PUT for the user's profile picture and records
// the resulting public URL on the profile.
func (s *UserService) AvatarUploadURL(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	key := storage.ProfileKey(userID)

	uploadURL, err := s.media.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign avatar upload: %w", err)
	}

	publicURL := s.media.PublicURL(key)
	if err := s.users.SetProfileImage(ctx, userID, publicURL); err != nil {
		return nil, fmt.Errorf("failed to record profile image: %w", err)
	}

	return &AvatarUpload{
		UploadURL: uploadURL,
		PublicURL: publicURL,
		ExpiresIn: s.media.UploadExpirySeconds(),
	}, nil
}
