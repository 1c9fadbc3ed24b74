package businessflow

import (
	"context"
	"errors"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/app/services"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
	"golang.org/x/crypto/bcrypt"
)

// ErrIncorrectPassword is deliberately indistinguishable from an unknown
// email in API responses.
var ErrIncorrectPassword = errors.New("incorrect password")

// AuthFlow defines the authentication operations
type AuthFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// AuthFlowImpl implements AuthFlow
type AuthFlowImpl struct {
	userRepo repository.UserRepository
	tokens   services.TokenService
}

// NewAuthFlow creates a new auth flow
func NewAuthFlow(userRepo repository.UserRepository, tokens services.TokenService) AuthFlow {
	return &AuthFlowImpl{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login authenticates a user by email and password and issues a JWT
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	user, err := f.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError("INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, _, err := f.tokens.GenerateTokens(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	return &dto.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   utils.AccessTokenTTLSeconds,
		User: dto.UserDTO{
			ID:          user.ID,
			UUID:        user.UUID.String(),
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Timezone:    user.Timezone,
		},
	}, nil
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}
