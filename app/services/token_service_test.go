// Package services provides external service integrations and technical concerns like platform clients and tokens
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars", // secretKey
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		secretKey   string
		expectError bool
	}{
		{
			name:        "valid symmetric key configuration",
			useRSAKeys:  false,
			secretKey:   "test-secret-key-for-jwt-signing-32-chars",
			expectError: false,
		},
		{
			name:        "missing secret key",
			useRSAKeys:  false,
			secretKey:   "",
			expectError: true,
		},
		{
			name:        "RSA mode without keys",
			useRSAKeys:  true,
			secretKey:   "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				15*time.Minute,
				7*24*time.Hour,
				"test-issuer",
				"test-audience",
				tt.useRSAKeys,
				"",
				"",
				tt.secretKey,
			)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateTokens(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateTokens(123)
	require.NoError(t, err)

	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)
}

func TestValidateToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateTokens(123)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		claims, err := service.ValidateToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, uint(123), claims.UserID)
		assert.Equal(t, "access", claims.TokenType)
		assert.NotEmpty(t, claims.TokenID)
		assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
	})

	t.Run("valid refresh token", func(t *testing.T) {
		claims, err := service.ValidateToken(refreshToken)
		require.NoError(t, err)
		assert.Equal(t, uint(123), claims.UserID)
		assert.Equal(t, "refresh", claims.TokenType)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := service.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
		assert.Nil(t, claims)
	})

	t.Run("empty token", func(t *testing.T) {
		claims, err := service.ValidateToken("")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}

func TestValidateTokenWrongKey(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	other, err := NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"a-completely-different-secret-key-value",
	)
	require.NoError(t, err)

	accessToken, _, err := service.GenerateTokens(123)
	require.NoError(t, err)

	claims, err := other.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestTokenExpiration(t *testing.T) {
	service, err := NewTokenService(
		-time.Minute, // already expired
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	accessToken, _, err := service.GenerateTokens(123)
	require.NoError(t, err)

	claims, err := service.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func TestRefreshToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateTokens(456)
	require.NoError(t, err)

	t.Run("refresh with refresh token", func(t *testing.T) {
		newAccess, newRefresh, err := service.RefreshToken(refreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)

		claims, err := service.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(456), claims.UserID)
		assert.Equal(t, "access", claims.TokenType)
	})

	t.Run("refresh with access token rejected", func(t *testing.T) {
		newAccess, newRefresh, err := service.RefreshToken(accessToken)
		assert.Error(t, err)
		assert.Empty(t, newAccess)
		assert.Empty(t, newRefresh)
	})

	t.Run("refresh with garbage rejected", func(t *testing.T) {
		_, _, err := service.RefreshToken("garbage")
		assert.Error(t, err)
	})
}

func TestConcurrentTokenGeneration(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	const workers = 20

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens = make(map[string]bool)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			accessToken, _, err := service.GenerateTokens(userID)
			assert.NoError(t, err)

			mu.Lock()
			tokens[accessToken] = true
			mu.Unlock()
		}(uint(i + 1))
	}
	wg.Wait()

	// Token IDs are random, so every token must be distinct
	assert.Len(t, tokens, workers)
}
