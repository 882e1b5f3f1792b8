package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		password := "samePassword"
		hash1, _ := HashPassword(password)
		hash2, _ := HashPassword(password)

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	password := "correctPassword"
	hashed, _ := HashPassword(password)

	t.Run("Correct password", func(t *testing.T) {
		assert.True(t, CheckPassword(hashed, password))
	})

	t.Run("Incorrect password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, "wrongPassword"))
	})

	t.Run("Empty password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, ""))
	})
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "reader@example.com", "reader", testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "reader@example.com", "reader", "")

		assert.Error(t, err)
		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		userID := 42
		email := "author@example.com"
		role := "author"

		token, err := GenerateAccessToken(userID, email, role, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, email, claims.Email)
		assert.Equal(t, role, claims.Role)
		assert.Equal(t, "access", claims.TokenType)
	})
}

func TestGenerateTokens(t *testing.T) {
	accessToken, refreshToken, err := GenerateTokens(7, "reader@example.com", "reader", testSecret, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	accessClaims, err := ValidateToken(accessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "access", accessClaims.TokenType)

	refreshClaims, err := ValidateToken(refreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestValidateToken(t *testing.T) {
	t.Run("Valid token", func(t *testing.T) {
		token, _ := GenerateAccessToken(1, "reader@example.com", "reader", testSecret)
		claims, err := ValidateToken(token, testSecret)

		assert.NoError(t, err)
		assert.NotNil(t, claims)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken(1, "reader@example.com", "reader", testSecret)
		claims, err := ValidateToken(token, "different-secret")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Garbage token", func(t *testing.T) {
		claims, err := ValidateToken("not.a.token", testSecret)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Expired token", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    1,
			Email:     "reader@example.com",
			Role:      "reader",
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(tokenString, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Empty secret", func(t *testing.T) {
		_, err := ValidateToken("whatever", "")
		assert.Equal(t, ErrEmptyJWTSecret, err)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("Successfully refresh", func(t *testing.T) {
		refreshToken, err := GenerateRefreshToken(3, "reader@example.com", "reader", testSecret)
		require.NoError(t, err)

		newAccess, claims, err := RefreshAccessToken(refreshToken, testSecret, testSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.Equal(t, 3, claims.UserID)

		accessClaims, err := ValidateToken(newAccess, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "access", accessClaims.TokenType)
	})

	t.Run("Reject access token as refresh token", func(t *testing.T) {
		accessToken, err := GenerateAccessToken(3, "reader@example.com", "reader", testSecret)
		require.NoError(t, err)

		_, _, err = RefreshAccessToken(accessToken, testSecret, testSecret)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}
