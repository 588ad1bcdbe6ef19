package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	t.Run("access token 往返", func(t *testing.T) {
		tokenString, err := m.GenerateToken(42, "ada")
		require.NoError(t, err)

		claims, err := m.VerifyToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "ada", claims.Username)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("每个 token 的 jti 唯一", func(t *testing.T) {
		first, err := m.GenerateToken(1, "ada")
		require.NoError(t, err)
		second, err := m.GenerateRefreshToken(1, "ada")
		require.NoError(t, err)

		firstClaims, err := m.VerifyToken(first)
		require.NoError(t, err)
		secondClaims, err := m.VerifyToken(second)
		require.NoError(t, err)
		assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
	})

	t.Run("错误密钥验证失败", func(t *testing.T) {
		tokenString, err := m.GenerateToken(1, "ada")
		require.NoError(t, err)

		other := NewJWTManager("another-secret", 1, 7)
		_, err = other.VerifyToken(tokenString)
		assert.Error(t, err)
	})
}

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(16)
	assert.Len(t, s, 32) // 16 字节的十六进制编码
	assert.NotEqual(t, s, GenerateRandomString(16))
}
