package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIssueAPIKey(t *testing.T) {
	u := &User{ID: "user-1"}
	assert.False(t, u.HasActiveAPIKey())

	key, err := u.IssueAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	assert.True(t, strings.HasPrefix(key, apiKeyPrefix))
	require.NotNil(t, u.APIKeyHash)
	assert.Equal(t, HashAPIKey(key), *u.APIKeyHash)
	assert.Equal(t, key[:12], u.APIKeyPrefix)
	assert.NotNil(t, u.APIKeyCreatedAt)
	assert.Nil(t, u.APIKeyLastUsedAt)
	assert.True(t, u.HasActiveAPIKey())
}

func TestUserIssueAPIKeyRotates(t *testing.T) {
	u := &User{ID: "user-2"}
	first, err := u.IssueAPIKey()
	require.NoError(t, err)
	firstHash := *u.APIKeyHash

	second, err := u.IssueAPIKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, firstHash, *u.APIKeyHash)
}

func TestHashAPIKeyTrimsWhitespace(t *testing.T) {
	assert.Equal(t, HashAPIKey("sda_abc"), HashAPIKey("  sda_abc\n"))
	assert.Len(t, HashAPIKey("sda_abc"), 64)
}

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("  Student@Example.COM ", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, "student@example.com", u.Email)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.True(t, CheckPasswordHash("correct horse battery", u.PasswordHash))
	assert.False(t, CheckPasswordHash("wrong", u.PasswordHash))

	_, err = CreateUser("not-an-email", "correct horse battery")
	assert.Error(t, err)
}
