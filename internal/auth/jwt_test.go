package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := Tokens{Secret: []byte("s3cret"), TTL: time.Hour}
	raw, err := tokens.Issue("u-1", "admin", "a@x.io", "Ana")
	require.NoError(t, err)

	c, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Sub)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "Ana", c.Name)
}

func TestParseRejectsExpiredAndForeign(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	old := Tokens{Secret: []byte("s3cret"), TTL: time.Minute, Now: func() time.Time { return issuedAt }}
	raw, err := old.Issue("u-1", "user", "a@x.io", "Ana")
	require.NoError(t, err)

	later := Tokens{Secret: []byte("s3cret"), TTL: time.Minute, Now: func() time.Time { return issuedAt.Add(time.Hour) }}
	_, err = later.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := Tokens{Secret: []byte("different"), TTL: time.Minute, Now: old.Now}
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
