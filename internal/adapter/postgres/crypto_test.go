package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := newTokenCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.seal("EAAB-platform-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "platform-token")

	opened, err := c.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-platform-token", opened)
}

func TestSealIsNonDeterministic(t *testing.T) {
	c, err := newTokenCipher(testKey)
	require.NoError(t, err)

	a, err := c.seal("tok")
	require.NoError(t, err)
	b, err := c.seal("tok")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongKey(t *testing.T) {
	c1, err := newTokenCipher(testKey)
	require.NoError(t, err)
	c2, err := newTokenCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	sealed, err := c1.seal("tok")
	require.NoError(t, err)
	_, err = c2.open(sealed)
	require.Error(t, err)
}

func TestBadKeys(t *testing.T) {
	_, err := newTokenCipher("not-hex")
	require.Error(t, err)

	_, err = newTokenCipher("abcd") // too short
	require.Error(t, err)
}

func TestOpenGarbage(t *testing.T) {
	c, err := newTokenCipher(testKey)
	require.NoError(t, err)

	_, err = c.open("!!!not-base64")
	require.Error(t, err)

	_, err = c.open("c2hvcnQ=") // decodes shorter than a nonce
	require.Error(t, err)
}
