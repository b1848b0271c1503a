package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecretKnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashSecret("abc"))
	assert.Len(t, HashSecret(""), DigestLength)
}

func TestHashSecretIsLowercaseHex(t *testing.T) {
	digest := HashSecret("Some-Token")
	require.Len(t, digest, DigestLength)
	assert.Equal(t, strings.ToLower(digest), digest)
}

func TestVerifySecret(t *testing.T) {
	digest := HashSecret("482913")

	assert.True(t, VerifySecret(digest, "482913"))
	assert.False(t, VerifySecret(digest, "482914"))
	assert.False(t, VerifySecret(digest, ""))
	assert.False(t, VerifySecret("", "482913"))
	assert.False(t, VerifySecret(strings.ToUpper(digest), "482913"))
}
