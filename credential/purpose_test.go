package credential

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurposeRoundTrip(t *testing.T) {
	for _, p := range append([]Purpose{AnyPurpose}, Purposes...) {
		parsed, err := ParsePurpose(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParsePurpose("magic-link")
	assert.Error(t, err)
	assert.False(t, AnyPurpose.Valid())
}

func TestDecodeRejectsTruncatedRecord(t *testing.T) {
	rec := &Record{
		SubjectKey: "ada@example.com",
		Purpose:    PurposeSignInCode,
		Hash:       "ab",
		CreatedAt:  time.UnixMilli(1000),
		ExpiresAt:  time.UnixMilli(2000),
	}
	data, err := encodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, byte(2), data[offsetHashLen])
	assert.Equal(t, uint64(2000), binary.BigEndian.Uint64(data[offsetExpiresAt:]))

	for i := 0; i < len(data); i++ {
		_, err := decodeRecord(data[:i])
		assert.Error(t, err, "prefix length %d", i)
	}
}
