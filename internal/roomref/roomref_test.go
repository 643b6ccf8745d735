package roomref

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCanonical(t *testing.T) {
	id := uuid.New()

	ref, err := Parse(id.String())
	require.NoError(t, err)

	assert.True(t, ref.IsCanonical())
	assert.Equal(t, id, ref.BookingID())
	assert.Equal(t, id.String(), ref.RoomID())
}

func TestParseCanonicalNormalizesCase(t *testing.T) {
	id := uuid.New()

	ref, err := Parse("  " + strings.ToUpper(id.String()) + " ")
	require.NoError(t, err)

	assert.True(t, ref.IsCanonical())
	assert.Equal(t, id.String(), ref.RoomID())
}

func TestParseLegacy(t *testing.T) {
	ref, err := Parse("64f0aa11bb22cc33dd44ee55")
	require.NoError(t, err)

	assert.False(t, ref.IsCanonical())
	assert.Equal(t, KindLegacy, ref.Kind())
	assert.Equal(t, "64f0aa11bb22cc33dd44ee55", ref.RoomID())
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"embedded space", "room 123"},
		{"path separator", "rooms/123"},
		{"too long", strings.Repeat("a", 65)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestSameID(t *testing.T) {
	assert.True(t, SameID("ABC-123", " abc-123 "))
	assert.False(t, SameID("abc", "abd"))
	assert.False(t, SameID("", ""))
}
