package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStylesAreComplete(t *testing.T) {
	all := Styles()
	require.Len(t, all, 18)

	seen := map[string]bool{}
	for _, s := range all {
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.ThumbnailURL)
		assert.NotEmpty(t, s.Prompt)
		assert.False(t, seen[s.ID], "duplicate style id %q", s.ID)
		seen[s.ID] = true
	}
}

func TestByID(t *testing.T) {
	style, ok := ByID("low-fade")
	require.True(t, ok)
	assert.Equal(t, "Low Fade", style.Name)

	_, ok = ByID("mullet")
	assert.False(t, ok)
}

func TestStylesReturnsCopy(t *testing.T) {
	first := Styles()
	first[0].Name = "mutated"

	again := Styles()
	assert.Equal(t, "Low Fade", again[0].Name)
}
