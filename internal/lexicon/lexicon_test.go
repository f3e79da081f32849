package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAlias(t *testing.T) {
	lex := FromTable(CropTable)

	tests := []struct {
		name     string
		crop     string
		category string
	}{
		{"TUR", "TOOR DAL", "PULSES"},
		{"ARHAR", "TOOR DAL", "PULSES"},
		{"GEHU", "WHEAT", "GRAINS"},
		{"HALDI", "TURMERIC", "SPICES"},
		{"SOYA", "SOYBEAN", "OILSEEDS"},
		{"KANDA", "ONION", "VEGETABLES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := lex.Resolve(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.crop, entry.Crop)
			assert.Equal(t, tt.category, entry.Category)
		})
	}
}

func TestResolveStandardName(t *testing.T) {
	lex := FromTable(CropTable)

	entry, ok := lex.Resolve("TOOR DAL")
	require.True(t, ok)
	assert.Equal(t, "TOOR DAL", entry.Crop)
	assert.Equal(t, "PULSES", entry.Category)
}

func TestResolveFolding(t *testing.T) {
	lex := FromTable(CropTable)

	for _, name := range []string{"tur", "Tur", "  TUR  ", "tUr"} {
		entry, ok := lex.Resolve(name)
		require.True(t, ok, "expected %q to resolve", name)
		assert.Equal(t, "TOOR DAL", entry.Crop)
	}
}

func TestResolveUnknown(t *testing.T) {
	lex := FromTable(CropTable)

	_, ok := lex.Resolve("UNOBTAINIUM")
	assert.False(t, ok)
	_, ok = lex.Resolve("")
	assert.False(t, ok)
}

func TestStandardNamesSorted(t *testing.T) {
	lex := FromTable(CropTable)

	names := lex.StandardNames()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "TOOR DAL")
	assert.Contains(t, names, "WHEAT")

	cats := lex.Categories()
	assert.IsIncreasing(t, cats)
	assert.Contains(t, cats, "PULSES")
}

func TestVerifyCleanTable(t *testing.T) {
	assert.Empty(t, Verify(CropTable))
}

func TestVerifyDuplicateAlias(t *testing.T) {
	bad := Table{
		"PULSES": {
			"TOOR DAL": {"TUR"},
			"CHANA":    {"tur", "GRAM"},
		},
	}
	defects := Verify(bad)
	require.Len(t, defects, 1)
	assert.Contains(t, defects[0], "TUR")
}

func TestVerifyAliasCollidesWithCrop(t *testing.T) {
	bad := Table{
		"PULSES": {
			"CHANA": {"GRAM"},
			"MOONG": {"CHANA"},
		},
	}
	defects := Verify(bad)
	require.Len(t, defects, 1)
	assert.Contains(t, defects[0], "CHANA")
}
