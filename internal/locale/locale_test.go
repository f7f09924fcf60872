package locale

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/schooldash/internal/model"
)

func TestLoad_ParallelDictionaries(t *testing.T) {
	en, err := Load(English)
	require.NoError(t, err)
	ta, err := Load(Tamil)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, ok := en.Summary(i)
		assert.True(t, ok, "en summary %d", i)
		_, ok = ta.Summary(i)
		assert.True(t, ok, "ta summary %d", i)
	}

	for key := range en.Labels {
		assert.Contains(t, ta.Labels, key)
	}
	for key := range en.Titles {
		assert.Contains(t, ta.Titles, key)
	}
}

func TestDictionary_Lookups(t *testing.T) {
	ta := MustLoad(Tamil)

	assert.Equal(t, "மாவட்டம்", ta.Label(model.FieldDistrict))
	assert.Equal(t, "ஆம்", ta.Value("Yes"))
	assert.Equal(t, "Nowhere", ta.Value("Nowhere"))
	assert.Equal(t, "unknown_title", ta.Title("unknown_title"))

	var nilDict *Dictionary
	assert.Equal(t, "district", nilDict.Label(model.FieldDistrict))
}

func TestParseTag(t *testing.T) {
	tag, err := ParseTag(" TA ")
	require.NoError(t, err)
	assert.Equal(t, Tamil, tag)

	_, err = ParseTag("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLocale)

	_, err = Load("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLocale)
}

func TestPreferences_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	prefs, err := OpenPreferences(path)
	require.NoError(t, err)
	assert.Equal(t, English, prefs.Locale())

	require.NoError(t, prefs.SetLocale(Tamil))
	assert.ErrorIs(t, prefs.SetLocale("xx"), ErrUnsupportedLocale)

	reopened, err := OpenPreferences(path)
	require.NoError(t, err)
	assert.Equal(t, Tamil, reopened.Locale())
}
