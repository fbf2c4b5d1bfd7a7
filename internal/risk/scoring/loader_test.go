package scoring

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/risk/models"
)

func TestLoadWeights(t *testing.T) {
	w, err := LoadWeights(filepath.Join("testdata", "weights.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "tenant-override-2026", w.Version)
	assert.Equal(t, 6, w.Categories.Sensitive)
	assert.Len(t, w.Purposes, len(DefaultWeights().Purposes), "omitted sections keep their defaults")
	assert.Equal(t, 3, w.PurposeDefault)
	assert.Len(t, w.Volume, 3)

	s, err := NewScorer(w)
	require.NoError(t, err)

	assert.Equal(t, CountryDomestic, s.ClassifyCountry("ES"))
	assert.Equal(t, CountryAdequacy, s.ClassifyCountry("Chile"))
	assert.Equal(t, CountryEU, s.ClassifyCountry("Alemania"))
	assert.Equal(t, CountryNoFramework, s.ClassifyCountry("PT"), "codes outside the override lists have no framework")
	assert.Equal(t, 9, s.ScoreVolume(1_000_000))
	assert.Equal(t, 3, s.ScorePurpose("sin coincidencias"))
	assert.Equal(t, 6, s.ScoreCategories(models.DataCategories{Sensitive: []string{"salud"}}))
}

func TestLoadWeightsMissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join("testdata", "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read weights")
}

func TestParseWeights(t *testing.T) {
	t.Run("versionless file gets a content digest", func(t *testing.T) {
		data := []byte("purpose_default: 4\n")
		w, err := ParseWeights(data)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(w.Version, "sha256:"))

		again, err := ParseWeights(data)
		require.NoError(t, err)
		assert.Equal(t, w.Version, again.Version)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseWeights([]byte("categories: [1, 2"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode weights")
	})

	t.Run("invalid tables are rejected", func(t *testing.T) {
		cases := map[string]string{
			"negative category":          "categories:\n  sensitive: -1\n",
			"usa ordering":               "transfers:\n  usa_with_safeguard: 6\n  usa_without_safeguard: 5\n",
			"closed last bucket":         "volume:\n  - below: 10\n    points: 0\n  - below: 20\n    points: 1\n",
			"non-increasing bucket":      "volume:\n  - below: 10\n    points: 0\n  - below: 10\n    points: 1\n  - below: 0\n    points: 2\n",
			"unordered purposes":         "purposes:\n  - name: a\n    points: 1\n    keywords: [x]\n  - name: b\n    points: 5\n    keywords: [y]\n",
			"archetype without keywords": "purposes:\n  - name: a\n    points: 1\n",
			"missing domestic":           "countries:\n  domestic: \"\"\n",
		}
		for name, doc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := ParseWeights([]byte(doc))
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid weights")
			})
		}
	})
}

func TestDefaultWeightsValid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
}
