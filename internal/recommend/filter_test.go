package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

func TestFilterSummaries_KindAndExclusion(t *testing.T) {
	t.Parallel()

	p := model.PreferenceProfile{GenreWeight: map[string]float64{"drama": 0.5}}
	skip := map[string]struct{}{"tt2": {}}
	in := []model.CandidateSummary{
		{CatalogID: "tt1", Title: "Keeper", Year: 2015, Kind: model.KindMovie},
		{CatalogID: "tt2", Title: "Excluded", Year: 2016, Kind: model.KindMovie},
		{CatalogID: "tt3", Title: "Wrong Kind", Year: 2017, Kind: model.KindSeries},
	}

	out := FilterSummaries(in, model.KindMovie, skip, p, 5)

	require.Len(t, out, 1)
	assert.Equal(t, "tt1", out[0].CatalogID)
}

func TestFilterSummaries_FamilyDenylistOnlyForDarkProfiles(t *testing.T) {
	t.Parallel()

	in := []model.CandidateSummary{
		{CatalogID: "tt1", Title: "A Family Christmas", Year: 2018, Kind: model.KindMovie},
		{CatalogID: "tt2", Title: "Night Chase", Year: 2018, Kind: model.KindMovie},
	}

	dark := model.PreferenceProfile{GenreWeight: map[string]float64{"thriller": 0.8}}
	out := FilterSummaries(in, model.KindMovie, nil, dark, 5)
	require.Len(t, out, 1)
	assert.Equal(t, "tt2", out[0].CatalogID)

	soft := model.PreferenceProfile{GenreWeight: map[string]float64{"comedy": 0.8}}
	out = FilterSummaries(in, model.KindMovie, nil, soft, 5)
	assert.Len(t, out, 2)
}

func TestFilterSummaries_EraCutoff(t *testing.T) {
	t.Parallel()

	in := []model.CandidateSummary{
		{CatalogID: "tt1", Title: "Old One", Year: 1994, Kind: model.KindMovie},
		{CatalogID: "tt2", Title: "New One", Year: 2020, Kind: model.KindMovie},
		{CatalogID: "tt3", Title: "No Year", Year: 0, Kind: model.KindMovie},
	}

	modern := model.PreferenceProfile{EraWeight: map[string]float64{"2010s": 0.8}}
	out := FilterSummaries(in, model.KindMovie, nil, modern, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "tt2", out[0].CatalogID)
	// Unknown years pass; the scoring engine handles them with low confidence.
	assert.Equal(t, "tt3", out[1].CatalogID)

	retro := model.PreferenceProfile{EraWeight: map[string]float64{"1990s": 0.5}}
	out = FilterSummaries(in, model.KindMovie, nil, retro, 5)
	assert.Len(t, out, 3)
}

func TestFilterSummaries_PerQueryCap(t *testing.T) {
	t.Parallel()

	in := []model.CandidateSummary{
		{CatalogID: "tt1", Title: "One", Year: 2018, Kind: model.KindMovie},
		{CatalogID: "tt2", Title: "Two", Year: 2019, Kind: model.KindMovie},
		{CatalogID: "tt3", Title: "Three", Year: 2020, Kind: model.KindMovie},
	}

	out := FilterSummaries(in, model.KindMovie, nil, model.PreferenceProfile{}, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "tt1", out[0].CatalogID)
	assert.Equal(t, "tt2", out[1].CatalogID)
}
