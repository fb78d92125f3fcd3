package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
)

func TestMergeDeduplicatesByID(t *testing.T) {
	remote := []catalog.Service{
		{ID: "a", Title: "Consultoria", ServiceType: "hybrid", CompanyRating: 4.5},
	}
	nearby := []catalog.Service{
		{ID: "a", Title: "Consultoria", ServiceType: "hybrid", CompanyRating: 4.5},
		{ID: "b", Title: "Eletricista", CompanyRating: 4.8},
	}

	merged := Merge(remote, nearby)

	assert.Len(t, merged, 2)
	ids := []string{merged[0].ID, merged[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestMergeSortsByRatingThenTitle(t *testing.T) {
	merged := Merge(
		[]catalog.Service{
			{ID: "1", Title: "Zeladoria", CompanyRating: 4.0},
			{ID: "2", Title: "Aulas de inglês", CompanyRating: 4.0},
		},
		[]catalog.Service{
			{ID: "3", Title: "Encanador", CompanyRating: 5.0},
		},
	)

	assert.Equal(t, "3", merged[0].ID) // highest rating first
	assert.Equal(t, "2", merged[1].ID) // rating tie broken by title
	assert.Equal(t, "1", merged[2].ID)
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))

	only := Merge([]catalog.Service{{ID: "x"}}, nil)
	assert.Len(t, only, 1)
}
