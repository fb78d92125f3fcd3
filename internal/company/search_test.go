package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesPriceBucket(t *testing.T) {
	// Boundaries in cents: low < R$100, mid R$100-300, high >= R$300.
	assert.True(t, MatchesPriceBucket(9999, PriceLow))
	assert.False(t, MatchesPriceBucket(10000, PriceLow))

	assert.True(t, MatchesPriceBucket(10000, PriceMid))
	assert.True(t, MatchesPriceBucket(29999, PriceMid))
	assert.False(t, MatchesPriceBucket(30000, PriceMid))

	assert.True(t, MatchesPriceBucket(30000, PriceHigh))
	assert.False(t, MatchesPriceBucket(29999, PriceHigh))

	assert.True(t, MatchesPriceBucket(0, PriceAll))
	assert.True(t, MatchesPriceBucket(999999, ""))
}

func TestFilterByPrice(t *testing.T) {
	companies := []Company{
		{ID: "a", MinPrice: 5000},
		{ID: "b", MinPrice: 15000},
		{ID: "c", MinPrice: 50000},
	}

	mid := FilterByPrice(companies, PriceMid)
	assert.Len(t, mid, 1)
	assert.Equal(t, "b", mid[0].ID)

	all := FilterByPrice([]Company{{ID: "a"}, {ID: "b"}}, PriceAll)
	assert.Len(t, all, 2)
}

func TestSortByDistance(t *testing.T) {
	far, near := 12.5, 0.8
	companies := []Company{
		{ID: "unknown"},
		{ID: "far", DistanceKm: &far},
		{ID: "near", DistanceKm: &near},
	}

	SortByDistance(companies)

	assert.Equal(t, "near", companies[0].ID)
	assert.Equal(t, "far", companies[1].ID)
	assert.Equal(t, "unknown", companies[2].ID)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "barbearia-do-ze", Slugify("Barbearia do Zé!"))
	assert.Equal(t, "studio-123", Slugify("  Studio 123  "))
	assert.Equal(t, "", Slugify("!!!"))
}
