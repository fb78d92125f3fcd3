package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNumbersSmallTotals(t *testing.T) {
	assert.Nil(t, PageNumbers(1, 0))
	assert.Equal(t, []int{1}, PageNumbers(1, 1))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, PageNumbers(4, 7))
}

func TestPageNumbersEllipsisPlacement(t *testing.T) {
	// Near the start: no leading ellipsis.
	assert.Equal(t, []int{1, 2, 3, PageEllipsis, 10}, PageNumbers(2, 10))
	assert.Equal(t, []int{1, 2, 3, 4, PageEllipsis, 10}, PageNumbers(3, 10))

	// Middle: ellipses on both sides.
	assert.Equal(t, []int{1, PageEllipsis, 4, 5, 6, PageEllipsis, 10}, PageNumbers(5, 10))

	// Near the end: no trailing ellipsis.
	assert.Equal(t, []int{1, PageEllipsis, 7, 8, 9, 10}, PageNumbers(8, 10))
	assert.Equal(t, []int{1, PageEllipsis, 9, 10}, PageNumbers(10, 10))
}

func TestPageNumbersAlwaysBracketed(t *testing.T) {
	for current := 1; current <= 50; current++ {
		pages := PageNumbers(current, 50)
		assert.Equal(t, 1, pages[0])
		assert.Equal(t, 50, pages[len(pages)-1])
	}
}
