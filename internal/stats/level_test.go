package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForProgression(t *testing.T) {
	level, toNext := LevelFor(0, 0)
	assert.Equal(t, LevelBeginner, level)
	assert.Equal(t, 6, toNext)

	// Exactly 5 orders is still Beginner; the rule requires more than 5.
	level, _ = LevelFor(5, 5.0)
	assert.Equal(t, LevelBeginner, level)

	level, toNext = LevelFor(6, 4.6)
	assert.Equal(t, LevelOne, level)
	assert.Equal(t, 15, toNext)

	level, _ = LevelFor(21, 4.6)
	assert.Equal(t, LevelTwo, level)

	level, toNext = LevelFor(51, 4.9)
	assert.Equal(t, LevelPro, level)
	assert.Zero(t, toNext)
}

func TestLevelForRatingGates(t *testing.T) {
	// Volume without rating stays put.
	level, _ := LevelFor(100, 4.0)
	assert.Equal(t, LevelBeginner, level)

	// Pro needs the higher rating floor; 4.6 caps out at Level 2.
	level, _ = LevelFor(100, 4.6)
	assert.Equal(t, LevelTwo, level)
}
