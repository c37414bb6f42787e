package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 1, EstimateTokens("test"))
	assert.Equal(t, 2, EstimateTokens("hello"))
	assert.Equal(t, 10, EstimateTokens(strings.Repeat("x", 40)))
	// "é" is one UTF-16 unit, the emoji is a surrogate pair.
	assert.Equal(t, 1, EstimateTokens("éé"))
	assert.Equal(t, 1, EstimateTokens("💧💧"))
	assert.Equal(t, 2, EstimateTokens("💧💧💧"))
}

func TestTokensSavedNeverNegative(t *testing.T) {
	assert.Equal(t, 5, TokensSaved(10, 5))
	assert.Equal(t, 0, TokensSaved(10, 10))
	assert.Equal(t, 0, TokensSaved(3, 12))
	for orig := 0; orig < 20; orig++ {
		for next := 0; next < 20; next++ {
			assert.GreaterOrEqual(t, TokensSaved(orig, next), 0)
		}
	}
}

func TestSavingsStateAdd(t *testing.T) {
	var s SavingsState

	s = s.Add(5, 0)
	assert.Equal(t, 5, s.TokensSaved)
	assert.Equal(t, 25.0, s.WaterFromTokens)
	assert.Equal(t, 25.0, s.TotalWater)

	s = s.Add(0, 10)
	assert.Equal(t, 5, s.TokensSaved)
	assert.Equal(t, 10.0, s.WaterFromCooling)
	assert.Equal(t, 35.0, s.TotalWater)
	assert.Equal(t, s.WaterFromTokens+s.WaterFromCooling, s.TotalWater)
}

func TestSavingsStateAddClampsBadInput(t *testing.T) {
	s := SavingsState{}.Add(2, 4)
	next := s.Add(-3, -1)
	assert.Equal(t, s, next)
	next = s.Add(0, math.NaN())
	assert.Equal(t, s, next)
	next = s.Add(0, math.Inf(1))
	assert.Equal(t, s, next)
}
