package model

import (
	"math"
	"unicode/utf16"
)

const (
	// CharsPerToken is the fixed estimation heuristic: 4 characters ≈ 1 token.
	CharsPerToken = 4
	// TokenWaterML is the water (mL) attributed to each token not sent upstream.
	TokenWaterML = 5.0
)

// EstimateTokens returns ceil(len(text)/4), counting length in UTF-16 code
// units so that non-ASCII prompts estimate the same as in a browser client.
// TODO: decide whether a real tokenizer should replace this; keep the heuristic until then.
func EstimateTokens(text string) int {
	n := len(utf16.Encode([]rune(text)))
	return (n + CharsPerToken - 1) / CharsPerToken
}

// TokensSaved never reports negative savings: a longer rewrite saves zero.
func TokensSaved(originalTokens, newTokens int) int {
	return max(0, originalTokens-newTokens)
}

// SavingsState holds process-lifetime cumulative counters.
type SavingsState struct {
	TokensSaved      int     `json:"tokens_saved"`
	WaterFromTokens  float64 `json:"water_from_tokens_ml"`
	WaterFromCooling float64 `json:"water_from_cooling_ml"`
	TotalWater       float64 `json:"total_water_ml"`
}

// Add returns the state after one successful turn. Negative or non-finite
// inputs count as zero so the counters never decrease.
func (s SavingsState) Add(tokens int, waterSavedML float64) SavingsState {
	if tokens < 0 {
		tokens = 0
	}
	if waterSavedML < 0 || math.IsNaN(waterSavedML) || math.IsInf(waterSavedML, 0) {
		waterSavedML = 0
	}
	next := SavingsState{
		TokensSaved:      s.TokensSaved + tokens,
		WaterFromCooling: s.WaterFromCooling + waterSavedML,
	}
	next.WaterFromTokens = float64(next.TokensSaved) * TokenWaterML
	next.TotalWater = next.WaterFromTokens + next.WaterFromCooling
	return next
}
