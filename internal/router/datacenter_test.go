package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		montreal   Reading
		eemshaven  Reading
		wantTarget DataCenter
		wantLogic  string
		wantWater  float64
		wantEst    bool
	}{
		{
			name:       "montreal colder",
			montreal:   Reading{Celsius: 3},
			eemshaven:  Reading{Celsius: 9},
			wantTarget: Montreal,
			wantLogic:  "Montreal is colder (3°C vs 9°C)",
			wantWater:  12,
			wantEst:    true,
		},
		{
			name:       "eemshaven colder",
			montreal:   Reading{Celsius: 14.25},
			eemshaven:  Reading{Celsius: 7.5},
			wantTarget: Eemshaven,
			wantLogic:  "Netherlands is colder (7.5°C vs 14.25°C)",
			wantWater:  13.5,
			wantEst:    true,
		},
		{
			name:       "tie goes to eemshaven",
			montreal:   Reading{Celsius: 5},
			eemshaven:  Reading{Celsius: 5},
			wantTarget: Eemshaven,
			wantLogic:  "Netherlands is colder (5°C vs 5°C)",
			wantWater:  0,
			wantEst:    true,
		},
		{
			name:       "defaulted reading saves nothing",
			montreal:   Reading{Celsius: -10},
			eemshaven:  Reading{Celsius: DefaultTemperature, Defaulted: true},
			wantTarget: Montreal,
			wantLogic:  "Montreal is colder (-10°C vs 20°C)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.montreal, tt.eemshaven, 2)
			assert.Equal(t, tt.wantTarget, d.Target)
			assert.Equal(t, tt.wantLogic, d.Logic)
			assert.Equal(t, tt.wantWater, d.WaterSavedML)
			assert.Equal(t, tt.wantEst, d.IsEstimate)
		})
	}
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 1.3, round1(1.26))
	assert.Equal(t, 0.0, round1(-3))
}
