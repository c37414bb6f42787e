// Package router is the green routing service: it picks the colder of two
// data centers, generates the answer there and reports the water saved.
package router

import (
	"fmt"
	"math"
	"strconv"
)

// DataCenter is a candidate generation region.
type DataCenter struct {
	Name   string // shown to the user as routed_to
	Short  string // used in the routing logic text
	Region string
	Lat    float64
	Lon    float64
}

var (
	Montreal = DataCenter{
		Name:   "Montreal, Canada",
		Short:  "Montreal",
		Region: "northamerica-northeast1",
		Lat:    45.5017,
		Lon:    -73.5673,
	}
	Eemshaven = DataCenter{
		Name:   "Eemshaven, Netherlands",
		Short:  "Netherlands",
		Region: "europe-west4",
		Lat:    53.4357,
		Lon:    6.8370,
	}
)

// DefaultTemperature stands in for any temperature that could not be looked up.
const DefaultTemperature = 20.0

// Reading is one site's current temperature.
type Reading struct {
	Celsius   float64
	Defaulted bool
}

// Decision is the chosen site and what routing there is estimated to save.
type Decision struct {
	Target       DataCenter
	Logic        string
	WaterSavedML float64
	IsEstimate   bool
}

// Decide picks the colder site; a tie goes to Eemshaven. Water is estimated
// from the temperature gap only when both readings are real.
func Decide(montreal, eemshaven Reading, perDegreeML float64) Decision {
	target, cold, warm := Eemshaven, eemshaven, montreal
	if montreal.Celsius < eemshaven.Celsius {
		target, cold, warm = Montreal, montreal, eemshaven
	}

	d := Decision{
		Target: target,
		Logic:  fmt.Sprintf("%s is colder (%s°C vs %s°C)", target.Short, formatTemp(cold.Celsius), formatTemp(warm.Celsius)),
	}
	if !montreal.Defaulted && !eemshaven.Defaulted {
		d.WaterSavedML = round1((warm.Celsius - cold.Celsius) * perDegreeML)
		d.IsEstimate = true
	}
	return d
}

func formatTemp(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

func round1(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}
