package market

import "math"

// TreeCO2KgPerYear is the CO2 absorbed by one tree in a year, in kg.
// The reward copy reads "this reuse saves what N trees absorb in a year".
const TreeCO2KgPerYear = 10.0

// Reward is the gamified incentive derived from an item's CO2 figure.
// Both fields are nil when no CO2 estimate exists, and TreePoints is nil
// when the estimate rounds to zero or below.
type Reward struct {
	TreeYears  *float64 `json:"tree_years"`
	TreePoints *int     `json:"tree_points"`
}

// ComputeReward converts a CO2-kg estimate into tree years and points.
// treeYears = co2Kg / 10, rounded half-up to one decimal.
// treePoints = treeYears rounded to the nearest integer, with a floor of
// one point whenever treeYears is positive.
func ComputeReward(co2Kg *float64) Reward {
	if co2Kg == nil {
		return Reward{}
	}
	years := roundHalfUp1(*co2Kg / TreeCO2KgPerYear)
	r := Reward{TreeYears: &years}
	if years > 0 {
		points := int(math.Floor(years + 0.5))
		if points < 1 {
			points = 1
		}
		r.TreePoints = &points
	}
	return r
}

// roundHalfUp1 rounds to one decimal place, halves up at the 0.05
// boundary (0.25 -> 0.3, not banker's rounding). Inputs are CO2 amounts
// and never negative.
func roundHalfUp1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
