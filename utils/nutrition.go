package utils

import (
	"errors"
	"strconv"

	"github.com/maskyy/caketruth/models"
	"github.com/shopspring/decimal"
)

// Per-100 g limits enforced on every food profile.
const (
	MaxCaloriesPer100 = 900.0
	MaxNutrientPer100 = 100.0
)

var ErrNonPositiveMass = errors.New("total mass must be positive")

// exactDigits is enough fraction digits to print any float64 exactly.
const exactDigits = 1074

// Round2 rounds the exact binary value of v to two decimal places, ties to
// even. 2.675 is stored as 2.67499... and so becomes 2.67.
func Round2(v float64) float64 {
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		return v
	}
	return d.RoundBank(2).InexactFloat64()
}

// RoundProfile rounds every nutrient to two decimals.
func RoundProfile(p models.NutrientProfile) models.NutrientProfile {
	return p.Map(Round2)
}

// Scale converts a per-100 profile into the amounts contained in mass.
func Scale(per100 models.NutrientProfile, mass float64) models.NutrientProfile {
	factor := mass / 100
	return per100.Map(func(v float64) float64 { return Round2(v * factor) })
}

// Portion is a mass of a food with a per-100 profile.
type Portion struct {
	Profile models.NutrientProfile
	Mass    float64
}

// WeightedAggregate returns the per-100 profile of a mixture of portions
// whose finished mass is totalMass.
func WeightedAggregate(portions []Portion, totalMass float64) (models.NutrientProfile, error) {
	if totalMass <= 0 {
		return models.NutrientProfile{}, ErrNonPositiveMass
	}
	var sum models.NutrientProfile
	for _, p := range portions {
		m := p.Mass / 100
		sum = sum.Add(p.Profile.Map(func(v float64) float64 { return v * m }))
	}
	div := totalMass / 100
	return sum.Map(func(v float64) float64 { return Round2(v / div) }), nil
}

// Per100Violations lists the nutrients outside the per-100 g ranges.
func Per100Violations(p models.NutrientProfile) map[string]string {
	out := map[string]string{}
	for k, v := range p.Values() {
		limit := MaxNutrientPer100
		if k == "calories" {
			limit = MaxCaloriesPer100
		}
		switch {
		case v < 0:
			out[k] = "ensure this value is greater than or equal to 0"
		case v > limit:
			out[k] = "ensure this value is less than or equal to " + decimal.NewFromFloat(limit).String()
		}
	}
	return out
}
