package models

// NutrientProfile is a vector of the five tracked nutrients. On a Food it
// holds amounts per 100 g; on a DiaryEntry it holds amounts for the logged mass.
type NutrientProfile struct {
	Calories float64 `gorm:"not null;default:0" json:"calories"`
	Proteins float64 `gorm:"not null;default:0" json:"proteins"`
	Fats     float64 `gorm:"not null;default:0" json:"fats"`
	Carbs    float64 `gorm:"not null;default:0" json:"carbs"`
	Ethanol  float64 `gorm:"not null;default:0" json:"ethanol"`
}

// NutrientKeys lists the nutrient names in their canonical order.
var NutrientKeys = []string{"calories", "proteins", "fats", "carbs", "ethanol"}

// Map applies f to every nutrient.
func (p NutrientProfile) Map(f func(float64) float64) NutrientProfile {
	return NutrientProfile{
		Calories: f(p.Calories),
		Proteins: f(p.Proteins),
		Fats:     f(p.Fats),
		Carbs:    f(p.Carbs),
		Ethanol:  f(p.Ethanol),
	}
}

// Add returns the element-wise sum.
func (p NutrientProfile) Add(o NutrientProfile) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories + o.Calories,
		Proteins: p.Proteins + o.Proteins,
		Fats:     p.Fats + o.Fats,
		Carbs:    p.Carbs + o.Carbs,
		Ethanol:  p.Ethanol + o.Ethanol,
	}
}

// Values returns the nutrients keyed by NutrientKeys.
func (p NutrientProfile) Values() map[string]float64 {
	return map[string]float64{
		"calories": p.Calories,
		"proteins": p.Proteins,
		"fats":     p.Fats,
		"carbs":    p.Carbs,
		"ethanol":  p.Ethanol,
	}
}
