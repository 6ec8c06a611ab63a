package services

import (
	"time"

	"github.com/maskyy/caketruth/models"
)

// ProductSummary is the list representation of a product.
type ProductSummary struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Calories        float64 `json:"calories"`
	ProductCategory *uint   `json:"product_category"`
	ProductBrand    *uint   `json:"product_brand"`
}

type ProductView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	models.NutrientProfile
	IsPublic        bool     `json:"is_public"`
	IsVerified      bool     `json:"is_verified"`
	User            *uint    `json:"user"`
	NetGrams        *float64 `json:"net_grams"`
	DrainedGrams    *float64 `json:"drained_grams"`
	ProductCategory *uint    `json:"product_category"`
	ProductBrand    *uint    `json:"product_brand"`
}

func NewProductSummary(p *models.Product) ProductSummary {
	return ProductSummary{
		ID:              p.FoodID,
		Name:            p.Food.Name,
		Calories:        p.Food.Calories,
		ProductCategory: p.ProductCategoryID,
		ProductBrand:    p.ProductBrandID,
	}
}

func NewProductView(p *models.Product) ProductView {
	return ProductView{
		ID:              p.FoodID,
		Name:            p.Food.Name,
		NutrientProfile: p.Food.NutrientProfile,
		IsPublic:        p.Food.IsPublic,
		IsVerified:      p.Food.IsVerified,
		User:            p.Food.UserID,
		NetGrams:        p.NetGrams,
		DrainedGrams:    p.DrainedGrams,
		ProductCategory: p.ProductCategoryID,
		ProductBrand:    p.ProductBrandID,
	}
}

// RecipeSummary is the list representation of a recipe.
type RecipeSummary struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Calories       float64 `json:"calories"`
	Mass           float64 `json:"mass"`
	RecipeCategory *uint   `json:"recipe_category"`
}

type RecipeComponentView struct {
	Product *ProductSummary `json:"product"`
	Mass    float64         `json:"mass"`
}

type RecipeView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	models.NutrientProfile
	IsPublic       bool                  `json:"is_public"`
	IsVerified     bool                  `json:"is_verified"`
	User           *uint                 `json:"user"`
	Directions     string                `json:"directions"`
	Mass           float64               `json:"mass"`
	RecipeCategory *uint                 `json:"recipe_category"`
	Products       []RecipeComponentView `json:"products"`
}

func NewRecipeSummary(r *models.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:             r.FoodID,
		Name:           r.Food.Name,
		Calories:       r.Food.Calories,
		Mass:           r.Mass,
		RecipeCategory: r.RecipeCategoryID,
	}
}

func NewRecipeView(r *models.Recipe) RecipeView {
	products := make([]RecipeComponentView, 0, len(r.Components))
	for i := range r.Components {
		c := &r.Components[i]
		cv := RecipeComponentView{Mass: c.Mass}
		if c.Product != nil {
			s := NewProductSummary(c.Product)
			cv.Product = &s
		}
		products = append(products, cv)
	}
	return RecipeView{
		ID:              r.FoodID,
		Name:            r.Food.Name,
		NutrientProfile: r.Food.NutrientProfile,
		IsPublic:        r.Food.IsPublic,
		IsVerified:      r.Food.IsVerified,
		User:            r.Food.UserID,
		Directions:      r.Directions,
		Mass:            r.Mass,
		RecipeCategory:  r.RecipeCategoryID,
		Products:        products,
	}
}

// DiaryView never exposes the raw food reference: the food is embedded as
// either a product or a recipe summary.
type DiaryView struct {
	ID           uint            `json:"id"`
	Mass         float64         `json:"mass"`
	CalcCalories float64         `json:"calc_calories"`
	CalcProteins float64         `json:"calc_proteins"`
	CalcFats     float64         `json:"calc_fats"`
	CalcCarbs    float64         `json:"calc_carbs"`
	CalcEthanol  float64         `json:"calc_ethanol"`
	User         uint            `json:"user"`
	Meal         *uint           `json:"meal"`
	AddedDate    time.Time       `json:"added_date"`
	Product      *ProductSummary `json:"product,omitempty"`
	Recipe       *RecipeSummary  `json:"recipe,omitempty"`
}

type UserView struct {
	ID           uint        `json:"id"`
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	BlockedUntil *time.Time  `json:"blocked_until"`
	Role         models.Role `json:"role"`
}

func NewUserView(u *models.User) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		BlockedUntil: u.BlockedUntil,
		Role:         u.Role,
	}
}
