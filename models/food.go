package models

import "time"

// FoodTypeID discriminates the Food variants.
type FoodTypeID uint

const (
	FoodTypeProduct FoodTypeID = iota + 1
	FoodTypeRecipe
)

func (t FoodTypeID) String() string {
	switch t {
	case FoodTypeProduct:
		return "product"
	case FoodTypeRecipe:
		return "recipe"
	default:
		return "unknown"
	}
}

type FoodType struct {
	ID   FoodTypeID `gorm:"primaryKey"`
	Name string     `gorm:"size:64;not null"`
}

var DefaultFoodTypes = []FoodType{
	{ID: FoodTypeProduct, Name: "product"},
	{ID: FoodTypeRecipe, Name: "recipe"},
}

// Food holds the fields shared by products and recipes. It is never created
// on its own: every row is referenced by exactly one Product or Recipe.
type Food struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:64;not null"`
	NutrientProfile `gorm:"embedded"`
	IsPublic        bool       `gorm:"not null;default:false"`
	IsVerified      bool       `gorm:"not null;default:false"`
	FoodTypeID      FoodTypeID `gorm:"not null;index"`
	FoodType        FoodType   `gorm:"constraint:OnDelete:RESTRICT"`
	UserID          *uint      `gorm:"index"` // nil for seeded foods
	User            *User      `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether userID owns the food.
func (f *Food) OwnedBy(userID uint) bool {
	return f.UserID != nil && *f.UserID == userID
}

// Product is a leaf food with asserted nutrients.
type Product struct {
	FoodID            uint `gorm:"primaryKey;autoIncrement:false"`
	Food              Food `gorm:"foreignKey:FoodID;constraint:OnDelete:CASCADE"`
	NetGrams          *float64
	DrainedGrams      *float64
	ProductCategoryID *uint            `gorm:"index"`
	ProductCategory   *ProductCategory `gorm:"constraint:OnDelete:SET NULL"`
	ProductBrandID    *uint            `gorm:"index"`
	ProductBrand      *ProductBrand    `gorm:"constraint:OnDelete:SET NULL"`
}

// Recipe is a composite food. Its nutrients are always derived from Components.
type Recipe struct {
	FoodID           uint              `gorm:"primaryKey;autoIncrement:false"`
	Food             Food              `gorm:"foreignKey:FoodID;constraint:OnDelete:CASCADE"`
	Directions       string            `gorm:"type:text;not null"`
	Mass             float64           `gorm:"not null"`
	RecipeCategoryID *uint             `gorm:"index"`
	RecipeCategory   *RecipeCategory   `gorm:"constraint:OnDelete:SET NULL"`
	Components       []RecipeComponent `gorm:"foreignKey:RecipeID;references:FoodID;constraint:OnDelete:CASCADE"`
}

// RecipeComponent is one product line of a recipe. (recipe, product) is unique.
type RecipeComponent struct {
	ID        uint     `gorm:"primaryKey"`
	RecipeID  uint     `gorm:"not null;uniqueIndex:idx_recipe_product"`
	ProductID *uint    `gorm:"uniqueIndex:idx_recipe_product"`
	Product   *Product `gorm:"foreignKey:ProductID;references:FoodID;constraint:OnDelete:SET NULL"`
	Mass      float64  `gorm:"not null"`
	Position  int      `gorm:"not null;default:0"`
}

func (RecipeComponent) TableName() string { return "recipe_products" }
