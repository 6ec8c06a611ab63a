package models

// Taxon is the shape shared by the catalog taxonomy tables.
type Taxon struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:64;not null" json:"title"`
}

type ProductCategory Taxon

type ProductBrand Taxon

type RecipeCategory Taxon
