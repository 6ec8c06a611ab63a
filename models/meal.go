package models

import "time"

// Meal is a named container (breakfast, lunch, ...) owned by one user.
type Meal struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:64;not null" json:"name"`
	UserID uint   `gorm:"index;not null" json:"user"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// DiaryEntry records a consumed mass of a food. Nutrients is a snapshot
// scaled to Mass at write time; later edits to the food do not touch it.
type DiaryEntry struct {
	ID        uint            `gorm:"primaryKey"`
	Mass      float64         `gorm:"not null"`
	Nutrients NutrientProfile `gorm:"embedded;embeddedPrefix:calc_"`
	UserID    uint            `gorm:"index;not null"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE"`
	MealID    *uint           `gorm:"index"`
	Meal      *Meal           `gorm:"constraint:OnDelete:SET NULL"`
	FoodID    *uint           `gorm:"index"`
	Food      *Food           `gorm:"constraint:OnDelete:SET NULL"`
	AddedDate time.Time       `gorm:"index;not null"`
}

func (DiaryEntry) TableName() string { return "diary" }
