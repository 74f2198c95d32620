package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups menu items on the ordering screen. Flat, no nesting.
type Category struct {
	ID           uint           `gorm:"primaryKey" json:"id" yaml:"-"`
	Name         string         `gorm:"not null" json:"name" yaml:"name"`
	Icon         string         `json:"icon" yaml:"icon"`
	DisplayOrder int            `gorm:"not null;index" json:"displayOrder" yaml:"displayOrder"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"-"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-" yaml:"-"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// MenuItem is something that can be ordered
type MenuItem struct {
	ID             uint           `gorm:"primaryKey" json:"id" yaml:"-"`
	CategoryID     uint           `gorm:"not null;index" json:"categoryId" yaml:"-"`
	Name           string         `gorm:"not null" json:"name" yaml:"name"`
	Description    *string        `json:"description,omitempty" yaml:"description,omitempty"`
	Price          int64          `gorm:"not null" json:"price" yaml:"price"` // minor currency unit
	Available      bool           `gorm:"not null" json:"available" yaml:"available"`
	MealPrice      *int64         `json:"mealPrice,omitempty" yaml:"mealPrice,omitempty"`
	HasFlavors     bool           `json:"hasFlavors" yaml:"hasFlavors"`
	Flavors        []string       `gorm:"type:text;serializer:json" json:"flavors,omitempty" yaml:"flavors,omitempty"`
	HasMealOption  bool           `json:"hasMealOption" yaml:"hasMealOption"`
	HasSpicyOption bool           `json:"hasSpicyOption" yaml:"hasSpicyOption"`
	HasToppings    bool           `json:"hasToppings" yaml:"hasToppings"`
	Toppings       []string       `gorm:"type:text;serializer:json" json:"toppings,omitempty" yaml:"toppings,omitempty"`
	ImageKey       *string        `json:"imageKey,omitempty" yaml:"-"`        // storage key of the uploaded image
	ImageURL       *string        `gorm:"-" json:"imageUrl,omitempty" yaml:"-"` // computed on read
	CreatedAt      time.Time      `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time      `json:"updatedAt" yaml:"-"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-" yaml:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
