package models

import "gorm.io/gorm"

// Appliance is a kitchen appliance or utensil the user owns.
type Appliance struct {
	gorm.Model
	Name     string `json:"name" gorm:"index"`
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`
}
