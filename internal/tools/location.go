package tools

import (
	"strings"

	"github.com/windoze95/reme-voice/internal/models"
)

var locationSynonyms = map[string]models.StorageLocation{
	"refrigerador": models.LocationFridge,
	"refri":        models.LocationFridge,
	"refrigerator": models.LocationFridge,
	"nevera":       models.LocationFridge,
	"fridge":       models.LocationFridge,
	"congelador":   models.LocationFreezer,
	"freezer":      models.LocationFreezer,
	"alacena":      models.LocationPantry,
	"despensa":     models.LocationPantry,
	"pantry":       models.LocationPantry,
}

// NormalizeLocation maps a spoken storage location to its canonical value.
func NormalizeLocation(s string) (models.StorageLocation, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "el ")
	key = strings.TrimPrefix(key, "la ")
	loc, ok := locationSynonyms[key]
	return loc, ok
}
