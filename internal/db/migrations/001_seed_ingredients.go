package migrations

import (
	"github.com/lib/pq"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// baseIngredients is the starter catalog. Nutrition is per 100 g.
var baseIngredients = []models.Ingredient{
	{Name: "tomate", Category: "verduras", DefaultUnit: "pieza", Aliases: pq.StringArray{"jitomate", "tomates"}, Calories: 18, Protein: 0.9, Carbs: 3.9, Fat: 0.2},
	{Name: "cebolla", Category: "verduras", DefaultUnit: "pieza", Aliases: pq.StringArray{"cebollas"}, Calories: 40, Protein: 1.1, Carbs: 9.3, Fat: 0.1},
	{Name: "ajo", Category: "verduras", DefaultUnit: "diente", Aliases: pq.StringArray{"ajos"}, Calories: 149, Protein: 6.4, Carbs: 33, Fat: 0.5},
	{Name: "papa", Category: "verduras", DefaultUnit: "pieza", Aliases: pq.StringArray{"patata", "papas"}, Calories: 77, Protein: 2, Carbs: 17, Fat: 0.1},
	{Name: "zanahoria", Category: "verduras", DefaultUnit: "pieza", Aliases: pq.StringArray{"zanahorias"}, Calories: 41, Protein: 0.9, Carbs: 10, Fat: 0.2},
	{Name: "aguacate", Category: "frutas", DefaultUnit: "pieza", Aliases: pq.StringArray{"palta"}, Calories: 160, Protein: 2, Carbs: 8.5, Fat: 14.7},
	{Name: "limón", Category: "frutas", DefaultUnit: "pieza", Aliases: pq.StringArray{"limon", "limones"}, Calories: 29, Protein: 1.1, Carbs: 9.3, Fat: 0.3},
	{Name: "arroz", Category: "granos", DefaultUnit: "g", Calories: 365, Protein: 7.1, Carbs: 80, Fat: 0.7},
	{Name: "frijol negro", Category: "legumbres", DefaultUnit: "g", Aliases: pq.StringArray{"frijoles", "alubias negras"}, Calories: 132, Protein: 8.9, Carbs: 24, Fat: 0.5},
	{Name: "harina de trigo", Category: "granos", DefaultUnit: "g", Aliases: pq.StringArray{"harina"}, Calories: 364, Protein: 10, Carbs: 76, Fat: 1},
	{Name: "huevo", Category: "lácteos y huevo", DefaultUnit: "pieza", Aliases: pq.StringArray{"huevos", "blanquillo"}, Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
	{Name: "leche", Category: "lácteos y huevo", DefaultUnit: "ml", Calories: 42, Protein: 3.4, Carbs: 5, Fat: 1},
	{Name: "mantequilla", Category: "lácteos y huevo", DefaultUnit: "g", Calories: 717, Protein: 0.9, Carbs: 0.1, Fat: 81},
	{Name: "pechuga de pollo", Category: "carnes", DefaultUnit: "g", Aliases: pq.StringArray{"pollo"}, Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	{Name: "aceite de oliva", Category: "aceites", DefaultUnit: "ml", Aliases: pq.StringArray{"aceite"}, Calories: 884, Protein: 0, Carbs: 0, Fat: 100},
	{Name: "azúcar", Category: "endulzantes", DefaultUnit: "g", Aliases: pq.StringArray{"azucar"}, Calories: 387, Protein: 0, Carbs: 100, Fat: 0},
	{Name: "sal", Category: "especias", DefaultUnit: "g", Calories: 0, Protein: 0, Carbs: 0, Fat: 0},
	{Name: "albahaca", Category: "hierbas", DefaultUnit: "hoja", Calories: 23, Protein: 3.2, Carbs: 2.7, Fat: 0.6},
}

// SeedIngredients inserts the starter catalog. Ingredients that already
// exist by name are left untouched, so the seed is idempotent.
func SeedIngredients(db *gorm.DB) error {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, ing := range baseIngredients {
			ing := ing
			res := tx.Where(models.Ingredient{Name: ing.Name}).FirstOrCreate(&ing)
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if created > 0 {
		logger.Get().Info("seeded ingredient catalog", zap.Int("created", created))
	}
	return nil
}
