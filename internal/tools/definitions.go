package tools

import (
	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/models"
)

// Function names of the catalog.
const (
	FnGetInventory            = "getInventory"
	FnSearchInventoryByName   = "searchInventoryByName"
	FnGetInventorySummary     = "getInventorySummary"
	FnGetInventoryAlerts      = "getInventoryAlerts"
	FnSearchIngredients       = "searchIngredients"
	FnAddToInventory          = "addToInventory"
	FnRemoveFromInventory     = "removeFromInventory"
	FnGetAppliances           = "getAppliances"
	FnCheckAppliance          = "checkAppliance"
	FnAddAppliance            = "addAppliance"
	FnRemoveAppliance         = "removeAppliance"
	FnSearchRecipes           = "searchRecipes"
	FnGetRecipeDetails        = "getRecipeDetails"
	FnGetRecipesByIngredients = "getRecipesByIngredients"
	FnCheckRecipeIngredients  = "checkRecipeIngredients"
	FnOpenRecipe              = "openRecipe"
	FnCalculateNutrition      = "calculateNutrition"
	FnScalePortions           = "scalePortions"
)

type schema = map[string]interface{}

func object(props schema, required ...string) schema {
	s := schema{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) schema { return schema{"type": "string", "description": desc} }
func num(desc string) schema { return schema{"type": "number", "description": desc} }

func enum(desc string, values ...string) schema {
	return schema{"type": "string", "description": desc, "enum": values}
}

func list(desc string, items schema) schema {
	return schema{"type": "array", "description": desc, "items": items}
}

func locationNames() []string {
	out := make([]string, len(models.Locations))
	for i, l := range models.Locations {
		out[i] = string(l)
	}
	return out
}

// definitions declares every function the model may call.
func definitions() []ai.ToolDefinition {
	locations := locationNames()
	return []ai.ToolDefinition{
		{
			Name:        FnGetInventory,
			Description: "Obtiene el inventario completo del usuario con ingredientes, cantidades y ubicaciones.",
			Parameters: object(schema{
				"location": enum("Filtrar por ubicación de almacenamiento (opcional).", locations...),
			}),
		},
		{
			Name:        FnSearchInventoryByName,
			Description: "Busca en el inventario del usuario un ingrediente por nombre. Úsala para saber si el usuario tiene algo y cuánto.",
			Parameters: object(schema{
				"ingredientName": str("Nombre del ingrediente, en singular (ej. 'tomate')."),
			}, "ingredientName"),
		},
		{
			Name:        FnGetInventorySummary,
			Description: "Resumen del inventario: total de artículos y conteo por ubicación.",
			Parameters:  object(schema{}),
		},
		{
			Name:        FnGetInventoryAlerts,
			Description: "Ingredientes por caducar o con poca cantidad.",
			Parameters:  object(schema{}),
		},
		{
			Name:        FnSearchIngredients,
			Description: "Busca ingredientes en el catálogo para obtener su ingredientId antes de agregarlos al inventario.",
			Parameters: object(schema{
				"query":    str("Texto a buscar."),
				"category": str("Categoría del ingrediente (opcional)."),
			}, "query"),
		},
		{
			Name:        FnAddToInventory,
			Description: "Agrega un ingrediente al inventario. Antes busca el ingredientId con searchIngredients. Si falta la ubicación, pregunta '¿Dónde?' antes de llamarla.",
			Parameters: object(schema{
				"ingredientId":   str("ID del ingrediente obtenido con searchIngredients."),
				"quantity":       num("Cantidad."),
				"unit":           str("Unidad (piezas, g, kg, ml, l, tazas...)."),
				"location":       enum("Dónde se almacenará.", locations...),
				"expirationDate": str("Fecha de caducidad YYYY-MM-DD (opcional)."),
				"brand":          str("Marca (opcional)."),
				"notes":          str("Notas (opcional)."),
			}, "ingredientId", "quantity", "unit", "location"),
		},
		{
			Name:        FnRemoveFromInventory,
			Description: "Quita un artículo del inventario o resta una cantidad.",
			Parameters: object(schema{
				"itemId":   str("ID del artículo del inventario."),
				"quantity": num("Cantidad a restar; si se omite se elimina el artículo."),
			}, "itemId"),
		},
		{
			Name:        FnGetAppliances,
			Description: "Lista los electrodomésticos y utensilios del usuario.",
			Parameters: object(schema{
				"category": str("Categoría (opcional)."),
			}),
		},
		{
			Name:        FnCheckAppliance,
			Description: "Verifica si el usuario tiene un electrodoméstico.",
			Parameters: object(schema{
				"name": str("Nombre del electrodoméstico (ej. 'horno')."),
			}, "name"),
		},
		{
			Name:        FnAddAppliance,
			Description: "Registra un electrodoméstico nuevo.",
			Parameters: object(schema{
				"name":     str("Nombre."),
				"category": str("Categoría (opcional)."),
			}, "name"),
		},
		{
			Name:        FnRemoveAppliance,
			Description: "Elimina un electrodoméstico registrado.",
			Parameters: object(schema{
				"applianceId": str("ID del electrodoméstico."),
			}, "applianceId"),
		},
		{
			Name:        FnSearchRecipes,
			Description: "Busca recetas por nombre, descripción o etiqueta.",
			Parameters: object(schema{
				"query": str("Texto a buscar."),
			}, "query"),
		},
		{
			Name:        FnGetRecipeDetails,
			Description: "Obtiene los ingredientes y pasos de una receta.",
			Parameters: object(schema{
				"recipeId": str("ID de la receta."),
			}, "recipeId"),
		},
		{
			Name:        FnGetRecipesByIngredients,
			Description: "Recetas que se pueden preparar con los ingredientes indicados.",
			Parameters: object(schema{
				"ingredientIds":         list("IDs de ingredientes disponibles.", str("ID de ingrediente.")),
				"maxMissingIngredients": num("Máximo de ingredientes faltantes permitidos (por defecto 2)."),
			}, "ingredientIds"),
		},
		{
			Name:        FnCheckRecipeIngredients,
			Description: "Compara los ingredientes de una receta con el inventario y dice cuáles faltan.",
			Parameters: object(schema{
				"recipeId": str("ID de la receta."),
			}, "recipeId"),
		},
		{
			Name:        FnOpenRecipe,
			Description: "Abre la página de una receta en la aplicación.",
			Parameters: object(schema{
				"recipeId": str("ID de la receta."),
			}, "recipeId"),
		},
		{
			Name:        FnCalculateNutrition,
			Description: "Calcula calorías y macronutrientes aproximados de una lista de ingredientes en gramos.",
			Parameters: object(schema{
				"ingredients": list("Ingredientes.", object(schema{
					"name":  str("Nombre del ingrediente."),
					"grams": num("Gramos."),
				}, "name", "grams")),
			}, "ingredients"),
		},
		{
			Name:        FnScalePortions,
			Description: "Ajusta las cantidades de una lista de ingredientes a otro número de porciones.",
			Parameters: object(schema{
				"ingredients": list("Ingredientes.", object(schema{
					"name":     str("Nombre."),
					"quantity": num("Cantidad original."),
					"unit":     str("Unidad."),
				}, "name", "quantity")),
				"fromServings": num("Porciones originales."),
				"toServings":   num("Porciones deseadas."),
			}, "ingredients", "fromServings", "toServings"),
		},
	}
}
