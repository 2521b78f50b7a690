package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/models"
	"github.com/windoze95/reme-voice/internal/repository"
	"go.uber.org/zap"
)

const (
	searchLimit          = 10
	expiringWindow       = 3 * 24 * time.Hour
	defaultMaxMissing    = 2
	expirationDateLayout = "2006-01-02"
)

// Store runs the data functions against the database.
type Store struct {
	Inventory  repository.InventoryRepo
	Appliances repository.ApplianceRepo
	Recipes    repository.RecipeRepo
	Now        func() time.Time
}

// NewStore creates a Store over the given repositories.
func NewStore(inv repository.InventoryRepo, app repository.ApplianceRepo, rec repository.RecipeRepo) *Store {
	return &Store{Inventory: inv, Appliances: app, Recipes: rec, Now: time.Now}
}

// Register installs a handler for every data function on c.
func (s *Store) Register(c *Catalog) {
	c.Register(FnGetInventory, s.getInventory)
	c.Register(FnSearchInventoryByName, s.searchInventoryByName)
	c.Register(FnGetInventorySummary, s.getInventorySummary)
	c.Register(FnGetInventoryAlerts, s.getInventoryAlerts)
	c.Register(FnSearchIngredients, s.searchIngredients)
	c.Register(FnAddToInventory, s.addToInventory)
	c.Register(FnRemoveFromInventory, s.removeFromInventory)
	c.Register(FnGetAppliances, s.getAppliances)
	c.Register(FnCheckAppliance, s.checkAppliance)
	c.Register(FnAddAppliance, s.addAppliance)
	c.Register(FnRemoveAppliance, s.removeAppliance)
	c.Register(FnSearchRecipes, s.searchRecipes)
	c.Register(FnGetRecipeDetails, s.getRecipeDetails)
	c.Register(FnGetRecipesByIngredients, s.getRecipesByIngredients)
	c.Register(FnCheckRecipeIngredients, s.checkRecipeIngredients)
	c.Register(FnOpenRecipe, s.openRecipe)
	c.Register(FnCalculateNutrition, NutritionHandler(s.nutritionLookup))
}

// parseID validates a database id argument.
func parseID(args Args, key string) (uint, bool) {
	raw := args.String(key)
	if !govalidator.IsInt(raw) {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Store) dbError(fn string, err error) Result {
	if repository.IsNotFound(err) {
		return Fail("%s", err.Error())
	}
	logger.Get().Error("tool database call failed", zap.String("function", fn), zap.Error(err))
	return Fail("error al consultar la base de datos")
}

func itemView(it models.InventoryItem) map[string]interface{} {
	v := map[string]interface{}{
		"id":             strconv.FormatUint(uint64(it.ID), 10),
		"ingredientId":   strconv.FormatUint(uint64(it.IngredientID), 10),
		"ingredientName": it.Ingredient.Name,
		"quantity":       it.Quantity,
		"unit":           it.Unit,
		"location":       string(it.Location),
	}
	if it.ExpirationDate != nil {
		v["expirationDate"] = it.ExpirationDate.Format(expirationDateLayout)
	}
	if it.Brand != "" {
		v["brand"] = it.Brand
	}
	return v
}

func itemViews(items []models.InventoryItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, itemView(it))
	}
	return out
}

func (s *Store) getInventory(ctx context.Context, args Args) Result {
	var loc models.StorageLocation
	if raw := args.String("location"); raw != "" {
		var ok bool
		if loc, ok = NormalizeLocation(raw); !ok {
			return Fail("ubicación inválida: %s (usa Refrigerador, Congelador o Alacena)", raw)
		}
	}
	items, err := s.Inventory.ListInventory(ctx, loc)
	if err != nil {
		return s.dbError(FnGetInventory, err)
	}
	return OK(map[string]interface{}{
		"items":      itemViews(items),
		"totalItems": len(items),
	})
}

func (s *Store) searchInventoryByName(ctx context.Context, args Args) Result {
	name := args.String("ingredientName")
	if name == "" {
		return Fail("falta el nombre del ingrediente")
	}
	items, err := s.Inventory.SearchInventoryByName(ctx, name)
	if err != nil {
		return s.dbError(FnSearchInventoryByName, err)
	}
	return OK(map[string]interface{}{
		"query":      name,
		"items":      itemViews(items),
		"totalItems": len(items),
	})
}

func (s *Store) getInventorySummary(ctx context.Context, _ Args) Result {
	items, err := s.Inventory.ListInventory(ctx, "")
	if err != nil {
		return s.dbError(FnGetInventorySummary, err)
	}
	byLocation := make(map[string]int, len(models.Locations))
	for _, l := range models.Locations {
		byLocation[string(l)] = 0
	}
	for _, it := range items {
		byLocation[string(it.Location)]++
	}
	return OK(map[string]interface{}{
		"totalItems": len(items),
		"byLocation": byLocation,
	})
}

func (s *Store) getInventoryAlerts(ctx context.Context, _ Args) Result {
	items, err := s.Inventory.ListInventory(ctx, "")
	if err != nil {
		return s.dbError(FnGetInventoryAlerts, err)
	}
	now := s.Now()
	alerts := []map[string]interface{}{}
	for _, it := range items {
		switch {
		case it.ExpiresWithin(now, 0):
			alerts = append(alerts, alert("expired", it))
		case it.ExpiresWithin(now, expiringWindow):
			alerts = append(alerts, alert("expiring", it))
		case it.IsLow():
			alerts = append(alerts, alert("low", it))
		}
	}
	return OK(map[string]interface{}{"alerts": alerts})
}

func alert(kind string, it models.InventoryItem) map[string]interface{} {
	v := itemView(it)
	v["alert"] = kind
	return v
}

func (s *Store) searchIngredients(ctx context.Context, args Args) Result {
	query := args.String("query")
	if query == "" {
		return Fail("falta el texto a buscar")
	}
	found, err := s.Inventory.SearchIngredients(ctx, query, args.String("category"), searchLimit)
	if err != nil {
		return s.dbError(FnSearchIngredients, err)
	}
	results := make([]map[string]interface{}, 0, len(found))
	for _, ing := range found {
		results = append(results, map[string]interface{}{
			"ingredientId": strconv.FormatUint(uint64(ing.ID), 10),
			"name":         ing.Name,
			"category":     ing.Category,
			"defaultUnit":  ing.DefaultUnit,
		})
	}
	return OK(map[string]interface{}{"results": results})
}

func (s *Store) addToInventory(ctx context.Context, args Args) Result {
	ingredientID, ok := parseID(args, "ingredientId")
	if !ok {
		return Fail("ingredientId inválido; búscalo primero con searchIngredients")
	}
	quantity, ok := args.Float("quantity")
	if !ok || quantity <= 0 {
		return Fail("la cantidad debe ser mayor a cero")
	}
	unit := args.String("unit")
	if unit == "" {
		return Fail("falta la unidad")
	}
	loc, ok := NormalizeLocation(args.String("location"))
	if !ok {
		return Fail("falta la ubicación; pregunta al usuario dónde la guardará")
	}

	item := &models.InventoryItem{
		IngredientID: ingredientID,
		Quantity:     quantity,
		Unit:         unit,
		Location:     loc,
		Brand:        args.String("brand"),
		Notes:        args.String("notes"),
	}
	if raw := args.String("expirationDate"); raw != "" {
		if !govalidator.IsTime(raw, expirationDateLayout) {
			return Fail("fecha de caducidad inválida: %s (usa AAAA-MM-DD)", raw)
		}
		exp, _ := time.Parse(expirationDateLayout, raw)
		item.ExpirationDate = &exp
	}

	ing, err := s.Inventory.GetIngredientByID(ctx, ingredientID)
	if err != nil {
		return s.dbError(FnAddToInventory, err)
	}
	if err := s.Inventory.AddInventoryItem(ctx, item); err != nil {
		return s.dbError(FnAddToInventory, err)
	}
	item.Ingredient = *ing
	return OK(map[string]interface{}{"item": itemView(*item)})
}

func (s *Store) removeFromInventory(ctx context.Context, args Args) Result {
	id, ok := parseID(args, "itemId")
	if !ok {
		return Fail("itemId inválido")
	}
	item, err := s.Inventory.GetInventoryItem(ctx, id)
	if err != nil {
		return s.dbError(FnRemoveFromInventory, err)
	}

	if q, ok := args.Float("quantity"); ok && q > 0 && q < item.Quantity {
		remaining := item.Quantity - q
		if err := s.Inventory.UpdateInventoryQuantity(ctx, id, remaining); err != nil {
			return s.dbError(FnRemoveFromInventory, err)
		}
		return OK(map[string]interface{}{
			"itemId":    args.String("itemId"),
			"removed":   false,
			"remaining": remaining,
			"unit":      item.Unit,
		})
	}

	if err := s.Inventory.DeleteInventoryItem(ctx, id); err != nil {
		return s.dbError(FnRemoveFromInventory, err)
	}
	return OK(map[string]interface{}{
		"itemId":  args.String("itemId"),
		"removed": true,
	})
}

func applianceView(a models.Appliance) map[string]interface{} {
	return map[string]interface{}{
		"id":       strconv.FormatUint(uint64(a.ID), 10),
		"name":     a.Name,
		"category": a.Category,
	}
}

func (s *Store) getAppliances(ctx context.Context, args Args) Result {
	list, err := s.Appliances.ListAppliances(ctx, args.String("category"))
	if err != nil {
		return s.dbError(FnGetAppliances, err)
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, a := range list {
		out = append(out, applianceView(a))
	}
	return OK(map[string]interface{}{"appliances": out, "total": len(out)})
}

func (s *Store) checkAppliance(ctx context.Context, args Args) Result {
	name := args.String("name")
	if name == "" {
		return Fail("falta el nombre del electrodoméstico")
	}
	a, err := s.Appliances.FindApplianceByName(ctx, name)
	if repository.IsNotFound(err) {
		return OK(map[string]interface{}{"name": name, "hasAppliance": false})
	}
	if err != nil {
		return s.dbError(FnCheckAppliance, err)
	}
	return OK(map[string]interface{}{
		"name":         name,
		"hasAppliance": true,
		"appliance":    applianceView(*a),
	})
}

func (s *Store) addAppliance(ctx context.Context, args Args) Result {
	name := args.String("name")
	if name == "" {
		return Fail("falta el nombre del electrodoméstico")
	}
	a := &models.Appliance{Name: name, Category: args.String("category")}
	if err := s.Appliances.AddAppliance(ctx, a); err != nil {
		return s.dbError(FnAddAppliance, err)
	}
	return OK(map[string]interface{}{"appliance": applianceView(*a)})
}

func (s *Store) removeAppliance(ctx context.Context, args Args) Result {
	id, ok := parseID(args, "applianceId")
	if !ok {
		return Fail("applianceId inválido")
	}
	if err := s.Appliances.DeleteAppliance(ctx, id); err != nil {
		return s.dbError(FnRemoveAppliance, err)
	}
	return OK(map[string]interface{}{"applianceId": args.String("applianceId"), "removed": true})
}

func recipeView(r models.Recipe) map[string]interface{} {
	return map[string]interface{}{
		"id":           strconv.FormatUint(uint64(r.ID), 10),
		"name":         r.Name,
		"description":  r.Description,
		"servings":     r.Servings,
		"totalMinutes": r.TotalMinutes,
		"difficulty":   r.Difficulty,
	}
}

func (s *Store) searchRecipes(ctx context.Context, args Args) Result {
	query := args.String("query")
	if query == "" {
		return Fail("falta el texto a buscar")
	}
	found, err := s.Recipes.SearchRecipes(ctx, query, searchLimit)
	if err != nil {
		return s.dbError(FnSearchRecipes, err)
	}
	out := make([]map[string]interface{}, 0, len(found))
	for _, r := range found {
		out = append(out, recipeView(r))
	}
	return OK(map[string]interface{}{"recipes": out})
}

func (s *Store) getRecipeDetails(ctx context.Context, args Args) Result {
	id, ok := parseID(args, "recipeId")
	if !ok {
		return Fail("recipeId inválido")
	}
	r, err := s.Recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return s.dbError(FnGetRecipeDetails, err)
	}
	v := recipeView(*r)
	ings := make([]map[string]interface{}, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ings = append(ings, map[string]interface{}{
			"name":     ri.Ingredient.Name,
			"quantity": ri.Quantity,
			"unit":     ri.Unit,
			"optional": ri.Optional,
		})
	}
	v["recipeIngredients"] = ings
	v["steps"] = r.Steps
	v["requiredAppliances"] = []string(r.RequiredAppliances)
	return OK(map[string]interface{}{"recipe": v})
}

func (s *Store) getRecipesByIngredients(ctx context.Context, args Args) Result {
	raw := args.Strings("ingredientIds")
	if len(raw) == 0 {
		return Fail("se requiere al menos un ingredientId")
	}
	have := make(map[uint]bool, len(raw))
	for _, r := range raw {
		if !govalidator.IsInt(r) {
			return Fail("ingredientId inválido: %s", r)
		}
		id, _ := strconv.ParseUint(r, 10, 64)
		have[uint(id)] = true
	}
	maxMissing := args.Int("maxMissingIngredients", defaultMaxMissing)

	all, err := s.Recipes.ListRecipesWithIngredients(ctx)
	if err != nil {
		return s.dbError(FnGetRecipesByIngredients, err)
	}
	out := []map[string]interface{}{}
	for _, r := range all {
		missing := missingIngredients(r, have)
		if len(missing) > maxMissing {
			continue
		}
		v := recipeView(r)
		v["missingIngredients"] = missing
		out = append(out, v)
	}
	return OK(map[string]interface{}{"recipes": out})
}

func missingIngredients(r models.Recipe, have map[uint]bool) []string {
	missing := []string{}
	for _, ri := range r.Ingredients {
		if ri.Optional || have[ri.IngredientID] {
			continue
		}
		missing = append(missing, ri.Ingredient.Name)
	}
	return missing
}

func (s *Store) checkRecipeIngredients(ctx context.Context, args Args) Result {
	id, ok := parseID(args, "recipeId")
	if !ok {
		return Fail("recipeId inválido")
	}
	r, err := s.Recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return s.dbError(FnCheckRecipeIngredients, err)
	}
	items, err := s.Inventory.ListInventory(ctx, "")
	if err != nil {
		return s.dbError(FnCheckRecipeIngredients, err)
	}
	have := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			have[it.IngredientID] = true
		}
	}
	missing := missingIngredients(*r, have)
	return OK(map[string]interface{}{
		"recipeId":           args.String("recipeId"),
		"recipeName":         r.Name,
		"missingIngredients": missing,
		"canCook":            len(missing) == 0,
	})
}

func (s *Store) openRecipe(ctx context.Context, args Args) Result {
	id, ok := parseID(args, "recipeId")
	if !ok {
		return Fail("recipeId inválido")
	}
	r, err := s.Recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return s.dbError(FnOpenRecipe, err)
	}
	return OK(map[string]interface{}{
		"route":      "/recipes/" + args.String("recipeId"),
		"recipeName": r.Name,
	})
}

func (s *Store) nutritionLookup(ctx context.Context, names []string) map[string]Nutrients {
	found, err := s.Inventory.FindIngredientsByNames(ctx, names)
	if err != nil {
		logger.Get().Warn("nutrition lookup failed, using reference table", zap.Error(err))
		return nil
	}
	out := make(map[string]Nutrients, len(found))
	for _, ing := range found {
		if ing.Calories == 0 && ing.Protein == 0 && ing.Carbs == 0 && ing.Fat == 0 {
			continue
		}
		out[nutritionKey(ing.Name)] = Nutrients{
			Calories: ing.Calories,
			Protein:  ing.Protein,
			Carbs:    ing.Carbs,
			Fat:      ing.Fat,
		}
	}
	return out
}
