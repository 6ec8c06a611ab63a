package services

import (
	"context"
	"sort"
	"strings"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodModeration holds the fields only staff may write. It is ignored for
// any other principal and never applied on create.
type FoodModeration struct {
	IsPublic   *bool `json:"is_public"`
	IsVerified *bool `json:"is_verified"`
	UserID     *uint `json:"user"`
}

func (m FoodModeration) apply(tx *gorm.DB, f *models.Food) error {
	if m.IsPublic != nil {
		f.IsPublic = *m.IsPublic
	}
	if m.IsVerified != nil {
		f.IsVerified = *m.IsVerified
	}
	if m.UserID != nil {
		if err := ensureExists(tx, &models.User{}, string(policy.User), m.UserID); err != nil {
			return err
		}
		f.UserID = m.UserID
	}
	return nil
}

// ProductInput carries the nutrients as pointers so that a missing value
// can be told apart from zero. Ethanol defaults to 0.
type ProductInput struct {
	Name              string   `json:"name"`
	Calories          *float64 `json:"calories"`
	Proteins          *float64 `json:"proteins"`
	Fats              *float64 `json:"fats"`
	Carbs             *float64 `json:"carbs"`
	Ethanol           *float64 `json:"ethanol"`
	NetGrams          *float64 `json:"net_grams"`
	DrainedGrams      *float64 `json:"drained_grams"`
	ProductCategoryID *uint    `json:"product_category"`
	ProductBrandID    *uint    `json:"product_brand"`
}

// ProductPatch updates only the non-nil fields.
type ProductPatch struct {
	Name              *string  `json:"name"`
	Calories          *float64 `json:"calories"`
	Proteins          *float64 `json:"proteins"`
	Fats              *float64 `json:"fats"`
	Carbs             *float64 `json:"carbs"`
	Ethanol           *float64 `json:"ethanol"`
	NetGrams          *float64 `json:"net_grams"`
	DrainedGrams      *float64 `json:"drained_grams"`
	ProductCategoryID *uint    `json:"product_category"`
	ProductBrandID    *uint    `json:"product_brand"`
	FoodModeration
}

type ComponentInput struct {
	ProductID uint    `json:"product"`
	Mass      float64 `json:"mass"`
}

type RecipeInput struct {
	Name             string           `json:"name"`
	Directions       string           `json:"directions"`
	Mass             float64          `json:"mass"`
	RecipeCategoryID *uint            `json:"recipe_category"`
	Components       []ComponentInput `json:"products"`
}

// RecipePatch updates only the non-nil fields. A nil Components keeps the
// current component list.
type RecipePatch struct {
	Name             *string          `json:"name"`
	Directions       *string          `json:"directions"`
	Mass             *float64         `json:"mass"`
	RecipeCategoryID *uint            `json:"recipe_category"`
	Components       []ComponentInput `json:"products"`
	FoodModeration
}

const minRecipeComponents = 2

type CatalogService struct {
	db     *gorm.DB
	notify *Notifier
}

func NewCatalogService(db *gorm.DB, n *Notifier) *CatalogService {
	return &CatalogService{db: db, notify: n}
}

// ---------- products ----------

func (s *CatalogService) ListProducts(ctx context.Context, p policy.Principal) ([]ProductSummary, error) {
	if err := policy.Authorize(p, policy.List, policy.Product); err != nil {
		return nil, err
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Food").Order("food_id").Find(&products).Error; err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(products))
	for i := range products {
		out = append(out, NewProductSummary(&products[i]))
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, p policy.Principal, id uint) (*ProductView, error) {
	if err := policy.AuthorizeObject(p, policy.Retrieve, policy.Product, nil); err != nil {
		return nil, err
	}
	prod, err := loadProduct(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	v := NewProductView(prod)
	return &v, nil
}

// profile reports every missing required nutrient on v.
func (in ProductInput) profile(v *apperr.ValidationError) models.NutrientProfile {
	required := func(field string, val *float64) float64 {
		if val == nil {
			v.Add(field, "this field is required")
			return 0
		}
		return *val
	}
	p := models.NutrientProfile{
		Calories: required("calories", in.Calories),
		Proteins: required("proteins", in.Proteins),
		Fats:     required("fats", in.Fats),
		Carbs:    required("carbs", in.Carbs),
	}
	if in.Ethanol != nil {
		p.Ethanol = *in.Ethanol
	}
	return p
}

func (s *CatalogService) CreateProduct(ctx context.Context, p policy.Principal, in ProductInput) (*ProductView, error) {
	if err := policy.Authorize(p, policy.Create, policy.Product); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	checkName(v, "name", in.Name)
	nutrients := in.profile(v)
	checkPer100(v, nutrients)
	checkNonNegative(v, "net_grams", in.NetGrams)
	checkNonNegative(v, "drained_grams", in.DrainedGrams)
	if err := v.Err(); err != nil {
		return nil, err
	}

	owner := p.UserID
	prod := models.Product{
		Food: models.Food{
			Name:            strings.TrimSpace(in.Name),
			NutrientProfile: utils.RoundProfile(nutrients),
			FoodTypeID:      models.FoodTypeProduct,
			UserID:          &owner,
		},
		NetGrams:          in.NetGrams,
		DrainedGrams:      in.DrainedGrams,
		ProductCategoryID: in.ProductCategoryID,
		ProductBrandID:    in.ProductBrandID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.ProductCategory{}, string(policy.ProductCategory), in.ProductCategoryID); err != nil {
			return err
		}
		if err := ensureExists(tx, &models.ProductBrand{}, string(policy.ProductBrand), in.ProductBrandID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&prod.Food).Error; err != nil {
			return translateDBError(err, string(policy.Product), 0)
		}
		prod.FoodID = prod.Food.ID
		return translateDBError(tx.Omit(clause.Associations).Create(&prod).Error, string(policy.Product), prod.FoodID)
	})
	if err != nil {
		return nil, err
	}
	view := NewProductView(&prod)
	return &view, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p policy.Principal, id uint, patch ProductPatch) (*ProductView, error) {
	var prod *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if prod, err = loadProduct(tx, id); err != nil {
			return err
		}
		if err := policy.AuthorizeObject(p, policy.Update, policy.Product, prod.Food.UserID); err != nil {
			return err
		}

		f := &prod.Food
		if patch.Name != nil {
			f.Name = strings.TrimSpace(*patch.Name)
		}
		setFloat(&f.Calories, patch.Calories)
		setFloat(&f.Proteins, patch.Proteins)
		setFloat(&f.Fats, patch.Fats)
		setFloat(&f.Carbs, patch.Carbs)
		setFloat(&f.Ethanol, patch.Ethanol)
		if patch.NetGrams != nil {
			prod.NetGrams = patch.NetGrams
		}
		if patch.DrainedGrams != nil {
			prod.DrainedGrams = patch.DrainedGrams
		}

		v := &apperr.ValidationError{}
		checkName(v, "name", f.Name)
		checkPer100(v, f.NutrientProfile)
		checkNonNegative(v, "net_grams", prod.NetGrams)
		checkNonNegative(v, "drained_grams", prod.DrainedGrams)
		if err := v.Err(); err != nil {
			return err
		}
		f.NutrientProfile = utils.RoundProfile(f.NutrientProfile)

		if patch.ProductCategoryID != nil {
			if err := ensureExists(tx, &models.ProductCategory{}, string(policy.ProductCategory), patch.ProductCategoryID); err != nil {
				return err
			}
			prod.ProductCategoryID = patch.ProductCategoryID
		}
		if patch.ProductBrandID != nil {
			if err := ensureExists(tx, &models.ProductBrand{}, string(policy.ProductBrand), patch.ProductBrandID); err != nil {
				return err
			}
			prod.ProductBrandID = patch.ProductBrandID
		}
		if policy.ViewFor(p, policy.Product, policy.Update) == policy.ViewStaff {
			if err := patch.FoodModeration.apply(tx, f); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(f).Error; err != nil {
			return translateDBError(err, string(policy.Product), id)
		}
		return translateDBError(tx.Omit(clause.Associations).Save(prod).Error, string(policy.Product), id)
	})
	if err != nil {
		return nil, err
	}
	s.notify.FoodModerated(ctx, p, &prod.Food)
	view := NewProductView(prod)
	return &view, nil
}

// DeleteProduct removes the product. Recipe lines and diary entries that
// referenced it keep their rows with the reference cleared.
func (s *CatalogService) DeleteProduct(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prod, err := loadProduct(tx, id)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeObject(p, policy.Delete, policy.Product, prod.Food.UserID); err != nil {
			return err
		}
		if err := tx.Model(&models.RecipeComponent{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := detachDiary(tx, id); err != nil {
			return err
		}
		if err := tx.Where("food_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Food{}, id).Error
	})
}

// ---------- recipes ----------

func (s *CatalogService) ListRecipes(ctx context.Context, p policy.Principal) ([]RecipeSummary, error) {
	if err := policy.Authorize(p, policy.List, policy.Recipe); err != nil {
		return nil, err
	}
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Preload("Food").Order("food_id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	out := make([]RecipeSummary, 0, len(recipes))
	for i := range recipes {
		out = append(out, NewRecipeSummary(&recipes[i]))
	}
	return out, nil
}

func (s *CatalogService) GetRecipe(ctx context.Context, p policy.Principal, id uint) (*RecipeView, error) {
	if err := policy.AuthorizeObject(p, policy.Retrieve, policy.Recipe, nil); err != nil {
		return nil, err
	}
	r, err := loadRecipe(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	v := NewRecipeView(r)
	return &v, nil
}

func (s *CatalogService) CreateRecipe(ctx context.Context, p policy.Principal, in RecipeInput) (*RecipeView, error) {
	if err := policy.Authorize(p, policy.Create, policy.Recipe); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	checkName(v, "name", in.Name)
	checkDirections(v, in.Directions)
	checkRecipeMass(v, in.Mass)
	checkComponents(v, in.Components)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var recipeID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.RecipeCategory{}, string(policy.RecipeCategory), in.RecipeCategoryID); err != nil {
			return err
		}
		profile, err := deriveNutrients(tx, in.Components, in.Mass)
		if err != nil {
			return err
		}
		owner := p.UserID
		food := models.Food{
			Name:            strings.TrimSpace(in.Name),
			NutrientProfile: profile,
			FoodTypeID:      models.FoodTypeRecipe,
			UserID:          &owner,
		}
		if err := tx.Omit(clause.Associations).Create(&food).Error; err != nil {
			return translateDBError(err, string(policy.Recipe), 0)
		}
		recipe := models.Recipe{
			FoodID:           food.ID,
			Directions:       in.Directions,
			Mass:             in.Mass,
			RecipeCategoryID: in.RecipeCategoryID,
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return translateDBError(err, string(policy.Recipe), food.ID)
		}
		recipeID = food.ID
		return insertComponents(tx, recipeID, in.Components)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, p, recipeID)
}

// UpdateRecipe recomputes the derived nutrients only when the component list
// or the total mass changes. Component replacement and the new nutrients are
// written in the same transaction.
func (s *CatalogService) UpdateRecipe(ctx context.Context, p policy.Principal, id uint, patch RecipePatch) (*RecipeView, error) {
	var food models.Food
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadRecipe(tx, id)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeObject(p, policy.Update, policy.Recipe, r.Food.UserID); err != nil {
			return err
		}

		current := currentComponents(r)
		next := current
		componentsChanged := patch.Components != nil && !sameComponents(current, patch.Components)
		if componentsChanged {
			next = patch.Components
		}
		mass := r.Mass
		if patch.Mass != nil {
			mass = *patch.Mass
		}
		massChanged := mass != r.Mass

		v := &apperr.ValidationError{}
		if patch.Name != nil {
			r.Food.Name = strings.TrimSpace(*patch.Name)
			checkName(v, "name", r.Food.Name)
		}
		if patch.Directions != nil {
			r.Directions = *patch.Directions
			checkDirections(v, r.Directions)
		}
		if patch.Mass != nil {
			checkRecipeMass(v, mass)
		}
		if componentsChanged || massChanged {
			checkComponents(v, next)
		}
		if err := v.Err(); err != nil {
			return err
		}

		if componentsChanged || massChanged {
			profile, err := deriveNutrients(tx, next, mass)
			if err != nil {
				return err
			}
			r.Food.NutrientProfile = profile
			r.Mass = mass
		}
		if componentsChanged {
			if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeComponent{}).Error; err != nil {
				return err
			}
			if err := insertComponents(tx, id, next); err != nil {
				return err
			}
		}

		if patch.RecipeCategoryID != nil {
			if err := ensureExists(tx, &models.RecipeCategory{}, string(policy.RecipeCategory), patch.RecipeCategoryID); err != nil {
				return err
			}
			r.RecipeCategoryID = patch.RecipeCategoryID
		}
		if policy.ViewFor(p, policy.Recipe, policy.Update) == policy.ViewStaff {
			if err := patch.FoodModeration.apply(tx, &r.Food); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(&r.Food).Error; err != nil {
			return translateDBError(err, string(policy.Recipe), id)
		}
		if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
			return translateDBError(err, string(policy.Recipe), id)
		}
		food = r.Food
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.FoodModerated(ctx, p, &food)
	return s.GetRecipe(ctx, p, id)
}

func (s *CatalogService) DeleteRecipe(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Recipe
		if err := tx.Preload("Food").First(&r, "food_id = ?", id).Error; err != nil {
			return translateDBError(err, string(policy.Recipe), id)
		}
		if err := policy.AuthorizeObject(p, policy.Delete, policy.Recipe, r.Food.UserID); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeComponent{}).Error; err != nil {
			return err
		}
		if err := detachDiary(tx, id); err != nil {
			return err
		}
		if err := tx.Where("food_id = ?", id).Delete(&models.Recipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Food{}, id).Error
	})
}

// ---------- helpers ----------

func loadProduct(db *gorm.DB, id uint) (*models.Product, error) {
	var prod models.Product
	if err := db.Preload("Food").First(&prod, "food_id = ?", id).Error; err != nil {
		return nil, translateDBError(err, string(policy.Product), id)
	}
	return &prod, nil
}

func loadRecipe(db *gorm.DB, id uint) (*models.Recipe, error) {
	var r models.Recipe
	err := db.Preload("Food").
		Preload("Components.Product.Food").
		First(&r, "food_id = ?", id).Error
	if err != nil {
		return nil, translateDBError(err, string(policy.Recipe), id)
	}
	sort.SliceStable(r.Components, func(i, j int) bool {
		return r.Components[i].Position < r.Components[j].Position
	})
	return &r, nil
}

// currentComponents returns the recipe lines whose product still exists.
func currentComponents(r *models.Recipe) []ComponentInput {
	out := make([]ComponentInput, 0, len(r.Components))
	for _, c := range r.Components {
		if c.ProductID == nil {
			continue
		}
		out = append(out, ComponentInput{ProductID: *c.ProductID, Mass: c.Mass})
	}
	return out
}

func sameComponents(a, b []ComponentInput) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func insertComponents(tx *gorm.DB, recipeID uint, comps []ComponentInput) error {
	rows := make([]models.RecipeComponent, 0, len(comps))
	for i, c := range comps {
		pid := c.ProductID
		rows = append(rows, models.RecipeComponent{RecipeID: recipeID, ProductID: &pid, Mass: c.Mass, Position: i})
	}
	err := tx.Omit(clause.Associations).Create(&rows).Error
	return translateDBError(err, "recipe products", recipeID)
}

// deriveNutrients computes a recipe's per-100 profile from the current
// profiles of its products.
func deriveNutrients(tx *gorm.DB, comps []ComponentInput, mass float64) (models.NutrientProfile, error) {
	ids := make([]uint, 0, len(comps))
	for _, c := range comps {
		ids = append(ids, c.ProductID)
	}
	var products []models.Product
	if err := tx.Preload("Food").Where("food_id IN ?", ids).Find(&products).Error; err != nil {
		return models.NutrientProfile{}, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].FoodID] = &products[i]
	}

	portions := make([]utils.Portion, 0, len(comps))
	for _, c := range comps {
		prod, ok := byID[c.ProductID]
		if !ok {
			return models.NutrientProfile{}, apperr.NotFound(string(policy.Product), c.ProductID)
		}
		portions = append(portions, utils.Portion{Profile: prod.Food.NutrientProfile, Mass: c.Mass})
	}
	profile, err := utils.WeightedAggregate(portions, mass)
	if err != nil {
		return models.NutrientProfile{}, apperr.NewValidation("mass", "ensure this value is greater than or equal to 1")
	}
	v := &apperr.ValidationError{}
	checkPer100(v, profile)
	return profile, v.Err()
}

func detachDiary(tx *gorm.DB, foodID uint) error {
	return tx.Model(&models.DiaryEntry{}).Where("food_id = ?", foodID).Update("food_id", nil).Error
}

func checkComponents(v *apperr.ValidationError, comps []ComponentInput) {
	if len(comps) < minRecipeComponents {
		v.Add("products", "at least 2 products are required")
	}
	seen := make(map[uint]bool, len(comps))
	dup, badMass := false, false
	for _, c := range comps {
		if seen[c.ProductID] {
			dup = true
		}
		seen[c.ProductID] = true
		if c.Mass <= 0 {
			badMass = true
		}
	}
	if dup {
		v.Add("products", "duplicate entries not allowed")
	}
	if badMass {
		v.Add("products", "product mass must be greater than 0")
	}
}

func checkRecipeMass(v *apperr.ValidationError, mass float64) {
	if mass < 1 {
		v.Add("mass", "ensure this value is greater than or equal to 1")
	}
}

func checkDirections(v *apperr.ValidationError, d string) {
	if strings.TrimSpace(d) == "" {
		v.Add("directions", "this field may not be blank")
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
