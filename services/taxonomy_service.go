package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"gorm.io/gorm"
)

type taxonomyRef struct {
	table  string
	column string
}

type taxonomy struct {
	table      string
	dependents []taxonomyRef
}

var taxonomies = map[policy.Resource]taxonomy{
	policy.ProductCategory: {table: "product_categories", dependents: []taxonomyRef{{"products", "product_category_id"}}},
	policy.ProductBrand:    {table: "product_brands", dependents: []taxonomyRef{{"products", "product_brand_id"}}},
	policy.RecipeCategory:  {table: "recipe_categories", dependents: []taxonomyRef{{"recipes", "recipe_category_id"}}},
}

type TaxonInput struct {
	Title string `json:"title"`
}

// TaxonomyService manages product categories, product brands and recipe
// categories. All three share one row shape.
type TaxonomyService struct {
	db *gorm.DB
}

func NewTaxonomyService(db *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: db}
}

func lookupTaxonomy(res policy.Resource) (taxonomy, error) {
	t, ok := taxonomies[res]
	if !ok {
		return taxonomy{}, fmt.Errorf("%s is not a taxonomy", res)
	}
	return t, nil
}

func (s *TaxonomyService) List(ctx context.Context, p policy.Principal, res policy.Resource) ([]models.Taxon, error) {
	t, err := lookupTaxonomy(res)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.List, res); err != nil {
		return nil, err
	}
	out := []models.Taxon{}
	if err := s.db.WithContext(ctx).Table(t.table).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TaxonomyService) Get(ctx context.Context, p policy.Principal, res policy.Resource, id uint) (*models.Taxon, error) {
	t, err := lookupTaxonomy(res)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeObject(p, policy.Retrieve, res, nil); err != nil {
		return nil, err
	}
	return s.find(s.db.WithContext(ctx), t, res, id)
}

func (s *TaxonomyService) Create(ctx context.Context, p policy.Principal, res policy.Resource, in TaxonInput) (*models.Taxon, error) {
	t, err := lookupTaxonomy(res)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.Create, res); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	checkName(v, "title", in.Title)
	if err := v.Err(); err != nil {
		return nil, err
	}
	row := models.Taxon{Title: strings.TrimSpace(in.Title)}
	if err := s.db.WithContext(ctx).Table(t.table).Create(&row).Error; err != nil {
		return nil, translateDBError(err, string(res), 0)
	}
	return &row, nil
}

func (s *TaxonomyService) Update(ctx context.Context, p policy.Principal, res policy.Resource, id uint, in TaxonInput) (*models.Taxon, error) {
	t, err := lookupTaxonomy(res)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeObject(p, policy.Update, res, nil); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	checkName(v, "title", in.Title)
	if err := v.Err(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	row, err := s.find(db, t, res, id)
	if err != nil {
		return nil, err
	}
	row.Title = strings.TrimSpace(in.Title)
	if err := db.Table(t.table).Where("id = ?", id).Update("title", row.Title).Error; err != nil {
		return nil, translateDBError(err, string(res), id)
	}
	return row, nil
}

// Delete removes the row and clears the reference on every dependent.
func (s *TaxonomyService) Delete(ctx context.Context, p policy.Principal, res policy.Resource, id uint) error {
	t, err := lookupTaxonomy(res)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeObject(p, policy.Delete, res, nil); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.find(tx, t, res, id); err != nil {
			return err
		}
		for _, d := range t.dependents {
			if err := tx.Table(d.table).Where(d.column+" = ?", id).Update(d.column, nil).Error; err != nil {
				return err
			}
		}
		return tx.Table(t.table).Where("id = ?", id).Delete(&models.Taxon{}).Error
	})
}

func (s *TaxonomyService) find(db *gorm.DB, t taxonomy, res policy.Resource, id uint) (*models.Taxon, error) {
	var row models.Taxon
	if err := db.Table(t.table).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateDBError(err, string(res), id)
	}
	return &row, nil
}
