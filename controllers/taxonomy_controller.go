package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/services"
)

// TaxonomyController serves one taxonomy resource per handler set.
type TaxonomyController struct {
	Taxonomy *services.TaxonomyService
	Resource policy.Resource
}

func NewTaxonomyController(tax *services.TaxonomyService, res policy.Resource) *TaxonomyController {
	return &TaxonomyController{Taxonomy: tax, Resource: res}
}

type taxonRequest struct {
	Title string `json:"title" binding:"required"`
}

func (tc *TaxonomyController) List(c *gin.Context) {
	out, err := tc.Taxonomy.List(c.Request.Context(), principal(c), tc.Resource)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (tc *TaxonomyController) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := tc.Taxonomy.Get(c.Request.Context(), principal(c), tc.Resource, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (tc *TaxonomyController) Create(c *gin.Context) {
	var body taxonRequest
	if !bindJSON(c, &body) {
		return
	}
	out, err := tc.Taxonomy.Create(c.Request.Context(), principal(c), tc.Resource, services.TaxonInput{Title: body.Title})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (tc *TaxonomyController) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var body taxonRequest
	if !bindJSON(c, &body) {
		return
	}
	out, err := tc.Taxonomy.Update(c.Request.Context(), principal(c), tc.Resource, id, services.TaxonInput{Title: body.Title})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (tc *TaxonomyController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := tc.Taxonomy.Delete(c.Request.Context(), principal(c), tc.Resource, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
