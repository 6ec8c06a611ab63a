package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

// FoodController serves products and recipes.
type FoodController struct {
	Catalog *services.CatalogService
}

func NewFoodController(catalog *services.CatalogService) *FoodController {
	return &FoodController{Catalog: catalog}
}

func (fc *FoodController) ListProducts(c *gin.Context) {
	out, err := fc.Catalog.ListProducts(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := fc.Catalog.GetProduct(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := fc.Catalog.CreateProduct(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (fc *FoodController) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch services.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	out, err := fc.Catalog.UpdateProduct(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := fc.Catalog.DeleteProduct(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (fc *FoodController) ListRecipes(c *gin.Context) {
	out, err := fc.Catalog.ListRecipes(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) GetRecipe(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := fc.Catalog.GetRecipe(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) CreateRecipe(c *gin.Context) {
	var in services.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := fc.Catalog.CreateRecipe(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (fc *FoodController) UpdateRecipe(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch services.RecipePatch
	if !bindJSON(c, &patch) {
		return
	}
	out, err := fc.Catalog.UpdateRecipe(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (fc *FoodController) DeleteRecipe(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := fc.Catalog.DeleteRecipe(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
