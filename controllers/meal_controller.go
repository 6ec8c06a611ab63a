package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

type MealController struct {
	Meals *services.MealService
}

func NewMealController(meals *services.MealService) *MealController {
	return &MealController{Meals: meals}
}

type mealRequest struct {
	Name string `json:"name" binding:"required"`
}

func (mc *MealController) List(c *gin.Context) {
	meals, err := mc.Meals.ListMeals(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (mc *MealController) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	meal, err := mc.Meals.GetMeal(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (mc *MealController) Create(c *gin.Context) {
	var body mealRequest
	if !bindJSON(c, &body) {
		return
	}
	meal, err := mc.Meals.CreateMeal(c.Request.Context(), principal(c), services.MealInput{Name: body.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (mc *MealController) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var body mealRequest
	if !bindJSON(c, &body) {
		return
	}
	meal, err := mc.Meals.UpdateMeal(c.Request.Context(), principal(c), id, services.MealInput{Name: body.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (mc *MealController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := mc.Meals.DeleteMeal(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
