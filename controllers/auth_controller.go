package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email,max=255"`
	Username        string `json:"username" binding:"required,max=255"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterRequest
	if !bindJSON(c, &input) {
		return
	}
	user, err := ac.Auth.Register(c.Request.Context(), principal(c), services.RegisterInput(input))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginRequest
	if !bindJSON(c, &input) {
		return
	}
	res, err := ac.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
