package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

// userID resolves :id, where "me" names the caller.
func userID(c *gin.Context) (uint, bool) {
	if c.Param("id") == "me" {
		return principal(c).UserID, true
	}
	return idParam(c)
}

func (uc *UserController) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	user, err := uc.Users.GetUser(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var patch services.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := uc.Users.UpdateUser(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
