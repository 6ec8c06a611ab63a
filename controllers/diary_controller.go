package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

type DiaryController struct {
	Diary *services.DiaryService
}

func NewDiaryController(diary *services.DiaryService) *DiaryController {
	return &DiaryController{Diary: diary}
}

func (dc *DiaryController) List(c *gin.Context) {
	out, err := dc.Diary.ListEntries(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (dc *DiaryController) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	out, err := dc.Diary.GetEntry(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (dc *DiaryController) Create(c *gin.Context) {
	var in services.DiaryInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := dc.Diary.CreateEntry(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (dc *DiaryController) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch services.DiaryPatch
	if !bindJSON(c, &patch) {
		return
	}
	out, err := dc.Diary.UpdateEntry(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (dc *DiaryController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := dc.Diary.DeleteEntry(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
