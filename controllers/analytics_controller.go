package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/services"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

// GetDiarySummary serves per-day totals. from and to are YYYY-MM-DD in UTC
// and default to the last seven days.
func (h *AnalyticsController) GetDiarySummary(c *gin.Context) {
	from, to := services.LastWeek(time.Now().UTC())
	if v := c.Query("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"from": []string{"invalid date, use YYYY-MM-DD"}}})
			return
		}
		from = d
	}
	if v := c.Query("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"to": []string{"invalid date, use YYYY-MM-DD"}}})
			return
		}
		to = d
	}

	out, err := h.Svc.DailyTotals(c.Request.Context(), principal(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
