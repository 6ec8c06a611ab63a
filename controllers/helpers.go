package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/middlewares"
	"github.com/maskyy/caketruth/policy"
)

// respondError renders err according to its apperr kind.
func respondError(c *gin.Context, err error) {
	var (
		verr     *apperr.ValidationError
		denied   *apperr.PermissionDeniedError
		notFound *apperr.NotFoundError
		conflict *apperr.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Reason})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		log.Printf("[%s] %s %s: %v", c.GetString(middlewares.RequestIDKey), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	fields := map[string][]string{}
	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
	case errors.As(err, &typeErr):
		fields[typeErr.Field] = []string{fmt.Sprintf("expected a %s", typeErr.Type)}
	case errors.Is(err, io.EOF):
		fields["non_field_errors"] = []string{"request body is empty"}
	default:
		fields["non_field_errors"] = []string{err.Error()}
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func principal(c *gin.Context) policy.Principal {
	v, _ := c.Get(middlewares.PrincipalKey)
	p, _ := v.(policy.Principal)
	return p
}

// idParam parses the :id path segment. Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}
