package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translateDBError maps store errors onto the apperr kinds. Errors that are
// already domain errors pass through untouched.
func translateDBError(err error, resource string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.ConflictError{Resource: resource, Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &apperr.ConflictError{Resource: resource, Err: err}
	}
	return err
}

const maxNameLength = 64

// checkName validates the trimmed name, which is what gets stored.
func checkName(v *apperr.ValidationError, field, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		v.Add(field, "this field may not be blank")
	case utf8.RuneCountInString(name) > maxNameLength:
		v.Add(field, "ensure this field has no more than 64 characters")
	}
}

var validate = validator.New()

func checkEmail(v *apperr.ValidationError, email string) {
	switch {
	case email == "":
		v.Add("email", "this field may not be blank")
	case validate.Var(email, "email") != nil:
		v.Add("email", "enter a valid email address")
	}
}

func checkPer100(v *apperr.ValidationError, p models.NutrientProfile) {
	issues := utils.Per100Violations(p)
	for _, k := range models.NutrientKeys {
		if msg, ok := issues[k]; ok {
			v.Add(k, msg)
		}
	}
}

func checkNonNegative(v *apperr.ValidationError, field string, val *float64) {
	if val != nil && *val < 0 {
		v.Add(field, "ensure this value is greater than or equal to 0")
	}
}

// ensureExists reports a NotFoundError when id does not reference a row of model.
func ensureExists(tx *gorm.DB, model any, resource string, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(resource, *id)
	}
	return nil
}
