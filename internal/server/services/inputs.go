// Package services contains server-side business logic: the course
// coordinator that keeps courses, distributions and users consistent, the
// read-only queries, reconciliation and the supporting user, distribution,
// sample-data and plan-export services.
package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/go-playground/validator/v10"
)

// inputValidate checks service inputs. Field names in errors are the json
// names callers send.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New(validator.WithRequiredStructEnabled())
	inputValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = inputValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// AddCourseInput is the payload of AddCourse.
type AddCourseInput struct {
	UserID          string   `json:"user_id" validate:"required,notblank"`
	DistributionIDs []string `json:"distribution_ids" validate:"dive,required"`
	Title           string   `json:"title" validate:"max=256"`
	Number          string   `json:"number" validate:"max=64"`
	Term            string   `json:"term" validate:"max=32"`
	Year            string   `json:"year" validate:"required,notblank,max=32"`
	Credits         float64  `json:"credits" validate:"gt=0"`
	Taken           bool     `json:"taken"`
}

func (in *AddCourseInput) Validate() error {
	return validationError(inputValidate.Struct(in))
}

// CreateDistributionInput is the payload of DistributionService.Create.
type CreateDistributionInput struct {
	UserID   string  `json:"user_id" validate:"required,notblank"`
	Name     string  `json:"name" validate:"required,max=128"`
	Required float64 `json:"required" validate:"gte=0"`
}

func (in *CreateDistributionInput) Validate() error {
	return validationError(inputValidate.Struct(in))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(msgs, "; "))
}
