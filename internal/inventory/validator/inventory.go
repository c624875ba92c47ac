package validator

import (
	"errors"
	"fmt"
	"staybook/pkg/model"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type InventoryValidator struct {
	validate *validator.Validate
}

func NewInventoryValidator() *InventoryValidator {
	return &InventoryValidator{validate: validator.New()}
}

// ParseUpdate validates an owner override and converts it to UTC days.
func (v *InventoryValidator) ParseUpdate(req *model.InventoryUpdateRequest) (*model.InventoryUpdate, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, translateValidationErrors(validationErrs)
		}
		return nil, err
	}

	if req.Closed == nil && req.SurgeFactor == nil {
		return nil, ValidationErrors{{Field: "Closed", Message: "one of closed or surge_factor is required"}}
	}

	start, _ := time.Parse(time.DateOnly, req.StartDate)
	end, _ := time.Parse(time.DateOnly, req.EndDate)
	if start.After(end) {
		return nil, ValidationErrors{{Field: "EndDate", Message: "end_date must not be before start_date"}}
	}

	return &model.InventoryUpdate{
		StartDate:   start,
		EndDate:     end,
		Closed:      req.Closed,
		SurgeFactor: req.SurgeFactor,
	}, nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}
		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}
