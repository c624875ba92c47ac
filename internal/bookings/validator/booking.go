package validator

import (
	"errors"
	"fmt"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const MaxGuestsPerRequest = 50

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

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{validate: validator.New()}
}

// ParseRequest checks the request structure and parses its dates. Range
// and rooms checks belong to the booking service, which reports them with
// their own error codes.
func (v *BookingValidator) ParseRequest(req *model.BookingRequest) (*model.BookingInput, error) {
	req.HotelID = strings.TrimSpace(req.HotelID)
	req.RoomID = strings.TrimSpace(req.RoomID)
	if err := v.structErr(v.validate.Struct(req)); err != nil {
		return nil, err
	}

	checkIn, _ := time.Parse(time.DateOnly, req.CheckInDate)
	checkOut, _ := time.Parse(time.DateOnly, req.CheckOutDate)
	return &model.BookingInput{
		HotelID:    req.HotelID,
		RoomID:     req.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		RoomsCount: req.RoomsCount,
	}, nil
}

// NormalizeGuests sanitizes guest entries in place and validates them.
func (v *BookingValidator) NormalizeGuests(guests []model.GuestRequest) error {
	if len(guests) == 0 {
		return ValidationErrors{{Field: "Guests", Message: "at least one guest is required"}}
	}
	if len(guests) > MaxGuestsPerRequest {
		return ValidationErrors{{Field: "Guests", Message: fmt.Sprintf("at most %d guests per request", MaxGuestsPerRequest)}}
	}

	var all ValidationErrors
	for i := range guests {
		guests[i].Name = sanitizer.NormalizeGuestName(guests[i].Name)
		guests[i].Gender = sanitizer.NormalizeGender(guests[i].Gender)

		if err := v.structErr(v.validate.Struct(&guests[i])); err != nil {
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				for _, e := range verrs {
					e.Field = fmt.Sprintf("Guests[%d].%s", i, e.Field)
					all = append(all, e)
				}
				continue
			}
			return err
		}
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

func (v *BookingValidator) structErr(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return translateValidationErrors(validationErrs)
	}
	return err
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gte", "lte":
			message = fmt.Sprintf("%s is out of range", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
