package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalizeRequest обрезает пробелы в текстовых полях
func normalizeRequest(req *Request) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Message != nil {
		msg := strings.TrimSpace(*req.Message)
		if msg == "" {
			req.Message = nil
		} else {
			req.Message = &msg
		}
	}
	if req.Time != nil {
		if req.Time.IsZero() {
			req.Time = nil
		} else {
			normalized := req.Time.Normalize()
			req.Time = &normalized
		}
	}
}

// validateRequest валидирует входные данные до любых изменений.
// now - текущее время в часовом поясе салона.
func validateRequest(req *Request, now time.Time) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	// Проверяем, что дата указана и не в прошлом
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	today := domain.DateOf(now)
	if domain.DateOf(req.Date).Before(today) {
		return fmt.Errorf("%w: date %s is in the past", ErrInvalidInput, req.Date.Format(domain.DateFormat))
	}

	// Валидируем формат времени
	if req.Time != nil {
		if err := req.Time.Validate(); err != nil {
			return fmt.Errorf("%w: invalid time format: %v", ErrInvalidInput, err)
		}
		// На сегодня можно записаться только на время, которое еще не наступило
		if domain.DateOf(req.Date).Equal(today) && !req.Time.IsAfter(types.NewTimeString(now)) {
			return fmt.Errorf("%w: time %s today has already passed", ErrInvalidInput, req.Time)
		}
	}

	return nil
}

// describe переводит ошибки валидатора в читаемое сообщение
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "email is not a valid address"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "gt":
		return fmt.Sprintf("%s must be positive", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
