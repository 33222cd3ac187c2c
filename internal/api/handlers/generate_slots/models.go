package generate_slots

import (
	"github.com/m04kA/salon-booking/internal/domain"
	generateSlots "github.com/m04kA/salon-booking/internal/usecase/generate_slots"
)

// GenerateSlotsRequest HTTP request model, все поля необязательные
type GenerateSlotsRequest struct {
	From       *string `json:"from,omitempty"` // "2024-03-05"
	Days       int     `json:"days,omitempty"`
	Regenerate bool    `json:"regenerate,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *GenerateSlotsRequest) ToUseCaseRequest() (*generateSlots.Request, error) {
	req := &generateSlots.Request{
		Days:       r.Days,
		Regenerate: r.Regenerate,
	}
	if r.From != nil && *r.From != "" {
		from, err := domain.ParseDate(*r.From)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}
	return req, nil
}
