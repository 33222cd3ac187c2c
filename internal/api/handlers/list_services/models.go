package list_services

import "github.com/m04kA/salon-booking/internal/domain"

// ServiceResponse услуга каталога
type ServiceResponse struct {
	ID              int64   `json:"id"`
	CategoryID      *int64  `json:"categoryId,omitempty"`
	CategoryName    *string `json:"categoryName,omitempty"`
	Name            string  `json:"name"`
	Price           string  `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// FromDomain конвертирует услуги каталога в HTTP ответ
func FromDomain(services []*domain.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		item := ServiceResponse{
			ID:              s.ID,
			CategoryID:      s.CategoryID,
			Name:            s.Name,
			Price:           s.Price.StringFixed(2),
			DurationMinutes: s.DurationMinutes,
		}
		if s.CategoryName != "" {
			name := s.CategoryName
			item.CategoryName = &name
		}
		out = append(out, item)
	}
	return out
}
