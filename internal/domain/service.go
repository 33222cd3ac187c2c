package domain

import (
	"github.com/shopspring/decimal"
)

// Service represents a salon service from the catalog
type Service struct {
	ID              int64
	CategoryID      *int64
	CategoryName    string
	Name            string
	Price           decimal.Decimal
	DurationMinutes int
	IsActive        bool
}

// IsBookable returns true if the service can be booked
func (s *Service) IsBookable() bool {
	return s.IsActive && s.DurationMinutes > 0 && !s.Price.IsNegative()
}

// Totals is the derived duration and price of a set of services
type Totals struct {
	DurationMinutes int
	Price           decimal.Decimal
}

// CalculateTotals sums duration and price over the given services
func CalculateTotals(services []*Service) Totals {
	totals := Totals{Price: decimal.Zero}
	for _, s := range services {
		if s == nil {
			continue
		}
		totals.DurationMinutes += s.DurationMinutes
		totals.Price = totals.Price.Add(s.Price)
	}
	return totals
}

// ServicesByID indexes services by id
func ServicesByID(services []*Service) map[int64]*Service {
	byID := make(map[int64]*Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	return byID
}
