package generate_slots

import (
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
)

// Plan слоты, которые должны существовать в диапазоне дат
type Plan struct {
	Slots          []domain.AppointmentSlot
	DatesProcessed int
	ClosedDates    int
}

// PlanSlots строит слоты для каждой даты [from, to] включительно.
// Дата без правила или с закрытым правилом пропускается.
// На каждый часовой период открытого дня создается по слоту на каждую услугу.
func PlanSlots(hours domain.BusinessHours, services []*domain.Service, from, to time.Time) Plan {
	from, to = domain.DateOf(from), domain.DateOf(to)

	bookable := make([]*domain.Service, 0, len(services))
	for _, s := range services {
		if s != nil && s.IsBookable() {
			bookable = append(bookable, s)
		}
	}

	plan := Plan{Slots: make([]domain.AppointmentSlot, 0)}
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		plan.DatesProcessed++

		rule, ok := hours.RuleFor(date)
		if !ok || !rule.IsOpenForBooking() {
			plan.ClosedDates++
			continue
		}

		for _, period := range rule.SlotPeriods() {
			for _, s := range bookable {
				plan.Slots = append(plan.Slots, domain.AppointmentSlot{
					ServiceID:   s.ID,
					Date:        date,
					StartTime:   period.Start,
					EndTime:     period.End,
					IsAvailable: true,
				})
			}
		}
	}

	return plan
}
