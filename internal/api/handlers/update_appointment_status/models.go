package update_appointment_status

import (
	"strings"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/types"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string  `json:"status"`         // confirmed | completed | cancelled
	Time   *string `json:"time,omitempty"` // новое время при подтверждении
}

// Parse возвращает целевой статус и время
func (r *UpdateStatusRequest) Parse() (domain.AppointmentStatus, *types.TimeString, error) {
	status := domain.AppointmentStatus(strings.ToLower(strings.TrimSpace(r.Status)))

	if r.Time == nil || strings.TrimSpace(*r.Time) == "" {
		return status, nil, nil
	}

	t, err := types.NewTimeStringFromString(strings.TrimSpace(*r.Time))
	if err != nil {
		return "", nil, err
	}
	return status, &t, nil
}
