package add_appointment_service

// AddServiceRequest HTTP request model
type AddServiceRequest struct {
	ServiceID int64 `json:"serviceId"`
}
