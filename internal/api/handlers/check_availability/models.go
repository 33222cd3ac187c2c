package check_availability

// CheckAvailabilityRequest HTTP request model
type CheckAvailabilityRequest struct {
	ServiceIDs []int64 `json:"serviceIds"`
	Date       string  `json:"date"` // "2024-03-05"
	Time       string  `json:"time"` // "14:00"
}
