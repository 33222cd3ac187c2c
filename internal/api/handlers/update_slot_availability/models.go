package update_slot_availability

// UpdateSlotAvailabilityRequest HTTP request model
type UpdateSlotAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}
