package models

// FormFieldUpdate is the body of a single field update.
type FormFieldUpdate struct {
	Name  string `json:"name" validate:"required,oneof=current_location pickup_location dropoff_location cycle_used"`
	Value string `json:"value"`
}

// TripForm is the submitted trip form as the browser sends it. The bounds on
// cycle_used mirror the number input's min/max/step attributes.
type TripForm struct {
	CurrentLocation string `json:"current_location" form:"current_location" validate:"required"`
	PickupLocation  string `json:"pickup_location" form:"pickup_location" validate:"required"`
	DropoffLocation string `json:"dropoff_location" form:"dropoff_location" validate:"required"`
	CycleUsed       string `json:"cycle_used" form:"cycle_used" validate:"required,cycle_hours"`
}

// EmailSummaryRequest asks for the displayed trip result to be e-mailed.
type EmailSummaryRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}
