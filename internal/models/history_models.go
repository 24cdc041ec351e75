package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TripRecord is one resolved submission kept in the trip history.
type TripRecord struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       string          `json:"-"`
	CurrentLocation string          `json:"current_location"`
	PickupLocation  string          `json:"pickup_location"`
	DropoffLocation string          `json:"dropoff_location"`
	CycleUsed       string          `json:"cycle_used"`
	Succeeded       bool            `json:"succeeded"`
	TotalDistance   *float64        `json:"total_distance,omitempty"`
	TotalTime       *float64        `json:"total_time,omitempty"`
	Compliance      string          `json:"compliance,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"` // stored as JSONB
	CreatedAt       time.Time       `json:"created_at"`
}
