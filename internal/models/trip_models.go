package models

// TripRequest is the wire payload sent to the trip-planning backend.
type TripRequest struct {
	CurrentLocation string  `json:"current_location"`
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	CycleUsed       float64 `json:"cycle_used"`
}

// Coordinate is a [latitude, longitude] pair as the backend encodes it.
type Coordinate [2]float64

func (c Coordinate) Lat() float64 { return c[0] }
func (c Coordinate) Lng() float64 { return c[1] }

// ELDLog summarises one day of the generated electronic log.
type ELDLog struct {
	Day       int     `json:"day"`
	Distance  float64 `json:"distance"`
	DriveTime float64 `json:"drive_time"`
	TotalTime float64 `json:"total_time"`
	Image     string  `json:"image"` // path relative to the API origin
}

// DailyLog references the downloadable log sheet for one day.
type DailyLog struct {
	Day int    `json:"day"`
	PDF string `json:"pdf"` // path relative to the API origin
}

// TripResult is the backend's answer to a TripRequest. It is never mutated
// after it has been decoded.
type TripResult struct {
	RouteInstructions []string     `json:"route_instructions"`
	TotalDistance     float64      `json:"total_distance"` // miles
	TotalTime         float64      `json:"total_time"`     // hours
	Compliance        string       `json:"compliance"`
	Coordinates       []Coordinate `json:"coordinates"`
	ELDLogs           []ELDLog     `json:"eld_logs"`
	DailyLogs         []DailyLog   `json:"daily_logs"`
}

// BackendErrorBody is the optional body the backend sends with a failure.
type BackendErrorBody struct {
	Error string `json:"error"`
}
