package planner

import (
	"fmt"
	"strconv"
	"strings"

	"trip-planner/internal/models"
)

// Form field names, as used in the HTML form and the backend payload.
const (
	FieldCurrentLocation = "current_location"
	FieldPickupLocation  = "pickup_location"
	FieldDropoffLocation = "dropoff_location"
	FieldCycleUsed       = "cycle_used"
)

// FormFields holds the trip form exactly as typed.
type FormFields struct {
	CurrentLocation string `json:"current_location"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	CycleUsed       string `json:"cycle_used"`
}

// With returns a copy of f with the named field replaced. ok is false for an
// unknown name, in which case f is returned unchanged.
func (f FormFields) With(name, value string) (FormFields, bool) {
	switch name {
	case FieldCurrentLocation:
		f.CurrentLocation = value
	case FieldPickupLocation:
		f.PickupLocation = value
	case FieldDropoffLocation:
		f.DropoffLocation = value
	case FieldCycleUsed:
		f.CycleUsed = value
	default:
		return f, false
	}
	return f, true
}

// TripRequest converts the form into the wire payload.
func (f FormFields) TripRequest() (models.TripRequest, error) {
	cycle, err := strconv.ParseFloat(strings.TrimSpace(f.CycleUsed), 64)
	if err != nil {
		return models.TripRequest{}, fmt.Errorf("planner.TripRequest: cycle_used %q: %w", f.CycleUsed, err)
	}
	return models.TripRequest{
		CurrentLocation: f.CurrentLocation,
		PickupLocation:  f.PickupLocation,
		DropoffLocation: f.DropoffLocation,
		CycleUsed:       cycle,
	}, nil
}

// Phase is the user-visible condition of the workflow.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseFailed    Phase = "error"
	PhaseSucceeded Phase = "success"
)

// State is an immutable snapshot of one session's trip workflow. It is only
// ever replaced by Reduce, never edited in place.
type State struct {
	Fields     FormFields         `json:"fields"`
	Result     *models.TripResult `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	Loading    bool               `json:"loading"`
	Generation uint64             `json:"generation"`
}

// Phase derives the visible phase. Loading wins over anything else.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseFailed
	case s.Result != nil:
		return PhaseSucceeded
	default:
		return PhaseIdle
	}
}

// Event is anything that moves the workflow from one state to the next.
type Event interface {
	isEvent()
}

// FieldChanged overwrites a single form field.
type FieldChanged struct {
	Name  string
	Value string
}

// SubmitStarted opens a new submission with the given generation.
type SubmitStarted struct {
	Generation uint64
}

// SubmitSucceeded resolves the submission of Generation with a result.
type SubmitSucceeded struct {
	Generation uint64
	Result     *models.TripResult
}

// SubmitFailed resolves the submission of Generation with a display message.
type SubmitFailed struct {
	Generation uint64
	Message    string
}

func (FieldChanged) isEvent()    {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Reduce is the single transition function of the workflow.
//
// Completion events for any generation other than the current one belong to
// a superseded submission and leave the state untouched, so only the most
// recently issued submission can resolve the visible state.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case FieldChanged:
		if fields, ok := s.Fields.With(ev.Name, ev.Value); ok {
			s.Fields = fields
		}
		return s

	case SubmitStarted:
		return State{
			Fields:     s.Fields,
			Loading:    true,
			Generation: ev.Generation,
		}

	case SubmitSucceeded:
		if !s.Loading || ev.Generation != s.Generation {
			return s
		}
		return State{
			Fields:     s.Fields,
			Result:     ev.Result,
			Generation: s.Generation,
		}

	case SubmitFailed:
		if !s.Loading || ev.Generation != s.Generation {
			return s
		}
		msg := ev.Message
		if msg == "" {
			msg = models.GenericErrorMessage
		}
		return State{
			Fields:     s.Fields,
			Error:      msg,
			Generation: s.Generation,
		}
	}
	return s
}
