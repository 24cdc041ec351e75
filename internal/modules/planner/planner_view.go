package planner

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"trip-planner/internal/models"

	"github.com/umahmood/haversine"
)

// Marker labels by coordinate position.
const (
	MarkerStart   = "Start"
	MarkerPickup  = "Pickup"
	MarkerDropoff = "Dropoff"
)

// CSS treatments for the compliance line.
const (
	ComplianceClassViolation = "text-red-500"
	ComplianceClassCompliant = "text-green-500"
)

// FormatOneDecimal renders a number the way every figure on the result page
// is shown: fixed point, one decimal place. A value exactly halfway between
// two tenths rounds away from zero (7.25 is "7.3"); everything else rounds
// to nearest.
func FormatOneDecimal(v float64) string {
	if isTenthsTie(v) {
		v = math.Copysign(math.Ceil(math.Abs(v)*10)/10, v)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// isTenthsTie reports whether the exact binary value of v lies exactly
// halfway between two multiples of 0.1.
func isTenthsTie(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	x := new(big.Float).SetPrec(256).SetFloat64(v)
	x.Mul(x, big.NewFloat(10))
	whole, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(x, new(big.Float).SetInt(whole))
	return frac.Abs(frac).Cmp(big.NewFloat(0.5)) == 0
}

// MarkerLabel names the marker for the coordinate at index i. Only the first
// two positions are special; everything after them is a dropoff.
func MarkerLabel(i int) string {
	switch i {
	case 0:
		return MarkerStart
	case 1:
		return MarkerPickup
	default:
		return MarkerDropoff
	}
}

// DailyLogFilename is the download name suggested for a day's log sheet.
func DailyLogFilename(day int) string {
	return fmt.Sprintf("daily_log_day_%d.pdf", day)
}

type InstructionLine struct {
	Number int
	Text   string
}

type MapMarker struct {
	Label  string  `json:"label"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Detail string  `json:"detail,omitempty"`
}

// MapView is handed to the page script as JSON. Bounds is [[south, west],
// [north, east]] and is nil when there are no coordinates.
type MapView struct {
	Bounds  *[2][2]float64 `json:"bounds"`
	Path    [][2]float64   `json:"path"`
	Markers []MapMarker    `json:"markers"`
}

func (m MapView) Empty() bool { return len(m.Markers) == 0 }

type LogCard struct {
	Day       int
	Distance  string
	DriveTime string
	TotalTime string
	ImageURL  string
	ImageAlt  string
}

type DownloadLink struct {
	Day      int
	URL      string
	Filename string
	Label    string
}

// ResultView is a TripResult laid out for display.
type ResultView struct {
	Instructions    []InstructionLine
	TotalDistance   string
	TotalTime       string
	Compliance      string
	Violation       bool
	ComplianceClass string
	Map             MapView
	LogCards        []LogCard
	Downloads       []DownloadLink
}

// BuildResultView applies the rendering rules to a result. resolve turns
// backend-relative asset paths into absolute URLs.
func BuildResultView(r *models.TripResult, resolve func(string) string) *ResultView {
	if r == nil {
		return nil
	}
	if resolve == nil {
		resolve = func(s string) string { return s }
	}

	v := &ResultView{
		TotalDistance: FormatOneDecimal(r.TotalDistance),
		TotalTime:     FormatOneDecimal(r.TotalTime),
		Compliance:    r.Compliance,
		Violation:     models.IsComplianceViolation(r.Compliance),
		Map:           buildMapView(r.Coordinates),
	}
	v.ComplianceClass = ComplianceClassCompliant
	if v.Violation {
		v.ComplianceClass = ComplianceClassViolation
	}

	for i, text := range r.RouteInstructions {
		v.Instructions = append(v.Instructions, InstructionLine{Number: i + 1, Text: text})
	}
	for _, log := range r.ELDLogs {
		v.LogCards = append(v.LogCards, LogCard{
			Day:       log.Day,
			Distance:  FormatOneDecimal(log.Distance),
			DriveTime: FormatOneDecimal(log.DriveTime),
			TotalTime: FormatOneDecimal(log.TotalTime),
			ImageURL:  resolve(log.Image),
			ImageAlt:  fmt.Sprintf("ELD Log Day %d", log.Day),
		})
	}
	for _, doc := range r.DailyLogs {
		v.Downloads = append(v.Downloads, DownloadLink{
			Day:      doc.Day,
			URL:      resolve(doc.PDF),
			Filename: DailyLogFilename(doc.Day),
			Label:    fmt.Sprintf("Download Daily Log (Day %d)", doc.Day),
		})
	}
	return v
}

func buildMapView(coords []models.Coordinate) MapView {
	m := MapView{Path: [][2]float64{}, Markers: []MapMarker{}}
	if len(coords) == 0 {
		return m
	}

	south, west := coords[0].Lat(), coords[0].Lng()
	north, east := south, west
	for i, c := range coords {
		south, north = min(south, c.Lat()), max(north, c.Lat())
		west, east = min(west, c.Lng()), max(east, c.Lng())

		m.Path = append(m.Path, [2]float64{c.Lat(), c.Lng()})

		marker := MapMarker{Label: MarkerLabel(i), Lat: c.Lat(), Lng: c.Lng()}
		if i > 0 {
			prev := coords[i-1]
			mi, _ := haversine.Distance(
				haversine.Coord{Lat: prev.Lat(), Lon: prev.Lng()},
				haversine.Coord{Lat: c.Lat(), Lon: c.Lng()},
			)
			marker.Detail = fmt.Sprintf("%s mi from %s (straight line)", FormatOneDecimal(mi), MarkerLabel(i-1))
		}
		m.Markers = append(m.Markers, marker)
	}
	m.Bounds = &[2][2]float64{{south, west}, {north, east}}
	return m
}

// FormPage is everything the form template needs.
type FormPage struct {
	Fields       FormFields
	Phase        Phase
	Loading      bool
	Error        string
	Validation   string
	Result       *ResultView
	EmailEnabled bool
	EmailNotice  string
}

// BuildFormPage renders a workflow state. Loading hides both result and
// error even if a caller hands in an inconsistent state.
func BuildFormPage(s State, resolve func(string) string) FormPage {
	p := FormPage{
		Fields:  s.Fields,
		Phase:   s.Phase(),
		Loading: s.Loading,
	}
	if s.Loading {
		return p
	}
	p.Error = s.Error
	p.Result = BuildResultView(s.Result, resolve)
	return p
}
