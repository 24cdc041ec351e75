package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"trip-planner/pkg/utils"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	TripSummaryTmpl     *template.Template
	TripSummaryTextTmpl *texttemplate.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	summaryTmpl, err := template.New("tripSummary").Parse(tripSummaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("email.NewTemplateManager: %w", err)
	}

	summaryText, err := texttemplate.New("tripSummaryText").Funcs(texttemplate.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(tripSummaryTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("email.NewTemplateManager: %w", err)
	}

	utils.Logger.Debug("Email templates parsed successfully.")
	return &TemplateManager{
		TripSummaryTmpl:     summaryTmpl,
		TripSummaryTextTmpl: summaryText,
	}, nil
}

// DayLine is one day of the trip as listed in the summary.
type DayLine struct {
	Day       int
	Distance  string
	DriveTime string
	TotalTime string
	PDFURL    string
}

// TripSummaryData holds the dynamic data for the trip summary email.
type TripSummaryData struct {
	Route         string // "pickup → dropoff"
	Instructions  []string
	TotalDistance string
	TotalTime     string
	Compliance    string
	Violation     bool
	Days          []DayLine
}

// GenerateTripSummaryEmail executes both summary templates and returns the
// HTML and plain text bodies.
func (tm *TemplateManager) GenerateTripSummaryEmail(data TripSummaryData) (htmlBody, textBody string, err error) {
	var h, t bytes.Buffer
	if err := tm.TripSummaryTmpl.Execute(&h, data); err != nil {
		return "", "", fmt.Errorf("email.GenerateTripSummaryEmail html: %w", err)
	}
	if err := tm.TripSummaryTextTmpl.Execute(&t, data); err != nil {
		return "", "", fmt.Errorf("email.GenerateTripSummaryEmail text: %w", err)
	}
	return h.String(), t.String(), nil
}

// --- Template Definitions ---

const tripSummaryTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Your Trip Plan</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Trip Plan: {{.Route}}</h2>
	<p><strong>Total Distance:</strong> {{.TotalDistance}} miles</p>
	<p><strong>Total Time:</strong> {{.TotalTime}} hours</p>
	<p><strong>Compliance:</strong> <span style="color: {{if .Violation}}#dc2626{{else}}#16a34a{{end}};">{{.Compliance}}</span></p>
	<h3>Route Instructions</h3>
	<ol>
	{{range .Instructions}}<li>{{.}}</li>
	{{end}}</ol>
	{{if .Days}}<h3>Daily Logs</h3>
	<ul>
	{{range .Days}}<li>Day {{.Day}}: {{.Distance}} miles, {{.DriveTime}} h driving, {{.TotalTime}} h on duty{{if .PDFURL}} (<a href="{{.PDFURL}}">PDF</a>){{end}}</li>
	{{end}}</ul>{{end}}
</body>
</html>
`

const tripSummaryTextTemplate = `Trip Plan: {{.Route}}

Total Distance: {{.TotalDistance}} miles
Total Time: {{.TotalTime}} hours
Compliance: {{.Compliance}}

Route Instructions:
{{range $i, $line := .Instructions}}{{inc $i}}. {{$line}}
{{end}}{{if .Days}}
Daily Logs:
{{range .Days}}Day {{.Day}}: {{.Distance}} miles, {{.DriveTime}} h driving, {{.TotalTime}} h on duty{{if .PDFURL}} {{.PDFURL}}{{end}}
{{end}}{{end}}`
