// Package web renders the server-side pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// Page template names.
const (
	PageLanding = "landing.html"
	PageForm    = "form.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer. Each page is parsed together with the
// shared layout so their blocks do not collide.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageLanding, PageForm} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("web.NewRenderer %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("web.Render: unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Feature is one card on the landing page.
type Feature struct {
	Icon        string
	Title       string
	Description string
}

// LandingPage is the data behind the landing page.
type LandingPage struct {
	Features []Feature
	Audience []string
	Year     int
}

func NewLandingPage(year int) LandingPage {
	return LandingPage{
		Features: []Feature{
			{Icon: "🚚", Title: "Route Optimization", Description: "Calculate the best routes with accurate driving times, distances, and fuel stops."},
			{Icon: "📅", Title: "HOS Compliance", Description: "Ensure compliance with Hours of Service regulations with automatic cycle tracking."},
			{Icon: "📜", Title: "Daily Logs", Description: "Generate detailed daily log sheets in PDF format for each trip day."},
		},
		Audience: []string{
			"Truck drivers managing long-haul trips and HOS compliance.",
			"Fleet managers needing to plan routes and generate logs for their drivers.",
			"Logistics companies looking to streamline trip planning and documentation.",
		},
		Year: year,
	}
}
