// Package ui serves the QC dashboard: section verdicts, trend charts
// and the rendered compliance report. Read-only glue over the core.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goqc/domain/core"
	"goqc/internal/report"
	"goqc/internal/session"
	"goqc/internal/trending"
	"goqc/ports"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router      *chi.Mux
	store       *session.Store
	verdicts    ports.VerdictRepository
	trends      ports.TrendSource
	synthesizer *report.Synthesizer
	templates   *template.Template
}

// NewApp creates the UI application
func NewApp(store *session.Store, verdicts ports.VerdictRepository, trends ports.TrendSource, synthesizer *report.Synthesizer) (*App, error) {
	funcMap := template.FuncMap{
		"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:      chi.NewRouter(),
		store:       store,
		verdicts:    verdicts,
		trends:      trends,
		synthesizer: synthesizer,
		templates:   templates,
	}
	app.routes()
	return app, nil
}

func (a *App) routes() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)

	a.router.Get("/", a.handleDashboard)
	a.router.Get("/trends/{parameter}", a.handleTrend)
	a.router.Get("/report", a.handleReport)
}

// Router returns the chi router for mounting
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	verdicts, err := a.verdicts.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to load verdicts", http.StatusInternalServerError)
		return
	}
	params, err := a.trends.Parameters(r.Context())
	if err != nil {
		log.Printf("[UI] failed to list trend parameters: %v", err)
	}

	data := map[string]interface{}{
		"Facility":   a.store.Facility(),
		"Verdicts":   verdicts,
		"Parameters": params,
	}
	a.render(w, "dashboard.html", data)
}

func (a *App) handleTrend(w http.ResponseWriter, r *http.Request) {
	parameter := core.ParameterID(chi.URLParam(r, "parameter"))
	series, err := a.trends.Series(r.Context(), parameter)
	if err != nil {
		http.Error(w, "unknown parameter", http.StatusNotFound)
		return
	}
	summary, err := trending.Analyze(series)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	data := map[string]interface{}{
		"Series":  series,
		"Summary": summary,
	}
	a.render(w, "trend.html", data)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	verdicts, err := a.verdicts.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to load verdicts", http.StatusInternalServerError)
		return
	}
	params := report.Params{
		ReportType: "Annual QC Summary",
		Period:     time.Now().Format("2006"),
		Date:       time.Now(),
		Physicist:  a.store.Facility().Physicist,
	}
	body, err := a.synthesizer.RenderHTML(params, a.store.Facility(), verdicts)
	if err != nil {
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		// The body is produced by our own markdown renderer from our
		// own template, not from user input.
		"Body": template.HTML(body),
	}
	a.render(w, "report.html", data)
}

func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[UI] template %s failed: %v", name, err)
	}
}
