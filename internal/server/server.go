package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
	"github.com/TobiSchelling/CollectionsReport/internal/database"
	"github.com/TobiSchelling/CollectionsReport/internal/report"
	"github.com/TobiSchelling/CollectionsReport/internal/summary"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for browsing runs and the collections report.
type Server struct {
	db      *database.DB
	builder *report.Builder
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

// New creates a new Server. missingValue is rendered for absent best-contact
// fields, as in exported reports.
func New(db *database.DB, missingValue string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":        renderMarkdown,
		"formatTimestamp": database.FormatTimestamp,
		"formatDate":      func(t time.Time) string { return t.Format(database.DateLayout) },
		"shortID":         database.ShortRunID,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base with its own "title" and "content".
	pageNames := []string{"index.html", "run.html", "report.html", "account.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, builder: report.NewBuilder(missingValue), pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/runs/", s.handleRun)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/report.csv", s.handleReportCSV)
	s.mux.HandleFunc("/accounts/", s.handleAccount)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	runs, err := s.db.GetAllRuns()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs":  runs,
		"Stats": stats,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/runs/")
	if runID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	run, err := s.db.GetRun(runID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}
	rejections, err := s.db.GetRejections(runID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "run.html", map[string]any{
		"Run":        run,
		"Rejections": rejections,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	records, err := s.records()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	latest, err := s.db.GetLatestRun()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var failed *database.Run
	if latest != nil && latest.Status == database.RunFailed {
		failed = latest
	}

	s.render(w, "report.html", map[string]any{
		"Records":   records,
		"FailedRun": failed,
	})
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.records()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="collections_report.csv"`)
	if err := report.WriteCSV(w, records); err != nil {
		log.Printf("Error writing report CSV: %v", err)
	}
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimPrefix(r.URL.Path, "/accounts/")
	if accountID == "" {
		http.Redirect(w, r, "/report", http.StatusFound)
		return
	}

	account, err := s.db.GetAccount(accountID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stored, err := s.db.GetEventsForAccount(accountID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if account == nil && len(stored) == 0 {
		http.NotFound(w, r)
		return
	}
	sum, err := s.db.GetSummary(accountID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var classified []activity.ClassifiedEvent
	for _, ev := range stored {
		if ev.Classified {
			classified = append(classified, ev.ClassifiedEvent)
		}
	}

	var rec *report.Record
	if account != nil {
		row := s.builder.Record(database.ReportRow{Account: *account, Summary: sum})
		rec = &row
	}

	s.render(w, "account.html", map[string]any{
		"AccountID": accountID,
		"Account":   account,
		"Record":    rec,
		"Orphaned":  account == nil,
		"Events":    summary.Rank(classified),
	})
}

func (s *Server) records() ([]report.Record, error) {
	rows, err := s.db.GetReportRows()
	if err != nil {
		return nil, err
	}
	return s.builder.Build(rows), nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int, missingValue string) error {
	srv, err := New(db, missingValue)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
