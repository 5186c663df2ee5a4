// Package web serves the top-colleges page.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nonsonwune/collegerank/loader"
	"github.com/nonsonwune/collegerank/models"
	"github.com/nonsonwune/collegerank/plot"
	"github.com/nonsonwune/collegerank/ranking"
)

//go:embed templates/index.html
var templateFS embed.FS

// Form holds the submitted fields as typed by the user.
type Form struct {
	State     string
	Parameter string
	GraphType string
}

// Page is the data behind index.html.
type Page struct {
	Form      Form
	Metrics   []string
	Kinds     []plot.Kind
	Submitted bool
	Results   *models.Table
	Chart     template.URL
	Message   string
	Error     string
}

// Server handles the single page of the application.
type Server struct {
	source loader.Source
	log    *zap.SugaredLogger
	tmpl   *template.Template
}

func NewServer(source loader.Source, log *zap.SugaredLogger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{source: source, log: log, tmpl: tmpl}, nil
}

// Handler returns the routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	page := &Page{
		Kinds: plot.Kinds(),
		Form:  Form{GraphType: plot.KindLine.String()},
	}
	status := http.StatusOK
	defer func() {
		s.log.Infow("request",
			"method", r.Method,
			"state", page.Form.State,
			"parameter", page.Form.Parameter,
			"rows", page.Results.Len(),
			"chart", page.Chart != "",
			"status", status,
			"duration", time.Since(start))
	}()

	table := s.loadTable(r)
	if table != nil {
		page.Metrics = table.MetricColumns()
	}

	if r.Method == http.MethodPost {
		status = s.submit(r, table, page)
	}
	s.render(w, page, status)
}

// loadTable returns nil when the data cannot be used; the page then shows no results.
func (s *Server) loadTable(r *http.Request) *models.Table {
	table, err := s.source.Load(r.Context())
	if err != nil {
		if errors.Is(err, loader.ErrDataUnavailable) {
			s.log.Warnw("colleges data unavailable", "error", err)
		} else {
			s.log.Errorw("loading colleges data", "error", err)
		}
		return nil
	}
	if missing := table.MissingColumns(models.RequiredColumns...); len(missing) > 0 {
		s.log.Warnw("colleges data missing required columns", "missing", missing)
		return nil
	}
	return table
}

// submit runs the ranking and chart for a POST and returns the HTTP status.
func (s *Server) submit(r *http.Request, table *models.Table, page *Page) int {
	page.Submitted = true
	if err := r.ParseForm(); err != nil {
		page.Error = "The form could not be read."
		return http.StatusBadRequest
	}
	page.Form = Form{
		State:     r.PostForm.Get("state"),
		Parameter: r.PostForm.Get("parameter"),
		GraphType: r.PostForm.Get("graph_type"),
	}

	kind, err := plot.ParseKind(page.Form.GraphType)
	if err != nil {
		page.Error = fmt.Sprintf("Unsupported graph type %q.", page.Form.GraphType)
		return http.StatusBadRequest
	}
	if table == nil {
		return http.StatusOK
	}
	if !contains(page.Metrics, page.Form.Parameter) {
		page.Error = fmt.Sprintf("Unknown parameter %q.", page.Form.Parameter)
		return http.StatusBadRequest
	}

	top := ranking.TopByState(table, page.Form.State)
	if top.Len() == 0 {
		page.Message = fmt.Sprintf("No colleges found for %q.", page.Form.State)
		return http.StatusOK
	}
	page.Results = top

	img, err := plot.RenderBase64(top, plot.Options{
		XField: page.Form.Parameter,
		YField: models.ColumnCollegeName,
		Title:  plot.TitleFor(page.Form.Parameter, page.Form.State),
		XLabel: page.Form.Parameter,
		YLabel: models.ColumnCollegeName,
		Kind:   kind,
	})
	switch {
	case errors.Is(err, plot.ErrNoNumericValues):
		page.Message = fmt.Sprintf("No numeric %s values to chart for these colleges.", page.Form.Parameter)
		return http.StatusOK
	case err != nil:
		s.log.Errorw("rendering chart", "parameter", page.Form.Parameter, "error", err)
		page.Results = nil
		page.Error = "The chart could not be generated."
		return http.StatusInternalServerError
	}

	page.Chart = template.URL("data:image/png;base64," + img)
	return http.StatusOK
}

func (s *Server) render(w http.ResponseWriter, page *Page, status int) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, page); err != nil {
		s.log.Errorw("executing template", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
