package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/workspace"
)

// Config controls the HTTP API.
type Config struct {
	Addr        string
	MaxUploadMB int
	HeadRows    int
	Options     analysis.Options
}

// Server exposes the workspace and profiler queries over JSON.
type Server struct {
	cfg Config
	ws  *workspace.Workspace
	mux *http.ServeMux
}

// New builds a Server over ws and registers its routes.
func New(cfg Config, ws *workspace.Workspace) *Server {
	if cfg.HeadRows <= 0 {
		cfg.HeadRows = 10
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 16
	}
	s := &Server{cfg: cfg, ws: ws, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /api/datasets", s.handleList)
	s.mux.HandleFunc("GET /api/datasets/{id}", s.withTable(s.report))
	s.mux.HandleFunc("DELETE /api/datasets/{id}", s.handleRemove)
	s.mux.HandleFunc("GET /api/datasets/{id}/overview", s.withTable(overview))
	s.mux.HandleFunc("GET /api/datasets/{id}/statistics", s.withTable(statistics))
	s.mux.HandleFunc("GET /api/datasets/{id}/correlation", s.withTable(correlation))
	s.mux.HandleFunc("GET /api/datasets/{id}/columns", s.withTable(columns))
	s.mux.HandleFunc("GET /api/datasets/{id}/columns/{name}", s.withTable(columnStats))
	s.mux.HandleFunc("GET /api/datasets/{id}/head", s.withTable(s.rows(true)))
	s.mux.HandleFunc("GET /api/datasets/{id}/tail", s.withTable(s.rows(false)))
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// ServeHTTP logs each request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on http://%s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	// headroom for multipart framing; the file itself is capped by the workspace
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "no file part in request")
		return
	}
	defer f.Close()
	if hdr.Filename == "" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	d, err := s.ws.ImportReader(hdr.Filename, f, limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	t, err := s.ws.Load(d.ID, s.cfg.Options)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "uploaded",
		"dataset":  d,
		"overview": t.Overview(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"datasets": s.ws.List()})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Remove(r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tableHandler func(t *analysis.Table, r *http.Request) (any, error)

// withTable loads a fresh Table for the {id} in the path, so requests never
// share table state.
func (s *Server) withTable(h tableHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.ws.Load(r.PathValue("id"), s.cfg.Options)
		if err != nil {
			writeFailure(w, err)
			return
		}
		body, err := h(t, r)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) report(t *analysis.Table, r *http.Request) (any, error) {
	n, err := s.rowCount(r)
	if err != nil {
		return nil, err
	}
	return analysis.BuildReport(t, n), nil
}

func overview(t *analysis.Table, _ *http.Request) (any, error) {
	return t.Overview(), nil
}

func statistics(t *analysis.Table, _ *http.Request) (any, error) {
	return map[string]any{"statistics": t.Statistics()}, nil
}

func correlation(t *analysis.Table, _ *http.Request) (any, error) {
	corr, ok := t.Correlation()
	if !ok {
		return map[string]any{
			"correlation": nil,
			"reason":      fmt.Sprintf("%v: fewer than two numeric columns", analysis.ErrNotApplicable),
		}, nil
	}
	return map[string]any{"correlation": corr}, nil
}

func columns(t *analysis.Table, _ *http.Request) (any, error) {
	return map[string]any{
		"numeric_columns":     t.NumericColumns(),
		"categorical_columns": t.CategoricalColumns(),
	}, nil
}

func columnStats(t *analysis.Table, r *http.Request) (any, error) {
	return t.ColumnStats(r.PathValue("name"))
}

func (s *Server) rows(head bool) tableHandler {
	return func(t *analysis.Table, r *http.Request) (any, error) {
		n, err := s.rowCount(r)
		if err != nil {
			return nil, err
		}
		if head {
			return map[string]any{"rows": t.Head(n)}, nil
		}
		return map[string]any{"rows": t.Tail(n)}, nil
	}
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func (s *Server) rowCount(r *http.Request) (int, error) {
	q := r.URL.Query().Get("n")
	if q == "" {
		return s.cfg.HeadRows, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("invalid n: %q", q))
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps error kinds to status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		nf  *analysis.NotFoundError
		cnf *analysis.ColumnNotFoundError
		ei  *analysis.EmptyInputError
		pe  *analysis.ParseError
		ext *workspace.ExtensionError
		big *workspace.TooLargeError
		br  badRequest
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrDatasetNotFound), errors.As(err, &nf), errors.As(err, &cnf):
		status = http.StatusNotFound
	case errors.As(err, &ei), errors.As(err, &pe), errors.As(err, &ext), errors.As(err, &br):
		status = http.StatusBadRequest
	case errors.As(err, &big):
		status = http.StatusRequestEntityTooLarge
	}
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeError(w, status, err.Error())
}
