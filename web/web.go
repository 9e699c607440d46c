// Package web serves exports over HTTP.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/aerissecure/tablexport"
	"github.com/aerissecure/tablexport/xlsx"
)

// DefaultDownloadCookie is set on workbook downloads so a page can tell the
// download finished.
const DefaultDownloadCookie = "tablexport.download"

// WriteHeaders sets the headers of a workbook download.
func WriteHeaders(w http.ResponseWriter, filename, cookie string) {
	h := w.Header()
	h.Set("Content-Type", xlsx.ContentType)
	h.Set("Expires", "0")
	h.Set("Cache-Control", "must-revalidate, post-check=0, pre-check=0")
	h.Set("Pragma", "public")
	h.Set("Content-Disposition", "attachment;filename="+filename+".xlsx")
	if cookie != "" {
		http.SetCookie(w, &http.Cookie{Name: cookie, Value: "true", Path: "/"})
	}
}

// WriteWorkbook sets the download headers and streams the workbook written by
// save.
func WriteWorkbook(w http.ResponseWriter, filename, cookie string, save func(io.Writer) error) error {
	WriteHeaders(w, filename, cookie)
	return save(w)
}

// ViewFunc builds the view a request exports from. Lazy data models keep a
// loaded window that an export moves, so each call returns fresh models.
type ViewFunc func() (tablexport.View, error)

// StaticView serves the same view to every request. Use it only when the view
// holds no lazy data models.
func StaticView(v tablexport.View) ViewFunc {
	return func() (tablexport.View, error) { return v, nil }
}

// Handler exports the tables and lists of a view.
type Handler struct {
	router   *mux.Router
	views    ViewFunc
	exporter *tablexport.Exporter
	format   tablexport.Format
	log      *zap.Logger

	cookie   string
	filename string
	title    string
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithFormat sets the base format; query parameters override it per request.
func WithFormat(f tablexport.Format) Option {
	return func(h *Handler) { h.format = f }
}

// WithDownloadCookie sets the cookie name; empty disables the cookie.
func WithDownloadCookie(name string) Option {
	return func(h *Handler) { h.cookie = name }
}

// WithDefaults sets the filename and title used when a request has none.
func WithDefaults(filename, title string) Option {
	return func(h *Handler) {
		if filename != "" {
			h.filename = filename
		}
		h.title = title
	}
}

// NewHandler routes
//
//	GET /health
//	GET /export/{target}
func NewHandler(views ViewFunc, opts ...Option) *Handler {
	h := &Handler{
		router:   mux.NewRouter(),
		views:    views,
		format:   tablexport.DefaultFormat(),
		log:      zap.NewNop(),
		cookie:   DefaultDownloadCookie,
		filename: "export",
	}
	for _, o := range opts {
		o(h)
	}
	h.exporter = tablexport.New(tablexport.WithLogger(h.log.Named("exporter")))

	h.router.Use(h.logRequests)
	h.router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	h.router.HandleFunc("/export/{target}", h.handleExport).Methods(http.MethodGet)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := h.request(mux.Vars(r)["target"], q)
	if err != nil {
		h.fail(w, err)
		return
	}
	filename := q.Get("filename")
	if filename == "" {
		filename = h.filename
	}
	view, err := h.views()
	if err != nil {
		h.fail(w, fmt.Errorf("build view: %w", err))
		return
	}

	switch q.Get("format") {
	case "", "xlsx":
		var buf bytes.Buffer
		res, err := xlsx.Export(r.Context(), &buf, h.exporter, view, filename, req)
		if err != nil {
			h.fail(w, err)
			return
		}
		h.log.Debug("exported", zap.Strings("targets", res.Targets), zap.Int("rows", res.Rows))
		err = WriteWorkbook(w, filename, h.cookie, func(out io.Writer) error {
			_, err := buf.WriteTo(out)
			return err
		})
		if err != nil {
			h.log.Warn("write workbook", zap.Error(err))
		}
	case "html":
		page, _, err := xlsx.Preview(r.Context(), h.exporter, view, filename, req)
		if err != nil {
			h.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	default:
		http.Error(w, "unknown format "+strconv.Quote(q.Get("format")), http.StatusBadRequest)
	}
}

// request builds the export request from the target and query.
func (h *Handler) request(target string, q map[string][]string) (tablexport.Request, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	req := tablexport.Request{Target: target, Title: get("title")}
	if req.Title == "" {
		req.Title = h.title
	}
	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"pageOnly", &req.PageOnly},
		{"selectionOnly", &req.SelectionOnly},
		{"subTable", &req.SubTable},
	} {
		v := get(f.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, &badRequest{msg: f.key + ": " + err.Error()}
		}
		*f.dst = b
	}

	format, err := h.format.Apply(tablexport.FormatParams{
		FacetBackground: get("facetBackground"),
		FacetFontSize:   get("facetFontSize"),
		FacetFontColor:  get("facetFontColor"),
		FacetFontStyle:  get("facetFontStyle"),
		FontName:        get("fontName"),
		CellFontSize:    get("cellFontSize"),
		CellFontColor:   get("cellFontColor"),
		CellFontStyle:   get("cellFontStyle"),
		DatasetPadding:  get("datasetPadding"),
		Orientation:     get("orientation"),
	})
	if err != nil {
		return req, err
	}
	req.Format = &format
	return req, nil
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var br *badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, tablexport.ErrInvalidFormat), errors.Is(err, tablexport.ErrEmptyTarget):
		status = http.StatusBadRequest
	case errors.Is(err, tablexport.ErrComponentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tablexport.ErrUnsupportedTarget), errors.Is(err, tablexport.ErrNoSubTable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		h.log.Error("export failed", zap.Error(err))
	}
	http.Error(w, strings.TrimSpace(err.Error()), status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
