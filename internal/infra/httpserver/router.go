package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
	"github.com/bryanwahyu/pureplate/internal/middleware"
)

// AnalysisService is the part of the orchestrator the HTTP surface needs.
type AnalysisService interface {
	Analyze(ctx context.Context, query string, uc domain.UserContext) (domain.Result, error)
	AnalyzeLabel(ctx context.Context, image []byte, mimeType string, uc domain.UserContext) (domain.Result, error)
	ListHistory(limit int) []domain.Result
	ClearHistory()
	SelectFromHistory(id domain.ResultID) (domain.Result, error)
	AuditPage(ctx context.Context, page, pageSize int) ([]*domain.AuditEntry, error)
	AuditTotal(ctx context.Context, kind domain.AuditKind) (int, error)
}

// Options wires the optional parts of the router. Zero values disable them.
type Options struct {
	Logger      *zap.Logger
	Metrics     *middleware.Metrics
	RateLimiter *middleware.RateLimiter
	APIKeys     []string
	CORSOrigins []string
	Checkers    map[string]middleware.HealthChecker
	Credentials int
}

type Router struct {
	svc AnalysisService
	log *zap.Logger
}

const maxJSONBody = 1 << 20

func NewRouter(svc AnalysisService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{svc: svc, log: log}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics()
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(log))
	mux.Use(metrics.Middleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(opts.RateLimiter.Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(opts.Credentials))
	mux.Get("/metrics", metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/analyze/label", r.wrap(r.handleAnalyzeLabel))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Delete("/history", r.wrap(r.handleClearHistory))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryItem))
		rt.Get("/allergies", r.wrap(r.handleAllergies))
		rt.Get("/audit", r.wrap(r.handleAudit))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var verr *middleware.ValidationError
			switch {
			case errors.As(err, &verr),
				errors.Is(err, domain.ErrEmptyQuery),
				errors.Is(err, domain.ErrEmptyImage):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeResult marks placeholders so clients need not inspect the body.
func writeResult(w http.ResponseWriter, res domain.Result) error {
	if res.Degraded() {
		w.Header().Set("X-Analysis-Degraded", "true")
	}
	return writeJSON(w, http.StatusOK, res)
}

type analyzeRequest struct {
	Query     string   `json:"query"`
	Allergies []string `json:"allergies"`
	BMI       *struct {
		Value    float64 `json:"value"`
		Category string  `json:"category"`
	} `json:"bmi"`
}

// POST /v1/analyze
// Body: {"query": "...", "allergies": ["Peanuts"], "bmi": {"value": 22.5, "category": "Normal"}}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody)).Decode(&body); err != nil {
		return &middleware.ValidationError{Field: "body", Msg: err.Error()}
	}
	query, err := middleware.ValidateQuery(body.Query)
	if err != nil {
		return err
	}
	var value float64
	var category string
	if body.BMI != nil {
		value, category = body.BMI.Value, body.BMI.Category
	}
	uc, err := userContext(body.Allergies, value, category)
	if err != nil {
		return err
	}

	res, err := r.svc.Analyze(req.Context(), query, uc)
	if err != nil {
		return err
	}
	return writeResult(w, res)
}

// POST /v1/analyze/label (multipart: image, allergies, bmi_value, bmi_category)
func (r *Router) handleAnalyzeLabel(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, middleware.MaxImageBytes+maxJSONBody)
	if err := req.ParseMultipartForm(middleware.MaxImageBytes); err != nil {
		return &middleware.ValidationError{Field: "form", Msg: err.Error()}
	}
	f, _, err := req.FormFile("image")
	if err != nil {
		return &middleware.ValidationError{Field: "image", Msg: err.Error()}
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, middleware.MaxImageBytes+1))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	mime, err := middleware.ValidateImage(data)
	if err != nil {
		return err
	}

	var allergies []string
	for _, v := range req.MultipartForm.Value["allergies"] {
		allergies = append(allergies, strings.Split(v, ",")...)
	}
	var value float64
	if s := strings.TrimSpace(req.FormValue("bmi_value")); s != "" {
		if value, err = strconv.ParseFloat(s, 64); err != nil {
			return &middleware.ValidationError{Field: "bmi_value", Msg: err.Error()}
		}
	}
	uc, err := userContext(allergies, value, req.FormValue("bmi_category"))
	if err != nil {
		return err
	}

	res, err := r.svc.AnalyzeLabel(req.Context(), data, mime, uc)
	if err != nil {
		return err
	}
	return writeResult(w, res)
}

func userContext(allergies []string, bmiValue float64, bmiCategory string) (domain.UserContext, error) {
	canonical, err := middleware.ValidateAllergies(allergies)
	if err != nil {
		return domain.UserContext{}, err
	}
	bmi, err := middleware.ValidateBMI(bmiValue, bmiCategory)
	if err != nil {
		return domain.UserContext{}, err
	}
	return domain.UserContext{Allergies: canonical, BMI: bmi}, nil
}

// GET /v1/history?limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return &middleware.ValidationError{Field: "limit", Msg: fmt.Sprintf("%q is not a count", s)}
		}
		limit = n
	}
	return writeJSON(w, http.StatusOK, r.svc.ListHistory(limit))
}

// DELETE /v1/history
func (r *Router) handleClearHistory(w http.ResponseWriter, req *http.Request) error {
	r.svc.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/history/{id}
func (r *Router) handleHistoryItem(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ValidateResultID(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	res, err := r.svc.SelectFromHistory(id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/allergies
func (r *Router) handleAllergies(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, domain.AllergyOptions)
}

// GET /v1/audit?page=&page_size=
// X-Total-Count carries the number of entries across all pages.
func (r *Router) handleAudit(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.AuditPage(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	total, err := r.svc.AuditTotal(req.Context(), "")
	if err != nil {
		return err
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	return writeJSON(w, http.StatusOK, list)
}
