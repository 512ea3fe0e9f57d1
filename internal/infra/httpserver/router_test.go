package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pureplate/internal/application"
	"github.com/bryanwahyu/pureplate/internal/application/analysis"
	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/credentials"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/prompt"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/prompt/prompttest"
	"github.com/bryanwahyu/pureplate/internal/middleware"
)

type stubReasoner struct {
	mu    sync.Mutex
	calls int
	err   error
	last  domain.Instruction
}

func (s *stubReasoner) Generate(_ context.Context, _ domain.Credential, in domain.Instruction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = in
	if s.err != nil {
		return "", s.err
	}
	return prompttest.SampleResponse("Energy Drink", "Peanuts")
}

type stubAudit struct{ entries []*domain.AuditEntry }

func (a *stubAudit) Record(_ context.Context, e *domain.AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubAudit) Paginate(_ context.Context, page, pageSize int) ([]*domain.AuditEntry, error) {
	if page > 1 {
		return []*domain.AuditEntry{}, nil
	}
	return a.entries, nil
}

func (a *stubAudit) Count(_ context.Context, kind domain.AuditKind) (int, error) {
	n := 0
	for _, e := range a.entries {
		if kind == "" || e.Kind == kind {
			n++
		}
	}
	return n, nil
}

func newTestServer(t *testing.T, r *stubReasoner, opts Options) (*httptest.Server, *analysis.Service) {
	t.Helper()
	svc := &analysis.Service{
		Pool:     credentials.NewPool([]string{"k1"}),
		Builder:  prompt.NewBuilder(),
		Reasoner: r,
		History:  analysis.NewHistory(nil),
		Clock:    application.ClockFunc(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
		Audit:    &stubAudit{},
	}
	srv := httptest.NewServer(NewRouter(svc, opts))
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAnalyze_FreshThenCached(t *testing.T) {
	r := &stubReasoner{}
	srv, _ := newTestServer(t, r, Options{})

	body := `{"query":"Energy Drink","allergies":["peanuts","Soy"],"bmi":{"value":27.3,"category":"overweight"}}`
	resp := postJSON(t, srv.URL+"/v1/analyze", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[domain.Result](t, resp)
	assert.Equal(t, "Energy Drink", first.ProductName)
	assert.Equal(t, []string{"Peanuts"}, first.AllergyAlerts)
	assert.Empty(t, resp.Header.Get("X-Analysis-Degraded"))
	assert.Contains(t, r.last.System, "BMI: 27.3 (Overweight)")

	resp = postJSON(t, srv.URL+"/v1/analyze", `{"query":"energy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[domain.Result](t, resp)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, r.calls)
}

func TestAnalyze_BadInput(t *testing.T) {
	srv, _ := newTestServer(t, &stubReasoner{}, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":"   "}`},
		{"bad json", `{"query":`},
		{"unknown allergy", `{"query":"Cola","allergies":["Kryptonite"]}`},
		{"bad bmi", `{"query":"Cola","bmi":{"value":-1,"category":"Obese"}}`},
		{"query too long", fmt.Sprintf(`{"query":%q}`, strings.Repeat("a", middleware.MaxQueryLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAnalyze_DegradedIsStillOK(t *testing.T) {
	srv, svc := newTestServer(t, &stubReasoner{err: domain.ErrQuotaExceeded}, Options{})

	resp := postJSON(t, srv.URL+"/v1/analyze", `{"query":"Cola"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Analysis-Degraded"))
	res := decode[domain.Result](t, resp)
	assert.Equal(t, domain.DegradedProductName, res.ProductName)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, svc.ListHistory(0))
}

func TestAnalyzeLabel(t *testing.T) {
	r := &stubReasoner{}
	srv, _ := newTestServer(t, r, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "label.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("allergies", "Peanuts,Dairy"))
	require.NoError(t, mw.WriteField("bmi_value", "19"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/analyze/label", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[domain.Result](t, resp)
	assert.Equal(t, "Energy Drink", res.ProductName)
	assert.Equal(t, "image/png", r.last.ImageMIME)
	assert.Contains(t, r.last.System, "Allergies: Peanuts, Dairy")
	assert.Contains(t, r.last.System, "BMI: 19.0 (N/A)")
}

func TestAnalyzeLabel_RejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t, &stubReasoner{}, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("just some text"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/analyze/label", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &stubReasoner{}, Options{})

	first := decode[domain.Result](t, postJSON(t, srv.URL+"/v1/analyze", `{"query":"Energy Drink"}`))

	resp, err := http.Get(srv.URL + "/v1/history?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	list := decode[[]domain.Result](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	resp, err = http.Get(fmt.Sprintf("%s/v1/history/%d", srv.URL, first.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/v1/history/%d", srv.URL, first.ID+1))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/history/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/history?limit=-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/history", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, decode[[]domain.Result](t, resp))
}

func TestAllergiesAndAudit(t *testing.T) {
	srv, _ := newTestServer(t, &stubReasoner{}, Options{})

	resp, err := http.Get(srv.URL + "/v1/allergies")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, domain.AllergyOptions, decode[[]string](t, resp))

	postJSON(t, srv.URL+"/v1/analyze", `{"query":"Energy Drink"}`)
	resp, err = http.Get(srv.URL + "/v1/audit?page=1&page_size=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))
	entries := decode[[]domain.AuditEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditFresh, entries[0].Kind)
}

func TestAuthAndOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &stubReasoner{}, Options{
		APIKeys:     []string{"secret"},
		CORSOrigins: []string{"https://pureplate.app"},
		Checkers: map[string]middleware.HealthChecker{
			"database": middleware.CheckerFunc(func(context.Context) error { return errors.New("down") }),
		},
		Credentials: 1,
	})

	resp, err := http.Get(srv.URL + "/v1/allergies")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/allergies", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Origin", "https://pureplate.app")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://pureplate.app", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	for _, path := range []string{"/live", "/ready", "/metrics"} {
		resp, err = http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 0.001)
	defer rl.Close()
	srv, _ := newTestServer(t, &stubReasoner{}, Options{RateLimiter: rl})

	resp, err := http.Get(srv.URL + "/v1/allergies")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/allergies")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
