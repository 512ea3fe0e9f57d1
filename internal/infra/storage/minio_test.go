package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

func TestObjectKey(t *testing.T) {
	r := domain.Result{ID: 1772366400000, Timestamp: time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))}
	assert.Equal(t, "analyses/2026/03/01/1772366400000.json", ObjectKey(r))
}

// fakeS3 accepts bucket HEADs and object PUTs, remembering the uploaded bodies.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.URL.Path] = string(b)
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestStore_Put(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	store, err := New(ctx, u.Host, "us-east-1", "pureplate", "access", "secret", false)
	require.NoError(t, err)
	require.NoError(t, store.Check(ctx))

	r := domain.Result{
		ID:          42,
		ProductName: "Cola",
		Verdict:     domain.VerdictCaution,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	loc, err := store.Put(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "http://"+u.Host+"/pureplate/analyses/2026/03/01/42.json", loc)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	body, ok := fake.objects["/pureplate/analyses/2026/03/01/42.json"]
	require.True(t, ok, "objects: %v", fake.objects)
	assert.True(t, strings.Contains(body, `"productName":"Cola"`), body)
}
