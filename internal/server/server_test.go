package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpoker/agentpoker/internal/store"
)

type testServer struct {
	*Server
	clock   *quartz.Mock
	handler http.Handler
	st      *store.Store
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := DefaultConfig()
	for _, fn := range mutate {
		fn(cfg)
	}
	clock := quartz.NewMock(t)
	srv, err := NewServer(zerolog.Nop(), clock, st, cfg)
	require.NoError(t, err)
	return &testServer{Server: srv, clock: clock, handler: srv.Handler(), st: st}
}

// do runs one request through the full handler chain and decodes the JSON
// response body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	}
	return w, decoded
}

// register creates an agent and returns its id and API key.
func (ts *testServer) register(t *testing.T, name string) (id, key string) {
	t.Helper()
	w, body := ts.do(t, "POST", "/api/register", "", map[string]string{"name": name})
	require.Equal(t, http.StatusOK, w.Code, "body: %v", body)
	return body["agentId"].(string), body["apiKey"].(string)
}

// advance moves mock time, letting any armed table timer fire.
func (ts *testServer) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ts.clock.Advance(d).MustWait(ctx)
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, "POST", "/api/register", "", map[string]string{
		"name": "TestBot", "llmProvider": "anthropic", "llmModel": "some-model",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["agentId"])
	assert.Contains(t, body["apiKey"], "ap_")
	assert.Equal(t, float64(1000), body["chips"])

	// Same name again: conflict.
	w, body = ts.do(t, "POST", "/api/register", "", map[string]string{"name": "TestBot"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, body["error"])

	// Unusable name.
	w, _ = ts.do(t, "POST", "/api/register", "", map[string]string{"name": "!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Garbage body.
	req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Two agents racing for the same name: the unique index lets exactly one
// row in, so one caller gets 200 and the other 409.
func TestConcurrentRegisterSameName(t *testing.T) {
	ts := newTestServer(t)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"name": "Leroy"})
			req := httptest.NewRequest("POST", "/api/register", bytes.NewReader(body))
			w := httptest.NewRecorder()
			ts.handler.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	var got []int
	for c := range codes {
		got = append(got, c)
	}
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, got)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, "GET", "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, "GET", "/api/me", "ap_not_a_real_key", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id, key := ts.register(t, "TestBot")

	w, body := ts.do(t, "GET", "/api/me", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "TestBot", body["name"])
	assert.Equal(t, float64(1000), body["chips"])
	assert.Equal(t, float64(3), body["rebuysLeft"])
	assert.Nil(t, body["currentTable"])
}

func TestBannedAgentIsRejected(t *testing.T) {
	ts := newTestServer(t)
	id, key := ts.register(t, "TestBot")
	require.NoError(t, ts.st.SetBanned(id, true))

	w, body := ts.do(t, "GET", "/api/me", key, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "agent is banned", body["error"])
}

func TestRebuyEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id, key := ts.register(t, "TestBot")

	// Still flush: rejected.
	w, _ := ts.do(t, "POST", "/api/rebuy", key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, ts.st.SetAgentChips(id, 20))
	w, body := ts.do(t, "POST", "/api/rebuy", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1000), body["chips"])
	assert.Equal(t, float64(1), body["rebuys"])
	assert.Equal(t, float64(2), body["rebuysLeft"])

	// Burn the rest, then nothing is left.
	for i := 0; i < 2; i++ {
		require.NoError(t, ts.st.SetAgentChips(id, 0))
		w, _ = ts.do(t, "POST", "/api/rebuy", key, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.NoError(t, ts.st.SetAgentChips(id, 0))
	w, body = ts.do(t, "POST", "/api/rebuy", key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no rebuys remaining", body["error"])
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w, body := ts.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "TestBot")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agentpoker_active_tables")
	assert.Contains(t, w.Body.String(), "agentpoker_requests_total")
}

func TestConfiguredTablesExistAtBoot(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.Tables = append(cfg.Tables, TableSettings{Name: "highroller", MaxPlayers: 4, SmallBlind: 50})
	})

	w, body := ts.do(t, "GET", "/api/tables", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tables := body["tables"].([]any)
	require.Len(t, tables, 2)
	ids := []string{
		tables[0].(map[string]any)["tableId"].(string),
		tables[1].(map[string]any)["tableId"].(string),
	}
	assert.Equal(t, []string{"main", "highroller"}, ids)

	hr := tables[1].(map[string]any)
	assert.Equal(t, float64(4), hr["maxPlayers"])
	assert.Equal(t, float64(50), hr["smallBlind"])
}

func TestRequestBodySizeCap(t *testing.T) {
	ts := newTestServer(t)
	huge := fmt.Sprintf(`{"name":"%s"}`, strings.Repeat("a", 8192))
	req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(huge))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
