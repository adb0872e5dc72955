package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
	"github.com/MrSnakeDoc/linkaudit/internal/probe"
	"github.com/MrSnakeDoc/linkaudit/internal/scheduler"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
	redisstore "github.com/MrSnakeDoc/linkaudit/internal/store/redis"
)

const totalHits = 25

// fakeCustomSearch serves totalHits results in pages of 10 and records the
// query string of every call.
type fakeCustomSearch struct {
	mu     sync.Mutex
	calls  []map[string]string
	linkTo func(i int) string
}

func (f *fakeCustomSearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.calls = append(f.calls, map[string]string{
		"key": q.Get("key"), "cx": q.Get("cx"), "q": q.Get("q"),
		"start": q.Get("start"), "num": q.Get("num"), "filter": q.Get("filter"),
	})
	f.mu.Unlock()

	if q.Get("key") != "file-key" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
		return
	}

	start, _ := strconv.Atoi(q.Get("start"))
	items := []map[string]string{}
	for i := start - 1; i < totalHits && i < start-1+10; i++ {
		items = append(items, map[string]string{
			"title":   fmt.Sprintf("Hit %d", i),
			"link":    f.linkTo(i),
			"snippet": "links to example.com",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func TestSearchProbeExportEndToEnd(t *testing.T) {
	log := logger.NewNop()

	// probe targets: every 5th page is gone, the last hit is unreachable
	targets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/p/"))
		if n%5 == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer targets.Close()

	fake := &fakeCustomSearch{linkTo: func(i int) string {
		if i == totalHits-1 {
			return "http://127.0.0.1:1/unreachable"
		}
		return fmt.Sprintf("%s/p/%d", targets.URL, i)
	}}
	api := httptest.NewServer(fake)
	defer api.Close()

	// credentials: env has a stale key, the secrets file overrides it
	secretsPath := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(secretsPath, []byte("google_api_key: file-key\nsearch_engine_id: engine-1\n"), 0o600))
	holder := secrets.NewHolder(domain.Credentials{APIKey: "env-key", EngineID: "engine-1"})
	m := metrics.New()
	trigger := make(chan struct{}, 1)
	reloader := scheduler.NewCredentialsReloader(secretsPath, holder, m, log, time.Hour, trigger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reloader.Start(ctx))
	defer reloader.Stop()

	// sessions in redis
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := redisstore.NewStore(client)

	svc := audit.New(audit.Config{
		Store:         store,
		Credentials:   holder,
		Prober:        probe.New(probe.WithTimeout(2 * time.Second)),
		Metrics:       m,
		Logger:        log,
		SearchBaseURL: api.URL,
		PageDelay:     time.Millisecond,
		SessionTTL:    30 * time.Minute,
	})

	router := httpserver.NewRouter(time.Minute, log, deps.Deps{
		Logger:             log,
		StartTime:          time.Now(),
		TimeNow:            time.Now,
		Audit:              svc,
		Sessions:           store,
		SessionBackend:     "redis",
		Credentials:        holder,
		SecretsFile:        secretsPath,
		RedisClient:        client,
		Metrics:            m,
		DefaultCount:       50,
		SearchBurst:        10,
		SearchRefillPerMin: 10,
		ReloadTrigger:      trigger,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	// --- search
	resp, err := http.Post(srv.URL+"/search", "application/json",
		strings.NewReader(`{"domain":"https://www.example.com/","mode":"exact","count":30}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Termination string         `json:"termination"`
		Session     domain.Session `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "exhausted", created.Termination)
	require.Len(t, created.Session.Records, totalHits)

	fake.mu.Lock()
	require.Len(t, fake.calls, 3)
	for i, c := range fake.calls {
		assert.Equal(t, `"example.com" -site:example.com`, c["q"])
		assert.Equal(t, "engine-1", c["cx"])
		assert.Equal(t, "0", c["filter"])
		assert.Equal(t, "10", c["num"])
		assert.Equal(t, strconv.Itoa(1+10*i), c["start"])
	}
	fake.mu.Unlock()

	id := created.Session.ID
	assert.True(t, mr.Exists(redisstore.SessionKey(id)))

	// --- probe
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/sessions/"+id+"/probe", nil)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var probed domain.Session
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&probed))
	for i, r := range probed.Records {
		switch {
		case i == totalHits-1:
			assert.Equal(t, "🟠 Error", r.Status, "record %d", i)
		case i%5 == 1:
			assert.Equal(t, "🔴 404", r.Status, "record %d", i)
		default:
			assert.Equal(t, "🟢 200", r.Status, "record %d", i)
		}
	}

	// statuses survived in redis
	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "🔴 404", stored.Records[1].Status)

	// --- export
	resp3, err := http.Get(srv.URL + "/sessions/" + id + "/export?format=ndjson")
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)

	dec := json.NewDecoder(resp3.Body)
	n := 0
	for dec.More() {
		var rec domain.ResultRecord
		require.NoError(t, dec.Decode(&rec))
		assert.NotEqual(t, domain.StatusPending, rec.Status)
		n++
	}
	assert.Equal(t, totalHits, n)

	// --- expiry is handled by redis
	mr.FastForward(31 * time.Minute)
	resp4, err := http.Get(srv.URL + "/sessions/" + id)
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

func TestSearchWithRejectedKeyKeepsNoSession(t *testing.T) {
	log := logger.NewNop()
	fake := &fakeCustomSearch{linkTo: func(i int) string { return "https://x.test/" }}
	api := httptest.NewServer(fake)
	defer api.Close()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := redisstore.NewStore(client)

	svc := audit.New(audit.Config{
		Store:         store,
		Credentials:   secrets.NewHolder(domain.Credentials{APIKey: "wrong", EngineID: "cx"}),
		Logger:        log,
		SearchBaseURL: api.URL,
		PageDelay:     time.Millisecond,
	})

	res, err := svc.Search(context.Background(), audit.SearchRequest{Domain: "example.com", Mode: domain.ModeLink}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	assert.Equal(t, "failed", string(res.Termination.Kind))
	assert.Contains(t, res.Termination.Err.Error(), "API key not valid")
	assert.NotContains(t, res.Termination.Err.Error(), "wrong")

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
