package fetchers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tsdash/internal/models"
)

func TestNewDataFetcher(t *testing.T) {
	fetcher := NewDataFetcher(5*time.Second, 1)
	if fetcher == nil {
		t.Fatal("NewDataFetcher returned nil")
	}

	if fetcher.client == nil {
		t.Error("HTTP client not initialized")
	}

	if fetcher.parser == nil {
		t.Error("Feed parser not initialized")
	}
}

func TestFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Expected JSON accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"domain":[0,2],"range":[1,3],"metrics":[{"name":"cpu","datapoints":[{"x":0,"y":1},{"x":1,"y":null},{"x":2,"y":"bad"}]}]}`))
	}))
	defer server.Close()

	snap, err := NewDataFetcher(5*time.Second, 0).FetchSnapshot(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(snap.Metrics) != 1 || len(snap.Metrics[0].Datapoints) != 3 {
		t.Fatalf("Unexpected snapshot %+v", snap)
	}
	points := snap.Metrics[0].Datapoints
	if points[1].Y != nil || points[2].Y != nil {
		t.Error("Expected null and malformed values to be missing")
	}
}

func TestFetchSnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "", "status 500"},
		{"bad json", http.StatusOK, "{not json", "failed to parse snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewDataFetcher(5*time.Second, 0).FetchSnapshot(context.Background(), server.URL)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestContextCancellation(t *testing.T) {
	fetcher := NewDataFetcher(5*time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchSnapshot(ctx, "http://127.0.0.1:1/metrics")
	if err == nil {
		t.Fatal("Expected error due to cancelled context, got nil")
	}
	if !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("Expected context cancellation error, got: %v", err)
	}
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Deploys</title>
<item><title>api 1.2</title><link>https://example.com/1</link><pubDate>Mon, 03 Jun 2024 10:00:00 GMT</pubDate></item>
<item><title>no date</title></item>
</channel></rss>`

func TestFetchAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	anns, err := NewDataFetcher(5*time.Second, 0).FetchAnnotations(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("Expected 1 dated annotation, got %d", len(anns))
	}
	want := models.TimeToDomain(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))
	if anns[0].Time != want || anns[0].Title != "api 1.2" || anns[0].Link != "https://example.com/1" {
		t.Errorf("Unexpected annotation %+v", anns[0])
	}
}

type stubSource struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubSource) FetchSnapshot(ctx context.Context, url string) (*models.Snapshot, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if url == "broken" {
		return nil, errors.New("boom")
	}
	return &models.Snapshot{Metrics: []models.MetricPayload{{Name: url}}}, nil
}

func TestFetchAll(t *testing.T) {
	src := &stubSource{}
	targets := []Target{{ID: "a", URL: "cpu"}, {ID: "b", URL: "broken"}, {ID: "c", URL: "mem"}}

	got, err := FetchAll(context.Background(), src, targets)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(got))
	}
	if _, ok := got["b"]; ok {
		t.Error("Expected failed target to be left out")
	}
	if got["c"].Metrics[0].Name != "mem" {
		t.Errorf("Expected snapshot for c from mem, got %+v", got["c"])
	}
	if len(src.calls) != 3 {
		t.Errorf("Expected 3 fetches, got %d", len(src.calls))
	}
}

func TestPollerSkipsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	p := NewPoller("slow", time.Hour, func(ctx context.Context) error {
		started.Add(1)
		<-release
		return nil
	})

	ctx := context.Background()
	if !p.trigger(ctx) {
		t.Fatal("Expected first trigger to start a run")
	}
	if p.trigger(ctx) {
		t.Error("Expected trigger to be skipped while a run is in flight")
	}
	close(release)
	p.wg.Wait()

	if !p.trigger(ctx) {
		t.Error("Expected trigger to start once the previous run finished")
	}
	p.wg.Wait()

	runs, skipped, failures := p.Stats()
	if runs != 2 || skipped != 1 || failures != 0 {
		t.Errorf("Expected 2 runs, 1 skipped, 0 failures, got %d %d %d", runs, skipped, failures)
	}
	if started.Load() != 2 {
		t.Errorf("Expected task to run twice, got %d", started.Load())
	}
}

func TestPollerRunAppliesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	var n atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller("ordered", 5*time.Millisecond, func(ctx context.Context) error {
		i := int(n.Add(1))
		// slower than the interval, so ticks pile up and must be skipped
		time.Sleep(12 * time.Millisecond)
		mu.Lock()
		seen = append(seen, i)
		mu.Unlock()
		if i == 4 {
			cancel()
		}
		return errors.New("recorded")
	})

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected poller to stop")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] != seen[i-1]+1 {
			t.Errorf("Expected runs to complete in order, got %v", seen)
		}
	}
	if _, skipped, failures := p.Stats(); skipped == 0 || failures < 4 {
		t.Errorf("Expected skipped ticks and recorded failures, got skipped=%d failures=%d", skipped, failures)
	}
}
