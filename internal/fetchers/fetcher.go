package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"tsdash/internal/logger"
	"tsdash/internal/models"
)

// SnapshotSource delivers metric snapshots for a query URL
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, url string) (*models.Snapshot, error)
}

// DataFetcher fetches snapshots and annotation feeds over HTTP
type DataFetcher struct {
	client *resty.Client
	parser *gofeed.Parser
	log    *logger.Logger
}

// NewDataFetcher creates a fetcher with the given request timeout and retry count
func NewDataFetcher(timeout time.Duration, retries int) *DataFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(500 * time.Millisecond)

	return &DataFetcher{
		client: client,
		parser: gofeed.NewParser(),
		log:    logger.WithComponent("fetcher"),
	}
}

// FetchSnapshot fetches one metrics snapshot
func (f *DataFetcher) FetchSnapshot(ctx context.Context, url string) (*models.Snapshot, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode())
	}

	var snap models.Snapshot
	if err := json.Unmarshal(resp.Body(), &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	f.log.Debug("Snapshot fetched", logger.Fields{"url": url, "metrics": len(snap.Metrics)})
	return &snap, nil
}

// FetchAnnotations fetches an RSS or Atom feed and turns every dated item
// into an annotation
func (f *DataFetcher) FetchAnnotations(ctx context.Context, url string) ([]models.Annotation, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch annotation feed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("annotation feed returned status %d", resp.StatusCode())
	}

	feed, err := f.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotation feed: %w", err)
	}

	return AnnotationsFromFeed(feed), nil
}

// AnnotationsFromFeed keeps the items that carry a publish or update time
func AnnotationsFromFeed(feed *gofeed.Feed) []models.Annotation {
	var out []models.Annotation
	for _, item := range feed.Items {
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts == nil {
			continue
		}
		out = append(out, models.Annotation{
			Time:        models.TimeToDomain(*ts),
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
		})
	}
	return out
}

// Target is one snapshot to fetch
type Target struct {
	ID  string
	URL string
}

// FetchAll fetches every target concurrently. Failed targets are logged and
// left out of the result.
func FetchAll(ctx context.Context, src SnapshotSource, targets []Target) (map[string]*models.Snapshot, error) {
	type result struct {
		id   string
		snap *models.Snapshot
		err  error
	}

	results := make(chan result, len(targets))
	for _, t := range targets {
		go func(t Target) {
			snap, err := src.FetchSnapshot(ctx, t.URL)
			results <- result{id: t.ID, snap: snap, err: err}
		}(t)
	}

	out := make(map[string]*models.Snapshot, len(targets))
	log := logger.WithComponent("fetcher")
	for completed := 0; completed < len(targets); completed++ {
		select {
		case r := <-results:
			if r.err != nil {
				log.Warn("Snapshot fetch failed", logger.Fields{"widget": r.id, "error": r.err.Error()})
				continue
			}
			out[r.id] = r.snap
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}
