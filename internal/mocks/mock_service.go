package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tsdash/internal/models"
)

// MockService serves fixture snapshots and annotations from a directory
// instead of the network.
type MockService struct {
	mocksDir string
	bucket   time.Duration
	now      func() time.Time
}

// NewMockService creates a mock service reading from mocksDir
func NewMockService(mocksDir string, bucket time.Duration) *MockService {
	if bucket <= 0 {
		bucket = time.Minute
	}
	return &MockService{mocksDir: mocksDir, bucket: bucket, now: time.Now}
}

// FetchSnapshot loads <name>.json, where name is the last path segment of
// url. Widgets without a fixture get a generated series.
func (m *MockService) FetchSnapshot(ctx context.Context, url string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := fixtureName(url)

	var snap models.Snapshot
	err := m.loadTypedJSONFile(name+".json", &snap)
	if errors.Is(err, fs.ErrNotExist) {
		return m.Generate(name, 60), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mock snapshot %s: %w", name, err)
	}

	m.rebase(&snap)
	return &snap, nil
}

// LoadAnnotations parses annotations.xml (RSS or Atom) from the mocks directory
func (m *MockService) LoadAnnotations() ([]models.Annotation, error) {
	file, err := os.Open(filepath.Join(m.mocksDir, "annotations.xml"))
	if err != nil {
		return nil, fmt.Errorf("failed to open mock annotations: %w", err)
	}
	defer file.Close()

	feed, err := gofeed.NewParser().Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mock annotations: %w", err)
	}

	delta := m.shift()
	var out []models.Annotation
	for _, item := range feed.Items {
		if item.PublishedParsed == nil {
			continue
		}
		out = append(out, models.Annotation{
			Time:        models.TimeToDomain(*item.PublishedParsed) + delta,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
		})
	}
	return out, nil
}

// Generate builds a smooth synthetic series of n buckets ending now
func (m *MockService) Generate(name string, n int) *models.Snapshot {
	end := m.now().Truncate(m.bucket)
	step := float64(m.bucket / time.Millisecond)
	last := models.TimeToDomain(end)

	samples := make([]models.Sample, n)
	for i := 0; i < n; i++ {
		x := last - float64(n-1-i)*step
		samples[i] = models.Point(x, math.Round((50+30*math.Sin(float64(i)/6))*100)/100)
	}
	return &models.Snapshot{
		Domain:  []float64{samples[0].X, last},
		Metrics: []models.MetricPayload{{Name: name, Datapoints: samples}},
	}
}

// FixtureEpoch is the time of the newest bucket in the fixture files. Fixture
// times are shifted by now - FixtureEpoch when served.
var FixtureEpoch = time.Date(2024, 6, 1, 12, 29, 0, 0, time.UTC)

func (m *MockService) shift() float64 {
	return models.TimeToDomain(m.now().Truncate(m.bucket)) - models.TimeToDomain(FixtureEpoch)
}

func (m *MockService) rebase(snap *models.Snapshot) {
	delta := m.shift()
	for i := range snap.Metrics {
		for j := range snap.Metrics[i].Datapoints {
			snap.Metrics[i].Datapoints[j].X += delta
		}
	}
	for i := range snap.Domain {
		snap.Domain[i] += delta
	}
}

func fixtureName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return strings.TrimSuffix(url, ".json")
}

// loadTypedJSONFile loads a JSON file and unmarshals it into target
func (m *MockService) loadTypedJSONFile(filename string, target interface{}) error {
	filePath := filepath.Join(m.mocksDir, filename)
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if err := json.Unmarshal(content, target); err != nil {
		return fmt.Errorf("failed to unmarshal file %s: %w", filename, err)
	}

	return nil
}
