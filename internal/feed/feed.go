package feed

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/busmarket/bus-scraper/internal/models"
)

// Writer accumulates every record of a crawl and mirrors it to a JSON file,
// keyed by source URL so a re-crawled bus replaces its previous entry. The
// file is the raw export consumed by ad-hoc tooling, independent of the
// database.
type Writer struct {
	mu       sync.RWMutex
	buses    map[string]*models.Bus
	filename string
}

func NewWriter(filename string) (*Writer, error) {
	w := &Writer{
		buses:    make(map[string]*models.Bus),
		filename: filename,
	}

	if err := w.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return w, nil
}

// Append records one bus and rewrites the feed file.
func (w *Writer) Append(bus *models.Bus) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buses[bus.SourceURL] = bus
	return w.save()
}

// Len returns the number of records currently in the feed.
func (w *Writer) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.buses)
}

// Get returns the feed entry for a source URL.
func (w *Writer) Get(sourceURL string) (*models.Bus, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	bus, ok := w.buses[sourceURL]
	return bus, ok
}

func (w *Writer) save() error {
	data, err := json.MarshalIndent(w.buses, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first for atomicity
	tmpFile := w.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, w.filename)
}

func (w *Writer) load() error {
	data, err := os.ReadFile(w.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &w.buses)
}
