package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busmarket/bus-scraper/internal/models"
)

func TestWriterAppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_buses.json")

	w, err := NewWriter(path)
	require.NoError(t, err)

	bus := models.NewBus("absolutebus", "http://absolutebus.com/listings/bus1.htm")
	bus.Title = "1998 Blue Bird TC2000"
	bus.Year = "1998"
	require.NoError(t, w.Append(bus))

	// The feed survives a restart.
	reloaded, err := NewWriter(path)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())

	got, ok := reloaded.Get("http://absolutebus.com/listings/bus1.htm")
	require.True(t, ok)
	assert.Equal(t, "1998 Blue Bird TC2000", got.Title)
	assert.Equal(t, "1998", got.Year)
}

func TestWriterReplacesBySourceURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_buses.json")

	w, err := NewWriter(path)
	require.NoError(t, err)

	first := models.NewBus("absolutebus", "http://absolutebus.com/listings/bus1.htm")
	first.Price = "12500"
	require.NoError(t, w.Append(first))

	second := models.NewBus("absolutebus", "http://absolutebus.com/listings/bus1.htm")
	second.Price = "11000"
	require.NoError(t, w.Append(second))

	assert.Equal(t, 1, w.Len())
	got, ok := w.Get("http://absolutebus.com/listings/bus1.htm")
	require.True(t, ok)
	assert.Equal(t, "11000", got.Price)
}

func TestWriterFileIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_buses.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(models.NewBus("absolutebus", "http://absolutebus.com/listings/bus2.htm")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]*models.Bus
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "http://absolutebus.com/listings/bus2.htm")
}
