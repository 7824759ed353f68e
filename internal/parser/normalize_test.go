package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busmarket/bus-scraper/internal/models"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "dollars with commas and cents", raw: "$12,345.67", expected: "12345"},
		{name: "plain dollars", raw: "$999", expected: "999"},
		{name: "starting at prefix", raw: "starting at $9,999", expected: "9999"},
		{name: "cents dropped before digit strip", raw: "12.99", expected: "12"},
		{name: "no digits left", raw: "Call for price", expected: ""},
		{name: "empty input", raw: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePrice(tt.raw))
		})
	}
}

func TestNormalizeYear(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "valid year", raw: "1998", expected: "1998"},
		{name: "lower bound", raw: "1900", expected: "1900"},
		{name: "upper bound", raw: "2100", expected: "2100"},
		{name: "below range", raw: "1875", wantErr: true},
		{name: "above range", raw: "2101", wantErr: true},
		{name: "non numeric", raw: "abcd", wantErr: true},
		{name: "surrounding whitespace", raw: " 2005 ", expected: "2005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeYear(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidYear)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeMake(t *testing.T) {
	assert.Equal(t, "Blue", NormalizeMake("Blue Bird"))
	assert.Equal(t, "Thomas", NormalizeMake("Thomas"))
	assert.Equal(t, "", NormalizeMake("   "))
}

func TestNormalizeWheelchair(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		assert.Equal(t, "wheelchair lift", NormalizeWheelchair("  wheelchair lift  "))
	})

	t.Run("truncates to exactly 60 characters with no marker", func(t *testing.T) {
		long := strings.Repeat("wheelchair ", 10)
		got := NormalizeWheelchair(long)
		assert.Len(t, []rune(got), 60)
		assert.Equal(t, strings.TrimSpace(long)[:60], got)
	})

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "lift available", NormalizeWheelchair("lift available"))
	})
}

func TestValidateBus(t *testing.T) {
	t.Run("normalizes every bounded field", func(t *testing.T) {
		bus := &models.Bus{
			Price:      "$12,345.00",
			Year:       "1998",
			Make:       "Blue Bird",
			Wheelchair: " wheelchair lift available ",
		}
		ValidateBus(bus)

		assert.Equal(t, "12345", bus.Price)
		assert.Equal(t, "1998", bus.Year)
		assert.Equal(t, "Blue", bus.Make)
		assert.Equal(t, "wheelchair lift available", bus.Wheelchair)
	})

	t.Run("invalid year nulls only that field", func(t *testing.T) {
		bus := &models.Bus{
			Price: "$999",
			Year:  "1875",
			Make:  "Thomas",
		}
		ValidateBus(bus)

		assert.Empty(t, bus.Year)
		assert.Equal(t, "999", bus.Price)
		assert.Equal(t, "Thomas", bus.Make)
	})

	t.Run("absent fields stay absent", func(t *testing.T) {
		bus := &models.Bus{}
		ValidateBus(bus)
		assert.Empty(t, bus.Price)
		assert.Empty(t, bus.Year)
	})
}
