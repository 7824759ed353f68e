package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/busmarket/bus-scraper/internal/models"
)

func TestClassifyYearMakeModel(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	tests := []struct {
		name     string
		text     string
		consumed bool
		year     string
		make     string
		model    string
	}{
		{
			name:     "year make and model",
			text:     "1998 Blue Bird, TC2000",
			consumed: true,
			year:     "1998",
			make:     "Blue Bird",
			model:    "TC2000",
		},
		{
			name:     "single comma segment falls through",
			text:     "1998 Blue Bird TC2000",
			consumed: false,
		},
		{
			name:     "no year falls through",
			text:     "Blue Bird, TC2000",
			consumed: false,
		},
		{
			name:     "year without trailing space falls through",
			text:     "1998, TC2000",
			consumed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &models.Bus{}
			assert.Equal(t, tt.consumed, p.classifyYearMakeModel(tt.text, bus))
			assert.Equal(t, tt.year, bus.Year)
			assert.Equal(t, tt.make, bus.Make)
			assert.Equal(t, tt.model, bus.Model)
		})
	}
}

func TestClassifyRowPriorityIsFirstMatchWins(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	// A row carrying both a year pattern and the mileage keyword belongs to
	// the year/make/model rule, never to mileage.
	bus := &models.Bus{}
	consumed := p.ClassifyRow("1998 Blue Bird, 45,000 miles", bus)

	assert.True(t, consumed)
	assert.Equal(t, "1998", bus.Year)
	assert.Equal(t, "Blue Bird", bus.Make)
	// The comma inside "45,000" starts the second segment.
	assert.Equal(t, "45", bus.Model)
	assert.Empty(t, bus.Mileage)
}

func TestClassifyMileage(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	t.Run("stores text preceding the keyword", func(t *testing.T) {
		bus := &models.Bus{}
		assert.True(t, p.ClassifyRow("45,000 miles", bus))
		assert.Equal(t, "45,000 ", bus.Mileage)
	})

	t.Run("set at most once per page", func(t *testing.T) {
		bus := &models.Bus{}
		assert.True(t, p.ClassifyRow("45,000 miles", bus))
		assert.True(t, p.ClassifyRow("60,000 miles on rebuilt engine", bus))
		assert.Equal(t, "45,000 ", bus.Mileage)
	})
}

func TestClassifyPassengers(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	bus := &models.Bus{}
	assert.True(t, p.ClassifyRow("77 psssanger", bus))
	assert.Equal(t, "77 psssanger", bus.Passengers)
}

func TestClassifyEngineTransmission(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	tests := []struct {
		name         string
		text         string
		consumed     bool
		engine       string
		transmission string
	}{
		{
			name:     "known diesel family",
			text:     "DT466 turbo diesel",
			consumed: true,
			engine:   "DT466 turbo diesel",
		},
		{
			name:     "generic engine fallback",
			text:     "7.3L V8 gas",
			consumed: true,
			engine:   "7.3L V8 gas",
		},
		{
			name:         "allison automatic",
			text:         "Allison automatic",
			consumed:     true,
			transmission: "Allison automatic",
		},
		{
			name:         "generic transmission fallback",
			text:         "heavy duty trans",
			consumed:     true,
			transmission: "trans",
		},
		{
			name:     "nothing extracted",
			text:     "Call for details",
			consumed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &models.Bus{}
			assert.Equal(t, tt.consumed, p.classifyEngineTransmission(tt.text, bus))
			assert.Equal(t, tt.engine, bus.Engine)
			assert.Equal(t, tt.transmission, bus.Transmission)
		})
	}

	t.Run("first successful extraction sticks", func(t *testing.T) {
		bus := &models.Bus{}
		assert.True(t, p.classifyEngineTransmission("DT466 turbo diesel", bus))
		assert.True(t, p.classifyEngineTransmission("Duramax 6.6 diesel", bus))
		assert.Equal(t, "DT466 turbo diesel", bus.Engine)
	})
}

func TestClassifyGrossWeight(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	bus := &models.Bus{}
	assert.True(t, p.ClassifyRow("Gross weight 10,000#", bus))
	assert.Equal(t, "10000", bus.GVWR)
}

func TestClassifyWheelchairAndLuggage(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	bus := &models.Bus{}
	assert.True(t, p.ClassifyRow("wheelchair lift available", bus))
	assert.Equal(t, "wheelchair lift available", bus.Wheelchair)

	assert.True(t, p.ClassifyRow("two luggage bays", bus))
	assert.True(t, bus.Luggage)
}

func TestClassifyRowUnmatched(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	bus := &models.Bus{}
	assert.False(t, p.ClassifyRow("Call for details", bus))
}

func TestClassifyAirConditioning(t *testing.T) {
	p := NewBusParser(DefaultConfig())

	tests := []struct {
		name     string
		rows     []string
		expected models.AirConditioning
	}{
		{
			name:     "front and rear",
			rows:     []string{"front and rear A/C"},
			expected: models.ACBoth,
		},
		{
			name:     "dual compressor front and rear",
			rows:     []string{"front and rear dual compressor A/C"},
			expected: models.ACBoth,
		},
		{
			name:     "rear only",
			rows:     []string{"rear A/C"},
			expected: models.ACRear,
		},
		{
			name:     "dash only",
			rows:     []string{"dash A/C"},
			expected: models.ACDash,
		},
		{
			name:     "signal without position",
			rows:     []string{"110,000 BTU"},
			expected: models.ACOther,
		},
		{
			name:     "no signal in any row",
			rows:     []string{"77 psssanger", "45,000 miles"},
			expected: "",
		},
		{
			name: "scan stops at first matching row",
			rows: []string{"rear A/C", "dash A/C"},
			// The dash row is never inspected.
			expected: models.ACRear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ClassifyAirConditioning(tt.rows))
		})
	}
}

func TestClassifierKeywordsAreConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PassengerKeyword = "passenger"
	p := NewBusParser(cfg)

	bus := &models.Bus{}
	assert.True(t, p.ClassifyRow("44 Passenger coach", bus))
	assert.Equal(t, "44 Passenger coach", bus.Passengers)
}
