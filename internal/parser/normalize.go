package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/busmarket/bus-scraper/internal/models"
)

// ErrInvalidYear is returned for years that are non-numeric or outside the
// accepted range.
var ErrInvalidYear = errors.New("year must be between 1900 and 2100")

const maxWheelchairLen = 60

// NormalizePrice reduces a raw price string to its integer dollar digits.
// Everything after the first dot is dropped, then all non-digits are removed.
// Returns "" when nothing remains ("$12,345.67" -> "12345").
func NormalizePrice(raw string) string {
	whole, _, _ := strings.Cut(raw, ".")
	var b strings.Builder
	for _, r := range whole {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeYear parses and re-stringifies a year, rejecting anything outside
// [1900, 2100].
func NormalizeYear(raw string) (string, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidYear
	}
	if year < 1900 || year > 2100 {
		return "", ErrInvalidYear
	}
	return strconv.Itoa(year), nil
}

// NormalizeMake keeps only the first whitespace-delimited token; trailing
// words are usually part of the model.
func NormalizeMake(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeWheelchair trims surrounding whitespace and hard-truncates to 60
// characters, no ellipsis.
func NormalizeWheelchair(raw string) string {
	v := strings.TrimSpace(raw)
	runes := []rune(v)
	if len(runes) > maxWheelchairLen {
		return string(runes[:maxWheelchairLen])
	}
	return v
}

// ValidateBus applies the field normalizers to a finished record. A
// normalizer failure clears that single field and never rejects the record.
func ValidateBus(bus *models.Bus) {
	if bus.Price != "" {
		bus.Price = NormalizePrice(bus.Price)
	}
	if bus.Year != "" {
		year, err := NormalizeYear(bus.Year)
		if err != nil {
			bus.Year = ""
		} else {
			bus.Year = year
		}
	}
	if bus.Make != "" {
		bus.Make = NormalizeMake(bus.Make)
	}
	if bus.Wheelchair != "" {
		bus.Wheelchair = NormalizeWheelchair(bus.Wheelchair)
	}
}
