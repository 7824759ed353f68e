package parser

import (
	"strings"

	"github.com/busmarket/bus-scraper/internal/models"
)

// classifierRule detects whether a row of text encodes a known field and, on
// a match, writes the extracted value into the record. Returning true
// consumes the row: later rules never see it.
type classifierRule struct {
	name  string
	apply func(text string, bus *models.Bus) bool
}

// rules returns the classifier chain in priority order. The order is a
// load-bearing contract: a row matching several rules belongs to the first.
func (p *BusParser) rules() []classifierRule {
	return []classifierRule{
		{name: "year_make_model", apply: p.classifyYearMakeModel},
		{name: "passengers", apply: p.classifyPassengers},
		{name: "mileage", apply: p.classifyMileage},
		{name: "engine_transmission", apply: p.classifyEngineTransmission},
		{name: "gross_weight", apply: p.classifyGrossWeight},
		{name: "wheelchair", apply: p.classifyWheelchair},
		{name: "luggage", apply: p.classifyLuggage},
	}
}

// ClassifyRow runs one row of cell text through the chain. It reports whether
// a rule consumed the row; unconsumed rows belong in the free-text features.
func (p *BusParser) ClassifyRow(text string, bus *models.Bus) bool {
	for _, rule := range p.rules() {
		if rule.apply(text, bus) {
			return true
		}
	}
	return false
}

// classifyYearMakeModel handles rows like "1998 Blue Bird, TC2000". The text
// must contain a 4-digit year followed by whitespace and split into at least
// two comma segments; the first segment is year + make, the second is the
// model. Malformed rows fall through to later rules.
func (p *BusParser) classifyYearMakeModel(text string, bus *models.Bus) bool {
	if !p.yearPattern.MatchString(text) {
		return false
	}

	parts := strings.Split(text, ",")
	if len(parts) < 2 {
		return false
	}

	fields := strings.Fields(parts[0])
	if len(fields) == 0 {
		return false
	}

	bus.Year = fields[0]
	bus.Make = strings.Join(fields[1:], " ")
	bus.Model = strings.TrimSpace(parts[1])
	return true
}

// classifyPassengers stores the whole row verbatim on a keyword hit.
func (p *BusParser) classifyPassengers(text string, bus *models.Bus) bool {
	if !strings.Contains(strings.ToLower(text), p.cfg.PassengerKeyword) {
		return false
	}
	bus.Passengers = text
	return true
}

// classifyMileage stores the text preceding the keyword. The first mileage
// row wins; later mileage-looking rows are consumed without overwriting.
func (p *BusParser) classifyMileage(text string, bus *models.Bus) bool {
	if !strings.Contains(strings.ToLower(text), p.cfg.MileageKeyword) {
		return false
	}
	if bus.Mileage != "" {
		return true
	}
	before, _, _ := strings.Cut(text, p.cfg.MileageKeyword)
	bus.Mileage = before
	return true
}

// classifyEngineTransmission attempts both extractions independently. The row
// is consumed when either yields a value; each field is set only once.
func (p *BusParser) classifyEngineTransmission(text string, bus *models.Bus) bool {
	engine := p.extractEngine(text)
	transmission := p.extractTransmission(text)

	if engine != "" && bus.Engine == "" {
		bus.Engine = engine
	}
	if transmission != "" && bus.Transmission == "" {
		bus.Transmission = transmission
	}

	return engine != "" || transmission != ""
}

func (p *BusParser) extractEngine(text string) string {
	if m := p.enginePrimary.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := p.engineFallback.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func (p *BusParser) extractTransmission(text string) string {
	if m := p.transPrimary.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := p.transFallback.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// classifyGrossWeight matches "Gross weight 10,000#" and stores the digits
// with commas stripped.
func (p *BusParser) classifyGrossWeight(text string, bus *models.Bus) bool {
	m := p.grossWeightPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	bus.GVWR = strings.ReplaceAll(m[1], ",", "")
	return true
}

// classifyWheelchair stores the full row text; truncation happens at
// validation time.
func (p *BusParser) classifyWheelchair(text string, bus *models.Bus) bool {
	if !strings.Contains(strings.ToLower(text), p.cfg.WheelchairKeyword) {
		return false
	}
	bus.Wheelchair = text
	return true
}

func (p *BusParser) classifyLuggage(text string, bus *models.Bus) bool {
	if !strings.Contains(strings.ToLower(text), p.cfg.LuggageKeyword) {
		return false
	}
	bus.Luggage = true
	return true
}

// ClassifyAirConditioning scans rows until the first air-conditioning signal
// and decides the category from that row alone; rows after the first match
// are never inspected. No signal across all rows means no category.
func (p *BusParser) ClassifyAirConditioning(rowTexts []string) models.AirConditioning {
	var matched string
	for _, text := range rowTexts {
		if p.acSignal.MatchString(text) {
			matched = text
			break
		}
	}
	if matched == "" {
		return ""
	}

	// The first three checks overlap; they are kept in the observed order
	// because the real page text driving each branch is unknown.
	switch {
	case p.acFrontAndRear.MatchString(matched):
		return models.ACBoth
	case p.acDualLeading.MatchString(matched):
		return models.ACBoth
	case p.acDualTrailing.MatchString(matched):
		return models.ACBoth
	case p.acRear.MatchString(matched):
		return models.ACRear
	case p.acDash.MatchString(matched):
		return models.ACDash
	default:
		return models.ACOther
	}
}
