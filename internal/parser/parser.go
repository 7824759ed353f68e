package parser

import (
	"regexp"
)

// Config holds the classifier keywords and page selectors the extractor
// matches against. The defaults are the constants the source site uses;
// tests override individual fields.
type Config struct {
	// PassengerKeyword is matched case-insensitively against row text. The
	// default is the site's own misspelling and must stay a literal substring
	// of real page text.
	PassengerKeyword  string
	MileageKeyword    string
	WheelchairKeyword string
	LuggageKeyword    string

	MainImageSelector    string
	ThumbnailSelector    string
	DetailsTableSelector string
}

// DefaultConfig returns the selector and keyword set for the listings site.
func DefaultConfig() Config {
	return Config{
		PassengerKeyword:     "psssanger",
		MileageKeyword:       "miles",
		WheelchairKeyword:    "wheelchair",
		LuggageKeyword:       "luggage",
		MainImageSelector:    "#bodytext > img:first-child, p.style5 > img, p.style4 > img",
		ThumbnailSelector:    ".thumbnails a img",
		DetailsTableSelector: "table.posttable:first-of-type",
	}
}

// Selectors that identify page regions rather than extraction targets. They
// are structural to the site layout and not exposed as configuration.
const (
	listingTitleSelector = "td:nth-child(2) font:nth-child(1) a"
	listingLinkSelector  = "td:nth-child(1) a"
	contentRegionID      = "#bodytext"
	priceHeadingSelector = "h3"
)

// BusParser extracts bus records from listing and detail pages.
type BusParser struct {
	cfg Config

	yearPattern        *regexp.Regexp
	grossWeightPattern *regexp.Regexp

	enginePrimary    *regexp.Regexp
	engineFallback   *regexp.Regexp
	transPrimary     *regexp.Regexp
	transFallback    *regexp.Regexp

	pricePattern         *regexp.Regexp
	priceStartingPattern *regexp.Regexp

	acSignal        *regexp.Regexp
	acFrontAndRear  *regexp.Regexp
	acDualLeading   *regexp.Regexp
	acDualTrailing  *regexp.Regexp
	acRear          *regexp.Regexp
	acDash          *regexp.Regexp
}

// NewBusParser compiles the extraction patterns once for reuse across pages.
func NewBusParser(cfg Config) *BusParser {
	return &BusParser{
		cfg: cfg,

		// 4-digit year followed by whitespace gates the year/make/model rule.
		yearPattern:        regexp.MustCompile(`\b(19|20)\d{2}\s\b`),
		grossWeightPattern: regexp.MustCompile(`(?i)Gross weight\s*([\d,]+)#?`),

		// Known school-bus engine families first, generic fallback second.
		enginePrimary:  regexp.MustCompile(`(?i)(DT\d{3} [^,]+\s*diesel|Duramax [^,]+\s*diesel|Ecoboost [^,]+\s*gas)`),
		engineFallback: regexp.MustCompile(`(?i)([\d.]+[a-zA-Z\d\s]+(?:diesel|gas|engine|V\d+)+)`),
		transPrimary:   regexp.MustCompile(`(?i)(Allison\s+automatic|Allison|10\s*speed|\d+\s*(?:spd|speed)\s*(?:ovrdrv|overdrive)?\s*(?:auto|automatic)?)`),
		transFallback:  regexp.MustCompile(`(?i)(\d+\s*spd|speed|automatic|trans|ovrdrv|overdrive)`),

		pricePattern:         regexp.MustCompile(`\$([\d,]+(?:\.\d+)?)`),
		priceStartingPattern: regexp.MustCompile(`starting at \$([\d,]+(?:\.\d+)?)`),

		acSignal:       regexp.MustCompile(`(?i)A/C|AC|Air conditioning|BTU`),
		acFrontAndRear: regexp.MustCompile(`(?i)front and rear`),
		acDualLeading:  regexp.MustCompile(`(?i)(?:front and rear|dual)\s*dual compressor`),
		acDualTrailing: regexp.MustCompile(`(?i)dual compressor\s*(?:front and rear)`),
		acRear:         regexp.MustCompile(`(?i)rear`),
		acDash:         regexp.MustCompile(`(?i)dash`),
	}
}
