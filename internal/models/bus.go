package models

import (
	"time"
)

// AirConditioning categorizes the air-conditioning setup found on a detail
// page. An empty value means no air-conditioning row was found.
type AirConditioning string

const (
	ACRear  AirConditioning = "REAR"
	ACDash  AirConditioning = "DASH"
	ACBoth  AirConditioning = "BOTH"
	ACOther AirConditioning = "OTHER"
)

// Bus is one scraped listing. Every attribute is independently optional:
// the zero value means "not found on page", never an error. Source and
// SourceURL come from the crawl context, never from page content.
type Bus struct {
	ID               int64            `json:"id,omitempty"`
	Title            string           `json:"title,omitempty"`
	Year             string           `json:"year,omitempty"`
	Make             string           `json:"make,omitempty"`
	Model            string           `json:"model,omitempty"`
	Body             string           `json:"body,omitempty"`
	Chassis          string           `json:"chassis,omitempty"`
	Engine           string           `json:"engine,omitempty"`
	Transmission     string           `json:"transmission,omitempty"`
	Mileage          string           `json:"mileage,omitempty"`
	Passengers       string           `json:"passengers,omitempty"`
	Wheelchair       string           `json:"wheelchair,omitempty"`
	Color            string           `json:"color,omitempty"`
	InteriorColor    string           `json:"interior_color,omitempty"`
	ExteriorColor    string           `json:"exterior_color,omitempty"`
	Published        bool             `json:"published"`
	Featured         bool             `json:"featured"`
	Sold             bool             `json:"sold"`
	Scraped          bool             `json:"scraped"`
	Draft            bool             `json:"draft"`
	Source           string           `json:"source"`
	SourceURL        string           `json:"source_url"`
	Price            string           `json:"price,omitempty"`
	CPrice           string           `json:"cprice,omitempty"`
	VIN              string           `json:"vin,omitempty"`
	GVWR             string           `json:"gvwr,omitempty"`
	Dimensions       string           `json:"dimensions,omitempty"`
	Luggage          bool             `json:"luggage"`
	StateBusStandard string           `json:"state_bus_standard,omitempty"`
	AirConditioning  AirConditioning  `json:"airconditioning,omitempty"`
	Location         string           `json:"location,omitempty"`
	Brake            string           `json:"brake,omitempty"`
	ContactEmail     string           `json:"contact_email,omitempty"`
	ContactPhone     string           `json:"contact_phone,omitempty"`
	USRegion         string           `json:"us_region,omitempty"`
	Description      string           `json:"description,omitempty"`
	Score            int              `json:"score"`
	CategoryID       int              `json:"category_id"`
	Images           []BusImage       `json:"images,omitempty"`
	Overview         *BusOverview     `json:"bus_overview,omitempty"`
	ScrapedAt        time.Time        `json:"scraped_at"`
}

// BusImage is one image attached to a bus. ImageIndex encodes provenance by
// sign: positive values are main/floor-plan images in page order starting at
// 1, negative values are thumbnails starting at -1.
type BusImage struct {
	ID          int64  `json:"id,omitempty"`
	BusID       int64  `json:"bus_id,omitempty"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	ImageIndex  int    `json:"image_index"`
}

// BusOverview holds the free-text overview row for a bus. Only Features is
// populated by extraction; the other columns are reserved.
type BusOverview struct {
	ID       int64  `json:"id,omitempty"`
	BusID    int64  `json:"bus_id,omitempty"`
	MDesc    string `json:"mdesc,omitempty"`
	IntDesc  string `json:"intdesc,omitempty"`
	ExtDesc  string `json:"extdesc,omitempty"`
	Features string `json:"features,omitempty"`
	Specs    string `json:"specs,omitempty"`
}

// NewBus creates an empty record bound to its crawl origin.
func NewBus(source, sourceURL string) *Bus {
	return &Bus{
		Source:    source,
		SourceURL: sourceURL,
		Scraped:   true,
		ScrapedAt: time.Now(),
	}
}

// MainImages returns the positive-index group in page order.
func (b *Bus) MainImages() []BusImage {
	var out []BusImage
	for _, img := range b.Images {
		if img.ImageIndex > 0 {
			out = append(out, img)
		}
	}
	return out
}

// Thumbnails returns the negative-index group in page order.
func (b *Bus) Thumbnails() []BusImage {
	var out []BusImage
	for _, img := range b.Images {
		if img.ImageIndex < 0 {
			out = append(out, img)
		}
	}
	return out
}
