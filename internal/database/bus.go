package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/busmarket/bus-scraper/internal/models"
)

// BusRepository persists scraped bus records and their child rows.
type BusRepository struct {
	db     *DB
	outbox *OutboxRepository
}

func NewBusRepository(db *DB) *BusRepository {
	return &BusRepository{
		db:     db,
		outbox: NewOutboxRepository(db),
	}
}

// Save upserts one bus with its images and overview in a single transaction,
// and records a scraped event in the outbox. The bus row is keyed by
// source_url; child rows are keyed by (bus_id, image_index) and bus_id. A
// conflict rolls everything back for this record only.
func (r *BusRepository) Save(ctx context.Context, bus *models.Bus) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.upsertBus(ctx, tx, bus); err != nil {
			return err
		}

		for i := range bus.Images {
			bus.Images[i].BusID = bus.ID
			if err := r.upsertImage(ctx, tx, &bus.Images[i]); err != nil {
				return err
			}
		}

		if bus.Overview != nil {
			bus.Overview.BusID = bus.ID
			if err := r.upsertOverview(ctx, tx, bus.Overview); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(bus)
		if err != nil {
			return fmt.Errorf("failed to marshal bus payload: %w", err)
		}
		event := &OutboxEvent{
			AggregateType: "bus",
			AggregateID:   strconv.FormatInt(bus.ID, 10),
			EventType:     EventBusScraped,
			Payload:       payload,
		}
		return r.outbox.InsertWithTx(ctx, tx, event)
	})
}

func (r *BusRepository) upsertBus(ctx context.Context, tx pgx.Tx, bus *models.Bus) error {
	query := `
		INSERT INTO buses (
			title, year, make, model, body, chassis, engine, transmission,
			mileage, passengers, wheelchair, color, interior_color,
			exterior_color, published, featured, sold, scraped, draft,
			source, source_url, price, cprice, vin, gvwr, dimensions,
			luggage, state_bus_standard, airconditioning, location, brake,
			contact_email, contact_phone, us_region, description, score,
			category_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			$27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37
		)
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			body = EXCLUDED.body,
			chassis = EXCLUDED.chassis,
			engine = EXCLUDED.engine,
			transmission = EXCLUDED.transmission,
			mileage = EXCLUDED.mileage,
			passengers = EXCLUDED.passengers,
			wheelchair = EXCLUDED.wheelchair,
			color = EXCLUDED.color,
			interior_color = EXCLUDED.interior_color,
			exterior_color = EXCLUDED.exterior_color,
			published = EXCLUDED.published,
			featured = EXCLUDED.featured,
			sold = EXCLUDED.sold,
			scraped = EXCLUDED.scraped,
			draft = EXCLUDED.draft,
			source = EXCLUDED.source,
			price = EXCLUDED.price,
			cprice = EXCLUDED.cprice,
			vin = EXCLUDED.vin,
			gvwr = EXCLUDED.gvwr,
			dimensions = EXCLUDED.dimensions,
			luggage = EXCLUDED.luggage,
			state_bus_standard = EXCLUDED.state_bus_standard,
			airconditioning = EXCLUDED.airconditioning,
			location = EXCLUDED.location,
			brake = EXCLUDED.brake,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			us_region = EXCLUDED.us_region,
			description = EXCLUDED.description,
			score = EXCLUDED.score,
			category_id = EXCLUDED.category_id,
			updated_at = NOW()
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		nullIfEmpty(bus.Title), nullIfEmpty(bus.Year), nullIfEmpty(bus.Make),
		nullIfEmpty(bus.Model), nullIfEmpty(bus.Body), nullIfEmpty(bus.Chassis),
		nullIfEmpty(bus.Engine), nullIfEmpty(bus.Transmission),
		nullIfEmpty(bus.Mileage), nullIfEmpty(bus.Passengers),
		nullIfEmpty(bus.Wheelchair), nullIfEmpty(bus.Color),
		nullIfEmpty(bus.InteriorColor), nullIfEmpty(bus.ExteriorColor),
		bus.Published, bus.Featured, bus.Sold, bus.Scraped, bus.Draft,
		nullIfEmpty(bus.Source), bus.SourceURL, nullIfEmpty(bus.Price),
		nullIfEmpty(bus.CPrice), nullIfEmpty(bus.VIN), nullIfEmpty(bus.GVWR),
		nullIfEmpty(bus.Dimensions), bus.Luggage,
		nullIfEmpty(bus.StateBusStandard), nullIfEmpty(string(bus.AirConditioning)),
		nullIfEmpty(bus.Location), nullIfEmpty(bus.Brake),
		nullIfEmpty(bus.ContactEmail), nullIfEmpty(bus.ContactPhone),
		nullIfEmpty(bus.USRegion), nullIfEmpty(bus.Description),
		bus.Score, bus.CategoryID,
	).Scan(&bus.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert bus: %w", err)
	}
	return nil
}

func (r *BusRepository) upsertImage(ctx context.Context, tx pgx.Tx, img *models.BusImage) error {
	query := `
		INSERT INTO buses_images (bus_id, name, url, description, image_index)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bus_id, image_index) DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			description = EXCLUDED.description
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		img.BusID, img.Name, img.URL, nullIfEmpty(img.Description), img.ImageIndex,
	).Scan(&img.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

func (r *BusRepository) upsertOverview(ctx context.Context, tx pgx.Tx, ov *models.BusOverview) error {
	query := `
		INSERT INTO buses_overview (bus_id, mdesc, intdesc, extdesc, features, specs)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (bus_id) DO UPDATE SET
			mdesc = EXCLUDED.mdesc,
			intdesc = EXCLUDED.intdesc,
			extdesc = EXCLUDED.extdesc,
			features = EXCLUDED.features,
			specs = EXCLUDED.specs
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		ov.BusID, nullIfEmpty(ov.MDesc), nullIfEmpty(ov.IntDesc),
		nullIfEmpty(ov.ExtDesc), nullIfEmpty(ov.Features), nullIfEmpty(ov.Specs),
	).Scan(&ov.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert overview: %w", err)
	}
	return nil
}

// List returns buses in reverse scrape order, without child rows.
func (r *BusRepository) List(ctx context.Context, limit, offset int) ([]*models.Bus, error) {
	query := `
		SELECT id, title, year, make, model, engine, transmission, mileage,
			passengers, wheelchair, sold, source, source_url, price, gvwr,
			luggage, airconditioning, description
		FROM buses
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	var buses []*models.Bus
	for rows.Next() {
		bus, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		buses = append(buses, bus)
	}
	return buses, rows.Err()
}

// GetByID returns one bus with its images (main images first, thumbnails
// after, each group in page order) and overview.
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	query := `
		SELECT id, title, year, make, model, engine, transmission, mileage,
			passengers, wheelchair, sold, source, source_url, price, gvwr,
			luggage, airconditioning, description
		FROM buses
		WHERE id = $1`

	bus, err := scanBus(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	imgQuery := `
		SELECT id, bus_id, name, url, COALESCE(description, ''), image_index
		FROM buses_images
		WHERE bus_id = $1
		ORDER BY (image_index < 0), ABS(image_index)`

	rows, err := r.db.pool.Query(ctx, imgQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.BusImage
		if err := rows.Scan(&img.ID, &img.BusID, &img.Name, &img.URL, &img.Description, &img.ImageIndex); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		bus.Images = append(bus.Images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ovQuery := `
		SELECT id, bus_id, COALESCE(mdesc, ''), COALESCE(intdesc, ''),
			COALESCE(extdesc, ''), COALESCE(features, ''), COALESCE(specs, '')
		FROM buses_overview
		WHERE bus_id = $1`

	var ov models.BusOverview
	err = r.db.pool.QueryRow(ctx, ovQuery, id).Scan(
		&ov.ID, &ov.BusID, &ov.MDesc, &ov.IntDesc, &ov.ExtDesc, &ov.Features, &ov.Specs)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No overview row is fine.
	case err != nil:
		return nil, fmt.Errorf("failed to load overview: %w", err)
	default:
		bus.Overview = &ov
	}

	return bus, nil
}

// Stats summarizes the stored records for the ops API.
type Stats struct {
	Total  int64 `json:"total"`
	Sold   int64 `json:"sold"`
	Images int64 `json:"images"`
}

func (r *BusRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM buses),
			(SELECT COUNT(*) FROM buses WHERE sold),
			(SELECT COUNT(*) FROM buses_images)`,
	).Scan(&s.Total, &s.Sold, &s.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return &s, nil
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBus(row rowScanner) (*models.Bus, error) {
	var (
		bus models.Bus
		ac  *string
	)
	var title, year, mk, model, engine, trans, mileage, passengers,
		wheelchair, source, price, gvwr, description *string

	err := row.Scan(&bus.ID, &title, &year, &mk, &model, &engine, &trans,
		&mileage, &passengers, &wheelchair, &bus.Sold, &source,
		&bus.SourceURL, &price, &gvwr, &bus.Luggage, &ac, &description)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bus: %w", err)
	}

	bus.Title = deref(title)
	bus.Year = deref(year)
	bus.Make = deref(mk)
	bus.Model = deref(model)
	bus.Engine = deref(engine)
	bus.Transmission = deref(trans)
	bus.Mileage = deref(mileage)
	bus.Passengers = deref(passengers)
	bus.Wheelchair = deref(wheelchair)
	bus.Source = deref(source)
	bus.Price = deref(price)
	bus.GVWR = deref(gvwr)
	bus.Description = deref(description)
	bus.AirConditioning = models.AirConditioning(deref(ac))

	return &bus, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullIfEmpty maps the record's "absent" zero value to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// IsIntegrityViolation reports whether err is a constraint violation, the
// rollback-and-continue case of the persistence policy.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23"
	}
	return false
}
