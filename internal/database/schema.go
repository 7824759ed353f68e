package database

import (
	"context"
	"fmt"
)

// Migrate creates the tables on startup when they do not exist yet. Buses are
// keyed by source_url so re-crawled listings upsert instead of duplicating.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS buses (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(256),
			year VARCHAR(10),
			make VARCHAR(25),
			model VARCHAR(50),
			body VARCHAR(25),
			chassis VARCHAR(25),
			engine VARCHAR(60),
			transmission VARCHAR(60),
			mileage VARCHAR(100),
			passengers VARCHAR(60),
			wheelchair VARCHAR(60),
			color VARCHAR(60),
			interior_color VARCHAR(60),
			exterior_color VARCHAR(60),
			published BOOLEAN DEFAULT FALSE,
			featured BOOLEAN DEFAULT FALSE,
			sold BOOLEAN DEFAULT FALSE,
			scraped BOOLEAN DEFAULT FALSE,
			draft BOOLEAN DEFAULT FALSE,
			source VARCHAR(300),
			source_url VARCHAR(1000) NOT NULL UNIQUE,
			price VARCHAR(30),
			cprice VARCHAR(30),
			vin VARCHAR(60),
			gvwr VARCHAR(50),
			dimensions VARCHAR(300),
			luggage BOOLEAN DEFAULT FALSE,
			state_bus_standard VARCHAR(25),
			airconditioning VARCHAR(10) CHECK (airconditioning IN ('REAR', 'DASH', 'BOTH', 'OTHER', 'NONE')),
			location VARCHAR(30),
			brake VARCHAR(30),
			contact_email VARCHAR(100),
			contact_phone VARCHAR(100),
			us_region VARCHAR(10) CHECK (us_region IN ('NORTHEAST', 'MIDWEST', 'WEST', 'SOUTHWEST', 'SOUTHEAST', 'OTHER')),
			description TEXT,
			score INTEGER DEFAULT 0,
			category_id INTEGER DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS buses_images (
			id BIGSERIAL PRIMARY KEY,
			bus_id BIGINT NOT NULL REFERENCES buses(id) ON DELETE CASCADE,
			name VARCHAR(64),
			url VARCHAR(1000),
			description TEXT,
			image_index INTEGER NOT NULL,
			UNIQUE (bus_id, image_index)
		)`,
		`CREATE TABLE IF NOT EXISTS buses_overview (
			id BIGSERIAL PRIMARY KEY,
			bus_id BIGINT NOT NULL UNIQUE REFERENCES buses(id) ON DELETE CASCADE,
			mdesc TEXT,
			intdesc TEXT,
			extdesc TEXT,
			features TEXT,
			specs TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_event (
			id UUID PRIMARY KEY,
			aggregate_type VARCHAR(50) NOT NULL,
			aggregate_id VARCHAR(100) NOT NULL,
			event_type VARCHAR(100) NOT NULL,
			payload JSONB NOT NULL,
			target_stream VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			retry_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ,
			next_retry_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_event_status_retry
			ON outbox_event (status, next_retry_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
