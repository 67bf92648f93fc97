package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wienlist/event-aggregator/internal/domain"
)

// UpsertVenue writes one enriched venue record, keyed by slug. A
// re-run of an enrichment batch replaces the whole record.
func (s *PostgresStore) UpsertVenue(ctx context.Context, v domain.VenueRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO venues (
			slug, name, street, house_number, postal_code, city, country,
			latitude, longitude, phone, email, website_url, description, accessibility
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			street = EXCLUDED.street,
			house_number = EXCLUDED.house_number,
			postal_code = EXCLUDED.postal_code,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			website_url = EXCLUDED.website_url,
			description = EXCLUDED.description,
			accessibility = EXCLUDED.accessibility,
			updated_at = NOW()
	`, v.Slug, v.Name, v.Street, v.HouseNumber, v.PostalCode, v.City, v.Country,
		v.Latitude, v.Longitude, v.Phone, v.Email, v.WebsiteURL, v.Description, v.Accessibility)
	if err != nil {
		return fmt.Errorf("upserting venue %q: %w", v.Slug, err)
	}
	return nil
}

// GetVenueBySlug returns nil without error when the venue is unknown.
func (s *PostgresStore) GetVenueBySlug(ctx context.Context, slug string) (*domain.VenueRecord, error) {
	return s.queryVenue(ctx, "slug = $1", slug)
}

// GetVenueByName looks a venue up by its display name, the key
// enrichment batches are addressed by.
func (s *PostgresStore) GetVenueByName(ctx context.Context, name string) (*domain.VenueRecord, error) {
	return s.queryVenue(ctx, "name = $1", name)
}

func (s *PostgresStore) queryVenue(ctx context.Context, where string, arg any) (*domain.VenueRecord, error) {
	var v domain.VenueRecord
	err := s.pool.QueryRow(ctx, `
		SELECT slug, name, street, house_number, postal_code, city, country,
		       latitude, longitude, phone, email, website_url, description, accessibility
		FROM venues WHERE `+where,
		arg,
	).Scan(
		&v.Slug, &v.Name, &v.Street, &v.HouseNumber, &v.PostalCode, &v.City, &v.Country,
		&v.Latitude, &v.Longitude, &v.Phone, &v.Email, &v.WebsiteURL, &v.Description, &v.Accessibility,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying venue: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) ListVenues(ctx context.Context) ([]domain.VenueRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slug, name, street, house_number, postal_code, city, country,
		       latitude, longitude, phone, email, website_url, description, accessibility
		FROM venues
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing venues: %w", err)
	}
	defer rows.Close()

	var venues []domain.VenueRecord
	for rows.Next() {
		var v domain.VenueRecord
		if err := rows.Scan(
			&v.Slug, &v.Name, &v.Street, &v.HouseNumber, &v.PostalCode, &v.City, &v.Country,
			&v.Latitude, &v.Longitude, &v.Phone, &v.Email, &v.WebsiteURL, &v.Description, &v.Accessibility,
		); err != nil {
			return nil, fmt.Errorf("scanning venue row: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}
