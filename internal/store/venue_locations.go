package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venuedir/internal/params"
)

// VenueLocation is the denormalized projection of a venue used by map and
// list views. It is re-synced on every venue mutation that touches one of
// its fields; a deactivated venue keeps its row with active=false.
type VenueLocation struct {
	VenueID     int64     `json:"venue_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Location    []float64 `json:"location"` // [longitude, latitude]
	LogoURL     *string   `json:"logo_url"`
	Active      bool      `json:"active"`
	LastUpdated time.Time `json:"last_updated"`
}

type VenueLocationsStore struct {
	db *pgxpool.Pool
}

// Upsert writes the projection with merge semantics: only the supplied
// fields overwrite, anything absent from the map keeps its stored value.
func (s *VenueLocationsStore) Upsert(ctx context.Context, venueID int64, fields map[string]any) error {
	cols := []string{"venue_id"}
	placeholders := []string{"$1"}
	updates := []string{}
	args := []any{venueID}
	argCounter := 2

	for key, value := range fields {
		switch key {
		case "name", "address", "city", "country", "logo_url", "active":
			cols = append(cols, key)
			placeholders = append(placeholders, fmt.Sprintf("$%d", argCounter))
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", key, key))
			args = append(args, value)
			argCounter++
		case "location":
			location, ok := value.([]float64)
			if !ok || len(location) != 2 {
				return fmt.Errorf("invalid location data")
			}
			cols = append(cols, "location")
			placeholders = append(placeholders,
				fmt.Sprintf("ST_SetSRID(ST_MakePoint($%d, $%d), 4326)", argCounter, argCounter+1))
			updates = append(updates, "location = EXCLUDED.location")
			args = append(args, location[0], location[1])
			argCounter += 2
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	updates = append(updates, "last_updated = now()")

	query := fmt.Sprintf(`
		INSERT INTO venues_locations (%s, last_updated)
		VALUES (%s, now())
		ON CONFLICT (venue_id) DO UPDATE SET %s
	`, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to sync venue location: %w", err)
	}
	return nil
}

func (s *VenueLocationsStore) GetByVenueID(ctx context.Context, venueID int64) (*VenueLocation, error) {
	query := `
		SELECT venue_id, name, address, city, country,
		       ST_X(location::geometry), ST_Y(location::geometry),
		       logo_url, active, last_updated
		FROM venues_locations
		WHERE venue_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var l VenueLocation
	var lng, lat float64
	err := s.db.QueryRow(ctx, query, venueID).Scan(
		&l.VenueID, &l.Name, &l.Address, &l.City, &l.Country,
		&lng, &lat,
		&l.LogoURL, &l.Active, &l.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Location = []float64{lng, lat}
	return &l, nil
}

// List returns a page of active venue locations plus the total count.
func (s *VenueLocationsStore) List(ctx context.Context, p params.Pagination) ([]VenueLocation, int, error) {
	query := `
		SELECT venue_id, name, address, city, country,
		       ST_X(location::geometry), ST_Y(location::geometry),
		       logo_url, active, last_updated,
		       COUNT(*) OVER() AS total
		FROM venues_locations
		WHERE active = true
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var locations []VenueLocation
	var total int
	for rows.Next() {
		var l VenueLocation
		var lng, lat float64
		err := rows.Scan(
			&l.VenueID, &l.Name, &l.Address, &l.City, &l.Country,
			&lng, &lat,
			&l.LogoURL, &l.Active, &l.LastUpdated,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		l.Location = []float64{lng, lat}
		locations = append(locations, l)
	}
	return locations, total, rows.Err()
}

// Delete removes the projection row. Only the registration compensation path
// uses this; deactivation keeps the row with active=false.
func (s *VenueLocationsStore) Delete(ctx context.Context, venueID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM venues_locations WHERE venue_id = $1`, venueID)
	return err
}
