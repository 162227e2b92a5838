package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype" // For PostGIS GEOGRAPHY
	"github.com/jackc/pgx/v5/pgxpool"
)

// Venue represents a venue in the database. The primary key equals the
// owning user's id: one venue per owner account.
type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Capacity    int       `json:"capacity"`
	LogoURL     *string   `json:"logo_url"`
	PhotoURLs   []string  `json:"photo_urls"` // ordered, max 5
	Amenities   []string  `json:"amenities,omitempty"`
	Facebook    *string   `json:"facebook,omitempty"`
	Instagram   *string   `json:"instagram,omitempty"`
	Whatsapp    *string   `json:"whatsapp,omitempty"`
	Location    []float64 `json:"location"` // [longitude, latitude]
	EventIDs    []string  `json:"event_ids"`
	Ratings     []Rating  `json:"ratings,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VenuesStore struct {
	db *pgxpool.Pool
}

const venueColumns = `
	id, name, description, address, city, country, capacity,
	logo_url, photo_urls, amenities, facebook, instagram, whatsapp,
	ST_X(location::geometry), ST_Y(location::geometry),
	events, ratings, active, created_at, updated_at
`

func scanVenue(row pgx.Row) (*Venue, error) {
	var v Venue
	var lng, lat float64
	var ratingsJSON []byte
	err := row.Scan(
		&v.ID, &v.Name, &v.Description, &v.Address, &v.City, &v.Country, &v.Capacity,
		&v.LogoURL, &v.PhotoURLs, &v.Amenities, &v.Facebook, &v.Instagram, &v.Whatsapp,
		&lng, &lat,
		&v.EventIDs, &ratingsJSON, &v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	v.Location = []float64{lng, lat}
	if err := json.Unmarshal(ratingsJSON, &v.Ratings); err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new venue keyed by the owner's user id.
func (s *VenuesStore) Create(ctx context.Context, venue *Venue) error {
	query := `
		INSERT INTO venues (
			id, name, description, address, city, country, capacity,
			logo_url, photo_urls, amenities, facebook, instagram, whatsapp,
			location, events, ratings, active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			ST_SetSRID(ST_MakePoint($14, $15), 4326),
			'{}', '[]'::jsonb, true
		)
		RETURNING active, created_at, updated_at
	`

	// Create a pgtype.Point for PostGIS geography
	point := pgtype.Point{
		P: pgtype.Vec2{
			X: venue.Location[0], // Longitude
			Y: venue.Location[1], // Latitude
		},
		Valid: true,
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query,
		venue.ID, venue.Name, venue.Description, venue.Address, venue.City, venue.Country, venue.Capacity,
		venue.LogoURL, venue.PhotoURLs, venue.Amenities, venue.Facebook, venue.Instagram, venue.Whatsapp,
		point.P.X, point.P.Y,
	).Scan(&venue.Active, &venue.CreatedAt, &venue.UpdatedAt)

	if err != nil {
		return err
	}
	return nil
}

// GetByID retrieves a venue by its ID.
func (s *VenuesStore) GetByID(ctx context.Context, venueID int64) (*Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanVenue(s.db.QueryRow(ctx, query, venueID))
}

// Update updates a venue's data in the database from a partial field map.
func (s *VenuesStore) Update(ctx context.Context, venueID int64, updateData map[string]any) error {
	// Start building the SQL query
	query := "UPDATE venues SET "
	args := []any{}
	argCounter := 1

	for key, value := range updateData {
		switch key {
		case "name", "description", "address", "city", "country", "capacity",
			"logo_url", "facebook", "instagram", "whatsapp":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		case "photo_urls", "amenities":
			if list, ok := value.([]string); ok {
				query += fmt.Sprintf("%s = $%d, ", key, argCounter)
				args = append(args, list)
				argCounter++
			} else {
				return fmt.Errorf("invalid %s data", key)
			}
		case "location":
			// Handle location as a PostGIS point
			if location, ok := value.([]float64); ok && len(location) == 2 {
				query += fmt.Sprintf("location = ST_SetSRID(ST_MakePoint($%d, $%d), 4326), ", argCounter, argCounter+1)
				args = append(args, location[0], location[1]) // Longitude, Latitude
				argCounter += 2
			} else {
				return fmt.Errorf("invalid location data")
			}
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	query += fmt.Sprintf("updated_at = now() WHERE id = $%d", argCounter)
	args = append(args, venueID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEventID appends an event id to the venue's events array. The guard makes
// the append idempotent against duplicate ids.
func (s *VenuesStore) AddEventID(ctx context.Context, venueID int64, eventID string) error {
	query := `
		UPDATE venues
		SET events = array_append(events, $1), updated_at = now()
		WHERE id = $2 AND NOT ($1 = ANY(events))
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, eventID, venueID)
	if err != nil {
		return fmt.Errorf("failed to add event id: %w", err)
	}
	return nil
}

// RemoveEventID removes an event id from the venue's events array.
func (s *VenuesStore) RemoveEventID(ctx context.Context, venueID int64, eventID string) error {
	query := `
		UPDATE venues
		SET events = array_remove(events, $1), updated_at = now()
		WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, eventID, venueID)
	if err != nil {
		return fmt.Errorf("failed to remove event id: %w", err)
	}
	return nil
}

func (s *VenuesStore) SetActive(ctx context.Context, venueID int64, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `UPDATE venues SET active = $1, updated_at = now() WHERE id = $2`, active, venueID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the venue row. Used by the registration compensation path.
func (s *VenuesStore) Delete(ctx context.Context, venueID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM venues WHERE id = $1`, venueID)
	return err
}

// RatingsForUpdate locks the venue row and returns its ratings array.
func (s *VenuesStore) RatingsForUpdate(ctx context.Context, tx pgx.Tx, targetID string) ([]Rating, error) {
	venueID, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	var ratingsJSON []byte
	err = tx.QueryRow(ctx, `SELECT ratings FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&ratingsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var ratings []Rating
	if err := json.Unmarshal(ratingsJSON, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (s *VenuesStore) SetRatings(ctx context.Context, tx pgx.Tx, targetID string, ratings []Rating) error {
	venueID, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return ErrNotFound
	}

	if ratings == nil {
		ratings = []Rating{}
	}
	data, err := json.Marshal(ratings)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE venues SET ratings = $1, updated_at = now() WHERE id = $2`, data, venueID)
	return err
}
