package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venuedir/internal/params"
)

// Event statuses. Transitions are free-form: any status may change to any
// other.
const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusSuspended = "suspended"
)

// Event represents an event in the database. Venue fields are denormalized
// at creation time and never refreshed afterward.
type Event struct {
	ID          string    `json:"id"`
	VenueID     int64     `json:"venue_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Duration    *float64  `json:"duration,omitempty"` // hours
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	TicketURL   *string   `json:"ticket_url,omitempty"`
	Status      string    `json:"status"`
	ImageURL    *string   `json:"image_url"`

	// Snapshot of the owning venue captured at creation.
	VenueName     string    `json:"venue_name"`
	VenueAddress  string    `json:"venue_address"`
	VenueCity     string    `json:"venue_city"`
	VenueCountry  string    `json:"venue_country"`
	VenueCapacity int       `json:"venue_capacity"`
	VenueLocation []float64 `json:"venue_location"` // [longitude, latitude]

	Ratings   []Rating  `json:"ratings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventsStore struct {
	db *pgxpool.Pool
}

const eventColumns = `
	id, venue_id, title, description, date, duration, category, price, currency,
	ticket_url, status, image_url,
	venue_name, venue_address, venue_city, venue_country, venue_capacity,
	ST_X(venue_location::geometry), ST_Y(venue_location::geometry),
	ratings, created_at, updated_at
`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var lng, lat float64
	var ratingsJSON []byte
	err := row.Scan(
		&e.ID, &e.VenueID, &e.Title, &e.Description, &e.Date, &e.Duration, &e.Category, &e.Price, &e.Currency,
		&e.TicketURL, &e.Status, &e.ImageURL,
		&e.VenueName, &e.VenueAddress, &e.VenueCity, &e.VenueCountry, &e.VenueCapacity,
		&lng, &lat,
		&ratingsJSON, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.VenueLocation = []float64{lng, lat}
	if err := json.Unmarshal(ratingsJSON, &e.Ratings); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventsStore) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (
			id, venue_id, title, description, date, duration, category, price, currency,
			ticket_url, status, image_url,
			venue_name, venue_address, venue_city, venue_country, venue_capacity,
			venue_location, ratings
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17,
			ST_SetSRID(ST_MakePoint($18, $19), 4326), '[]'::jsonb
		)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query,
		event.ID, event.VenueID, event.Title, event.Description, event.Date, event.Duration,
		event.Category, event.Price, event.Currency,
		event.TicketURL, event.Status, event.ImageURL,
		event.VenueName, event.VenueAddress, event.VenueCity, event.VenueCountry, event.VenueCapacity,
		event.VenueLocation[0], event.VenueLocation[1],
	).Scan(&event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return err
	}
	return nil
}

func (s *EventsStore) GetByID(ctx context.Context, eventID string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanEvent(s.db.QueryRow(ctx, query, eventID))
}

// ListByVenue returns a page of a venue's events, soonest first, plus the
// venue's total event count.
func (s *EventsStore) ListByVenue(ctx context.Context, venueID int64, p params.Pagination) ([]Event, int, error) {
	query := `SELECT ` + eventColumns + `, COUNT(*) OVER() AS total
		FROM events
		WHERE venue_id = $1
		ORDER BY date ASC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, venueID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []Event
	var total int
	for rows.Next() {
		var e Event
		var lng, lat float64
		var ratingsJSON []byte
		err := rows.Scan(
			&e.ID, &e.VenueID, &e.Title, &e.Description, &e.Date, &e.Duration, &e.Category, &e.Price, &e.Currency,
			&e.TicketURL, &e.Status, &e.ImageURL,
			&e.VenueName, &e.VenueAddress, &e.VenueCity, &e.VenueCountry, &e.VenueCapacity,
			&lng, &lat,
			&ratingsJSON, &e.CreatedAt, &e.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		e.VenueLocation = []float64{lng, lat}
		if err := json.Unmarshal(ratingsJSON, &e.Ratings); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// Update updates an event from a partial field map. The id and created_at
// columns are immutable and never part of the map.
func (s *EventsStore) Update(ctx context.Context, eventID string, updateData map[string]any) error {
	query := "UPDATE events SET "
	args := []any{}
	argCounter := 1

	for key, value := range updateData {
		switch key {
		case "title", "description", "date", "duration", "category", "price",
			"currency", "ticket_url", "status", "image_url":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	query += fmt.Sprintf("updated_at = now() WHERE id = $%d", argCounter)
	args = append(args, eventID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImageURL patches only the image field. Used after the post-create
// upload completes.
func (s *EventsStore) SetImageURL(ctx context.Context, eventID string, imageURL *string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE events SET image_url = $1, updated_at = now() WHERE id = $2`, imageURL, eventID)
	return err
}

func (s *EventsStore) Delete(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RatingsForUpdate locks the event row and returns its ratings array.
func (s *EventsStore) RatingsForUpdate(ctx context.Context, tx pgx.Tx, targetID string) ([]Rating, error) {
	var ratingsJSON []byte
	err := tx.QueryRow(ctx, `SELECT ratings FROM events WHERE id = $1 FOR UPDATE`, targetID).Scan(&ratingsJSON)
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

func (s *EventsStore) SetRatings(ctx context.Context, tx pgx.Tx, targetID string, ratings []Rating) error {
	if ratings == nil {
		ratings = []Rating{}
	}
	data, err := json.Marshal(ratings)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE events SET ratings = $1, updated_at = now() WHERE id = $2`, data, targetID)
	return err
}
