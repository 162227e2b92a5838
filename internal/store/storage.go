package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"venuedir/internal/params"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

// Rating is a single user's score on a venue or event, stored on the target.
type Rating struct {
	UserID    int64     `json:"user_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRating is the mirror entry stored on the user, keyed by target.
type UserRating struct {
	TargetID   string    `json:"target_id"`
	TargetType string    `json:"target_type"` // "venue" or "event"
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RatingTarget is implemented by stores whose rows carry a ratings array.
// IDs are strings so venue (numeric) and event (uuid) targets share one
// transaction path in the rating service.
type RatingTarget interface {
	RatingsForUpdate(ctx context.Context, tx pgx.Tx, targetID string) ([]Rating, error)
	SetRatings(ctx context.Context, tx pgx.Tx, targetID string, ratings []Rating) error
}

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		Delete(context.Context, int64) error
		RatingsForUpdate(ctx context.Context, tx pgx.Tx, userID int64) ([]UserRating, error)
		SetRatings(ctx context.Context, tx pgx.Tx, userID int64, ratings []UserRating) error
	}
	Venues interface {
		Create(context.Context, *Venue) error
		GetByID(context.Context, int64) (*Venue, error)
		Update(context.Context, int64, map[string]any) error
		AddEventID(ctx context.Context, venueID int64, eventID string) error
		RemoveEventID(ctx context.Context, venueID int64, eventID string) error
		SetActive(ctx context.Context, venueID int64, active bool) error
		Delete(context.Context, int64) error
		RatingTarget
	}
	Events interface {
		Create(context.Context, *Event) error
		GetByID(context.Context, string) (*Event, error)
		ListByVenue(context.Context, int64, params.Pagination) ([]Event, int, error)
		Update(context.Context, string, map[string]any) error
		SetImageURL(ctx context.Context, eventID string, imageURL *string) error
		Delete(context.Context, string) error
		RatingTarget
	}
	VenueLocations interface {
		Upsert(ctx context.Context, venueID int64, fields map[string]any) error
		GetByVenueID(context.Context, int64) (*VenueLocation, error)
		List(context.Context, params.Pagination) ([]VenueLocation, int, error)
		Delete(context.Context, int64) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:          &UsersStore{db},
		Venues:         &VenuesStore{db},
		Events:         &EventsStore{db},
		VenueLocations: &VenueLocationsStore{db},
	}
}
