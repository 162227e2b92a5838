// Package rating keeps the bidirectional rating relationship between users
// and rateable targets (venues and events) consistent. A submission or
// deletion touches two rows, the target's ratings array and the user's
// ratings array, inside one database transaction so both sides commit or
// neither does.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"venuedir/internal/store"
)

const (
	TargetTypeVenue = "venue"
	TargetTypeEvent = "event"

	// How long the caller should surface the paired UI message before
	// clearing it.
	SuccessDisplaySeconds = 3
	ErrorDisplaySeconds   = 5
)

var (
	ErrInvalidInput      = errors.New("invalid rating input")
	ErrUnknownTargetType = fmt.Errorf("%w: unknown target type", ErrInvalidInput)
)

// TxBeginner opens the transaction both sides of a rating mutation share.
// *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	db     TxBeginner
	store  store.Storage
	logger *zap.SugaredLogger
}

func NewService(db TxBeginner, st store.Storage, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, store: st, logger: logger}
}

type SubmitInput struct {
	UserID     int64
	TargetID   string
	TargetType string
	TargetName string
	Score      int
}

type DeleteInput struct {
	UserID     int64
	TargetID   string
	TargetType string
}

func (s *Service) target(targetType string) (store.RatingTarget, error) {
	switch targetType {
	case TargetTypeVenue:
		return s.store.Venues, nil
	case TargetTypeEvent:
		return s.store.Events, nil
	default:
		return nil, ErrUnknownTargetType
	}
}

// Submit records or replaces the user's score on the target. Both the
// target's ratings array and the user's ratings array end up with exactly
// one entry for the pair, carrying the new score.
func (s *Service) Submit(ctx context.Context, in SubmitInput) error {
	if in.UserID == 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if in.TargetID == "" {
		return fmt.Errorf("%w: missing target id", ErrInvalidInput)
	}
	if in.Score < 1 || in.Score > 5 {
		return fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidInput)
	}

	target, err := s.target(in.TargetType)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		now := time.Now().UTC()

		targetRatings, err := target.RatingsForUpdate(ctx, tx, in.TargetID)
		if err != nil {
			return err
		}
		userRatings, err := s.store.Users.RatingsForUpdate(ctx, tx, in.UserID)
		if err != nil {
			return err
		}

		targetRatings = replaceTargetEntry(targetRatings, store.Rating{
			UserID:    in.UserID,
			Score:     in.Score,
			UpdatedAt: now,
		})
		userRatings = replaceUserEntry(userRatings, store.UserRating{
			TargetID:   in.TargetID,
			TargetType: in.TargetType,
			Name:       in.TargetName,
			Score:      in.Score,
			UpdatedAt:  now,
		})

		if err := target.SetRatings(ctx, tx, in.TargetID, targetRatings); err != nil {
			return err
		}
		return s.store.Users.SetRatings(ctx, tx, in.UserID, userRatings)
	})
}

// Delete removes the user's rating from both sides. A missing target must
// not block the deletion (the target side is simply skipped), but the user
// row has to exist.
func (s *Service) Delete(ctx context.Context, in DeleteInput) error {
	if in.UserID == 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if in.TargetID == "" {
		return fmt.Errorf("%w: missing target id", ErrInvalidInput)
	}

	target, err := s.target(in.TargetType)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		targetRatings, err := target.RatingsForUpdate(ctx, tx, in.TargetID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Target already gone. The user-side entry still has to go.
			s.logger.Infow("rating target missing, removing user side only",
				"target_id", in.TargetID, "target_type", in.TargetType)
		case err != nil:
			return err
		default:
			if err := target.SetRatings(ctx, tx, in.TargetID,
				removeTargetEntry(targetRatings, in.UserID)); err != nil {
				return err
			}
		}

		userRatings, err := s.store.Users.RatingsForUpdate(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		return s.store.Users.SetRatings(ctx, tx, in.UserID,
			removeUserEntry(userRatings, in.TargetID))
	})
}

func (s *Service) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rating transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rating transaction: %w", err)
	}
	return nil
}

func replaceTargetEntry(ratings []store.Rating, entry store.Rating) []store.Rating {
	out := make([]store.Rating, 0, len(ratings)+1)
	for _, r := range ratings {
		if r.UserID != entry.UserID {
			out = append(out, r)
		}
	}
	return append(out, entry)
}

func replaceUserEntry(ratings []store.UserRating, entry store.UserRating) []store.UserRating {
	out := make([]store.UserRating, 0, len(ratings)+1)
	for _, r := range ratings {
		if r.TargetID != entry.TargetID {
			out = append(out, r)
		}
	}
	return append(out, entry)
}

func removeTargetEntry(ratings []store.Rating, userID int64) []store.Rating {
	out := make([]store.Rating, 0, len(ratings))
	for _, r := range ratings {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	return out
}

func removeUserEntry(ratings []store.UserRating, targetID string) []store.UserRating {
	out := make([]store.UserRating, 0, len(ratings))
	for _, r := range ratings {
		if r.TargetID != targetID {
			out = append(out, r)
		}
	}
	return out
}
