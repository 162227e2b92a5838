package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"venuedir/internal/store"
)

func TestReplaceTargetEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	convey.Convey("Given a target with no ratings", t, func() {
		out := replaceTargetEntry(nil, store.Rating{UserID: 1, Score: 4, UpdatedAt: now})

		convey.Convey("Then the entry is appended", func() {
			convey.So(out, convey.ShouldHaveLength, 1)
			convey.So(out[0].UserID, convey.ShouldEqual, 1)
			convey.So(out[0].Score, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given the user already rated the target", t, func() {
		existing := []store.Rating{
			{UserID: 1, Score: 2},
			{UserID: 2, Score: 5},
		}
		out := replaceTargetEntry(existing, store.Rating{UserID: 1, Score: 4, UpdatedAt: now})

		convey.Convey("Then the old entry is replaced, not duplicated", func() {
			convey.So(out, convey.ShouldHaveLength, 2)
			var found int
			for _, r := range out {
				if r.UserID == 1 {
					found++
					convey.So(r.Score, convey.ShouldEqual, 4)
				}
			}
			convey.So(found, convey.ShouldEqual, 1)
		})

		convey.Convey("Then other users' entries survive untouched", func() {
			convey.So(out[0].UserID, convey.ShouldEqual, 2)
			convey.So(out[0].Score, convey.ShouldEqual, 5)
		})
	})
}

func TestReplaceUserEntry(t *testing.T) {
	convey.Convey("Given a user with ratings on several targets", t, func() {
		existing := []store.UserRating{
			{TargetID: "12", TargetType: TargetTypeVenue, Score: 3},
			{TargetID: "abc-uuid", TargetType: TargetTypeEvent, Score: 5},
		}
		out := replaceUserEntry(existing, store.UserRating{
			TargetID:   "12",
			TargetType: TargetTypeVenue,
			Name:       "Blue Note",
			Score:      1,
		})

		convey.Convey("Then only the matching target entry changes", func() {
			convey.So(out, convey.ShouldHaveLength, 2)
			convey.So(out[0].TargetID, convey.ShouldEqual, "abc-uuid")
			convey.So(out[1].TargetID, convey.ShouldEqual, "12")
			convey.So(out[1].Score, convey.ShouldEqual, 1)
			convey.So(out[1].Name, convey.ShouldEqual, "Blue Note")
		})
	})
}

func TestRemoveEntries(t *testing.T) {
	convey.Convey("Given entries on both sides of a rating", t, func() {
		target := []store.Rating{
			{UserID: 1, Score: 4},
			{UserID: 2, Score: 2},
		}
		user := []store.UserRating{
			{TargetID: "12", Score: 4},
			{TargetID: "34", Score: 2},
		}

		convey.Convey("When the rating is removed from both", func() {
			targetOut := removeTargetEntry(target, 1)
			userOut := removeUserEntry(user, "12")

			convey.Convey("Then only the paired entries are gone", func() {
				convey.So(targetOut, convey.ShouldHaveLength, 1)
				convey.So(targetOut[0].UserID, convey.ShouldEqual, 2)
				convey.So(userOut, convey.ShouldHaveLength, 1)
				convey.So(userOut[0].TargetID, convey.ShouldEqual, "34")
			})
		})

		convey.Convey("When the user never rated the target", func() {
			out := removeTargetEntry(target, 99)

			convey.Convey("Then removal is a no-op", func() {
				convey.So(out, convey.ShouldHaveLength, 2)
			})
		})
	})

	convey.Convey("Given a cancel-then-re-rate sequence", t, func() {
		target := []store.Rating{{UserID: 1, Score: 4}}

		target = removeTargetEntry(target, 1)
		convey.So(target, convey.ShouldHaveLength, 0)

		target = replaceTargetEntry(target, store.Rating{UserID: 1, Score: 2})

		convey.Convey("Then the target ends with exactly one fresh entry", func() {
			convey.So(target, convey.ShouldHaveLength, 1)
			convey.So(target[0].Score, convey.ShouldEqual, 2)
		})
	})
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(nil, store.Storage{}, zap.NewNop().Sugar())
	ctx := context.Background()

	convey.Convey("Given a rating service", t, func() {
		convey.Convey("When the user id is missing", func() {
			err := svc.Submit(ctx, SubmitInput{TargetID: "12", TargetType: TargetTypeVenue, Score: 3})
			convey.So(err, convey.ShouldWrap, ErrInvalidInput)
		})

		convey.Convey("When the target id is missing", func() {
			err := svc.Submit(ctx, SubmitInput{UserID: 1, TargetType: TargetTypeVenue, Score: 3})
			convey.So(err, convey.ShouldWrap, ErrInvalidInput)
		})

		convey.Convey("When the score is out of range", func() {
			for _, score := range []int{0, -1, 6, 42} {
				err := svc.Submit(ctx, SubmitInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue, Score: score})
				convey.So(err, convey.ShouldWrap, ErrInvalidInput)
			}
		})

		convey.Convey("When the target type is unknown", func() {
			err := svc.Submit(ctx, SubmitInput{UserID: 1, TargetID: "12", TargetType: "playlist", Score: 3})
			convey.So(err, convey.ShouldWrap, ErrUnknownTargetType)
		})

		convey.Convey("When a deletion names an unknown target type", func() {
			err := svc.Delete(ctx, DeleteInput{UserID: 1, TargetID: "12", TargetType: "playlist"})
			convey.So(err, convey.ShouldWrap, ErrUnknownTargetType)
		})

		convey.Convey("When a deletion is missing the user", func() {
			err := svc.Delete(ctx, DeleteInput{TargetID: "12", TargetType: TargetTypeVenue})
			convey.So(err, convey.ShouldWrap, ErrInvalidInput)
		})
	})
}

// fakeTx satisfies pgx.Tx for the service tests; only Commit and Rollback
// are ever reached, the fake stores ignore the transaction handle.
type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rollbacks++; return nil }

type fakeDB struct {
	tx *fakeTx
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) { return db.tx, nil }

// ratedUsers keeps the user-side ratings array in memory.
type ratedUsers struct {
	missing bool
	ratings []store.UserRating
	writes  int
}

func (u *ratedUsers) Create(context.Context, *store.User) error { return nil }

func (u *ratedUsers) GetByID(context.Context, int64) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (u *ratedUsers) GetByEmail(context.Context, string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (u *ratedUsers) Delete(context.Context, int64) error { return nil }

func (u *ratedUsers) RatingsForUpdate(_ context.Context, _ pgx.Tx, _ int64) ([]store.UserRating, error) {
	if u.missing {
		return nil, store.ErrNotFound
	}
	return append([]store.UserRating{}, u.ratings...), nil
}

func (u *ratedUsers) SetRatings(_ context.Context, _ pgx.Tx, _ int64, ratings []store.UserRating) error {
	u.ratings = ratings
	u.writes++
	return nil
}

// ratedVenues keeps the target-side ratings array in memory.
type ratedVenues struct {
	missing bool
	ratings []store.Rating
	writes  int
}

func (v *ratedVenues) Create(context.Context, *store.Venue) error { return nil }

func (v *ratedVenues) GetByID(context.Context, int64) (*store.Venue, error) {
	return nil, store.ErrNotFound
}

func (v *ratedVenues) Update(context.Context, int64, map[string]any) error { return nil }

func (v *ratedVenues) AddEventID(context.Context, int64, string) error { return nil }

func (v *ratedVenues) RemoveEventID(context.Context, int64, string) error { return nil }

func (v *ratedVenues) SetActive(context.Context, int64, bool) error { return nil }

func (v *ratedVenues) Delete(context.Context, int64) error { return nil }

func (v *ratedVenues) RatingsForUpdate(_ context.Context, _ pgx.Tx, _ string) ([]store.Rating, error) {
	if v.missing {
		return nil, store.ErrNotFound
	}
	return append([]store.Rating{}, v.ratings...), nil
}

func (v *ratedVenues) SetRatings(_ context.Context, _ pgx.Tx, _ string, ratings []store.Rating) error {
	v.ratings = ratings
	v.writes++
	return nil
}

func newRatingService(users *ratedUsers, venues *ratedVenues) (*Service, *fakeTx) {
	tx := &fakeTx{}
	st := store.Storage{Users: users, Venues: venues}
	return NewService(&fakeDB{tx: tx}, st, zap.NewNop().Sugar()), tx
}

func TestSubmitTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces both sides and commits", func(t *testing.T) {
		users := &ratedUsers{ratings: []store.UserRating{
			{TargetID: "12", TargetType: TargetTypeVenue, Score: 2},
			{TargetID: "ev-9", TargetType: TargetTypeEvent, Score: 4},
		}}
		venues := &ratedVenues{ratings: []store.Rating{
			{UserID: 1, Score: 2},
			{UserID: 2, Score: 5},
		}}
		svc, tx := newRatingService(users, venues)

		err := svc.Submit(ctx, SubmitInput{
			UserID: 1, TargetID: "12", TargetType: TargetTypeVenue,
			TargetName: "Blue Note", Score: 4,
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}

		if len(venues.ratings) != 2 {
			t.Fatalf("target ratings = %v, want two entries", venues.ratings)
		}
		for _, r := range venues.ratings {
			if r.UserID == 1 && r.Score != 4 {
				t.Errorf("target entry for user 1 = %d, want replaced score 4", r.Score)
			}
		}
		if len(users.ratings) != 2 {
			t.Fatalf("user ratings = %v, want two entries", users.ratings)
		}
		for _, r := range users.ratings {
			if r.TargetID == "12" && (r.Score != 4 || r.Name != "Blue Note") {
				t.Errorf("user entry for target 12 = %+v, want score 4 with name", r)
			}
		}
		if tx.commits != 1 {
			t.Errorf("commits = %d, want 1", tx.commits)
		}
	})

	t.Run("missing target fails with no writes", func(t *testing.T) {
		users := &ratedUsers{}
		venues := &ratedVenues{missing: true}
		svc, tx := newRatingService(users, venues)

		err := svc.Submit(ctx, SubmitInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue, Score: 3})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("error = %v, want not found", err)
		}
		if users.writes != 0 || venues.writes != 0 {
			t.Error("failed submission still wrote ratings")
		}
		if tx.commits != 0 || tx.rollbacks == 0 {
			t.Errorf("commits=%d rollbacks=%d, want rollback only", tx.commits, tx.rollbacks)
		}
	})

	t.Run("missing user fails with no writes", func(t *testing.T) {
		users := &ratedUsers{missing: true}
		venues := &ratedVenues{}
		svc, tx := newRatingService(users, venues)

		err := svc.Submit(ctx, SubmitInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue, Score: 3})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("error = %v, want not found", err)
		}
		if venues.writes != 0 {
			t.Error("failed submission still wrote the target side")
		}
		if tx.commits != 0 {
			t.Errorf("commits = %d, want 0", tx.commits)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("missing target skips that side but clears the user", func(t *testing.T) {
		users := &ratedUsers{ratings: []store.UserRating{
			{TargetID: "12", TargetType: TargetTypeVenue, Score: 4},
			{TargetID: "ev-9", TargetType: TargetTypeEvent, Score: 5},
		}}
		venues := &ratedVenues{missing: true}
		svc, tx := newRatingService(users, venues)

		err := svc.Delete(ctx, DeleteInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue})
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if venues.writes != 0 {
			t.Error("missing target was still written")
		}
		if len(users.ratings) != 1 || users.ratings[0].TargetID != "ev-9" {
			t.Errorf("user ratings = %v, want only the other target", users.ratings)
		}
		if tx.commits != 1 {
			t.Errorf("commits = %d, want 1", tx.commits)
		}
	})

	t.Run("missing user fails the deletion", func(t *testing.T) {
		users := &ratedUsers{missing: true}
		venues := &ratedVenues{ratings: []store.Rating{{UserID: 1, Score: 4}}}
		svc, tx := newRatingService(users, venues)

		err := svc.Delete(ctx, DeleteInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("error = %v, want not found", err)
		}
		if tx.commits != 0 || tx.rollbacks == 0 {
			t.Errorf("commits=%d rollbacks=%d, want rollback only", tx.commits, tx.rollbacks)
		}
	})

	t.Run("submit, delete, resubmit leaves one fresh entry", func(t *testing.T) {
		users := &ratedUsers{}
		venues := &ratedVenues{}
		svc, tx := newRatingService(users, venues)

		in := SubmitInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue, TargetName: "Blue Note", Score: 5}
		if err := svc.Submit(ctx, in); err != nil {
			t.Fatalf("first Submit: %v", err)
		}
		if err := svc.Delete(ctx, DeleteInput{UserID: 1, TargetID: "12", TargetType: TargetTypeVenue}); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if len(venues.ratings) != 0 || len(users.ratings) != 0 {
			t.Fatalf("ratings after delete: target=%v user=%v, want both empty", venues.ratings, users.ratings)
		}

		in.Score = 2
		if err := svc.Submit(ctx, in); err != nil {
			t.Fatalf("second Submit: %v", err)
		}
		if len(venues.ratings) != 1 || venues.ratings[0].Score != 2 {
			t.Errorf("target ratings = %v, want single entry with score 2", venues.ratings)
		}
		if len(users.ratings) != 1 || users.ratings[0].Score != 2 {
			t.Errorf("user ratings = %v, want single entry with score 2", users.ratings)
		}
		if tx.commits != 3 {
			t.Errorf("commits = %d, want 3", tx.commits)
		}
	})
}
