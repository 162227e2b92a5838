package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"venuedir/internal/rating"
	"venuedir/internal/store"
)

type SubmitRatingPayload struct {
	Score      int    `json:"score" validate:"required,min=1,max=5"`
	TargetName string `json:"target_name" validate:"required,max=150"`
}

// ratingMessage is what rating endpoints hand back: the message plus how
// long the client should display it before clearing.
type ratingMessage struct {
	Message           string `json:"message"`
	ClearAfterSeconds int    `json:"clear_after_seconds"`
}

// SubmitRating godoc
//
//	@Summary		Rate a venue or event
//	@Description	Records or replaces the caller's 1-5 score; both the target's and the user's rating lists move together.
//	@Tags			Rating
//	@Accept			json
//	@Produce		json
//	@Param			targetType	path		string				true	"venue or event"
//	@Param			targetID	path		string				true	"Target ID"
//	@Param			payload		body		SubmitRatingPayload	true	"Score"
//	@Success		200			{object}	ratingMessage
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/ratings/{targetType}/{targetID} [put]
func (app *application) submitRatingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SubmitRatingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err := app.ratings.Submit(r.Context(), rating.SubmitInput{
		UserID:     user.ID,
		TargetID:   chi.URLParam(r, "targetID"),
		TargetType: chi.URLParam(r, "targetType"),
		TargetName: payload.TargetName,
		Score:      payload.Score,
	})
	if err != nil {
		app.respondRatingError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, ratingMessage{
		Message:           "rating saved",
		ClearAfterSeconds: rating.SuccessDisplaySeconds,
	})
}

// DeleteRating godoc
//
//	@Summary		Remove the caller's rating
//	@Description	Deletes the score from both sides. A target that no longer exists does not block the deletion.
//	@Tags			Rating
//	@Produce		json
//	@Param			targetType	path		string	true	"venue or event"
//	@Param			targetID	path		string	true	"Target ID"
//	@Success		200			{object}	ratingMessage
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/ratings/{targetType}/{targetID} [delete]
func (app *application) deleteRatingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	err := app.ratings.Delete(r.Context(), rating.DeleteInput{
		UserID:     user.ID,
		TargetID:   chi.URLParam(r, "targetID"),
		TargetType: chi.URLParam(r, "targetType"),
	})
	if err != nil {
		app.respondRatingError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, ratingMessage{
		Message:           "rating removed",
		ClearAfterSeconds: rating.SuccessDisplaySeconds,
	})
}

// GetRatingAggregate godoc
//
//	@Summary	Average score and count for a venue or event
//	@Tags		Rating
//	@Produce	json
//	@Param		targetType	path		string	true	"venue or event"
//	@Param		targetID	path		string	true	"Target ID"
//	@Success	200			{object}	rating.Aggregate
//	@Failure	404			{object}	error
//	@Router		/ratings/{targetType}/{targetID} [get]
func (app *application) getRatingAggregateHandler(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "targetID")

	var ratings []store.Rating
	switch chi.URLParam(r, "targetType") {
	case rating.TargetTypeVenue:
		venueID, err := app.venueIDFromTarget(targetID)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		venue, err := app.store.Venues.GetByID(r.Context(), venueID)
		if err != nil {
			app.respondRatingError(w, r, err)
			return
		}
		ratings = venue.Ratings
	case rating.TargetTypeEvent:
		event, err := app.store.Events.GetByID(r.Context(), targetID)
		if err != nil {
			app.respondRatingError(w, r, err)
			return
		}
		ratings = event.Ratings
	default:
		app.badRequestResponse(w, r, rating.ErrUnknownTargetType)
		return
	}

	app.jsonResponse(w, http.StatusOK, rating.ComputeAggregate(ratings))
}

// respondRatingError maps rating service errors onto HTTP responses. On the
// error path the client keeps the message visible for the standard error
// display window, carried in the Retry-After-style header below.
func (app *application) respondRatingError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("X-Clear-After-Seconds", strconv.Itoa(rating.ErrorDisplaySeconds))

	switch {
	case errors.Is(err, rating.ErrInvalidInput):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

func (app *application) venueIDFromTarget(targetID string) (int64, error) {
	venueID, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid venue target id: %v", err)
	}
	return venueID, nil
}
