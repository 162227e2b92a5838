package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"venuedir/internal/directory"
	"venuedir/internal/rating"
	"venuedir/internal/store"
)

type VenueResponse struct {
	*store.Venue
	Rating    rating.Aggregate `json:"rating"`
	ShareCode string           `json:"share_code,omitempty"`
}

func (app *application) venueIDFromPath(r *http.Request) (int64, error) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid venueID: %v", err)
	}
	if venueID == 0 {
		return 0, errors.New("venue ID is required")
	}
	return venueID, nil
}

// GetVenue godoc
//
//	@Summary	Fetch a venue profile
//	@Tags		Venue
//	@Produce	json
//	@Param		venueID	path		int	true	"Venue ID"
//	@Success	200		{object}	VenueResponse
//	@Failure	404		{object}	error
//	@Router		/venues/{venueID} [get]
func (app *application) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue, err := app.directory.Venue(r.Context(), venueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	code, err := app.shortcodes.Encode(venue.ID)
	if err != nil {
		app.logger.Errorw("share code generation failed", "venue_id", venue.ID, "error", err)
	}

	resp := VenueResponse{
		Venue:     venue,
		Rating:    rating.ComputeAggregate(venue.Ratings),
		ShareCode: code,
	}
	app.jsonResponse(w, http.StatusOK, resp)
}

type UpdateVenuePayload struct {
	Name        *string           `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address     *string           `json:"address,omitempty" validate:"omitempty,max=255"`
	City        *string           `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     *string           `json:"country,omitempty" validate:"omitempty,max=100"`
	Capacity    *int              `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Amenities   []string          `json:"amenities,omitempty" validate:"omitempty,max=50"`
	Facebook    *string           `json:"facebook,omitempty" validate:"omitempty,socialurl=facebook.com"`
	Instagram   *string           `json:"instagram,omitempty" validate:"omitempty,socialurl=instagram.com"`
	Whatsapp    *string           `json:"whatsapp,omitempty" validate:"omitempty,intlphone"`
	Location    *directory.LatLng `json:"location,omitempty"`

	// Photos lists the delivery URLs the client kept; URLs missing from it
	// are deleted. Absent means "leave the photo list alone" (new files, if
	// any, are appended to the current list).
	Photos     *[]string `json:"photos,omitempty"`
	RemoveLogo bool      `json:"remove_logo,omitempty"`
}

// UpdateVenue godoc
//
//	@Summary		Update venue information
//	@Description	Partial update of the venue profile, including logo and photo changes; the map projection is re-synced afterwards.
//	@Tags			Venue
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			venue	formData	string	true	"Changed fields (JSON string)"
//	@Param			logo	formData	file	false	"Replacement logo"
//	@Param			photos	formData	[]file	false	"New photos"
//	@Success		200		{object}	store.Venue
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID} [patch]
func (app *application) updateVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateVenuePayload
	form, err := app.parseVenueForm(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer form.Close()

	in := directory.UpdateVenueInput{
		Name:        payload.Name,
		Description: payload.Description,
		Address:     payload.Address,
		City:        payload.City,
		Country:     payload.Country,
		Capacity:    payload.Capacity,
		Amenities:   payload.Amenities,
		Facebook:    payload.Facebook,
		Instagram:   payload.Instagram,
		Whatsapp:    payload.Whatsapp,
		Location:    payload.Location,
	}

	// Resolve the logo tri-state: attached file wins, then explicit
	// removal, otherwise untouched.
	switch {
	case form.Logo != nil:
		in.Logo = directory.LogoUpdate{Kind: directory.LogoReplace, Upload: form.Logo}
	case payload.RemoveLogo:
		in.Logo = directory.LogoUpdate{Kind: directory.LogoRemove}
	}

	if payload.Photos != nil || len(form.Photos) > 0 {
		keep := []string{}
		if payload.Photos != nil {
			keep = *payload.Photos
		} else {
			// New files with no kept-list means append: the current list
			// survives untouched.
			current, err := app.directory.Venue(r.Context(), venueID)
			if err != nil {
				app.internalServerError(w, r, err)
				return
			}
			keep = current.PhotoURLs
		}

		in.PhotosSet = true
		for _, url := range keep {
			in.Photos = append(in.Photos, directory.PhotoEntry{Kind: directory.PhotoExisting, URL: url})
		}
		for i := range form.Photos {
			in.Photos = append(in.Photos, directory.PhotoEntry{Kind: directory.PhotoNew, Upload: &form.Photos[i]})
		}
	}

	venue, err := app.directory.UpdateVenue(r.Context(), venueID, in)
	if err != nil {
		var vErr *directory.ValidationError
		switch {
		case errors.As(err, &vErr):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, venue)
}

// DeactivateVenue godoc
//
//	@Summary		Deactivate a venue
//	@Description	Soft delete: the venue and its map projection flip to inactive; nothing is removed.
//	@Tags			Venue
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID} [delete]
func (app *application) deactivateVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.directory.DeactivateVenue(r.Context(), venueID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "venue deactivated"})
}
