package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"venuedir/internal/directory"
	"venuedir/internal/params"
	"venuedir/internal/rating"
	"venuedir/internal/store"
)

type AddEventPayload struct {
	Title       string   `json:"title" validate:"required,max=150"`
	Description string   `json:"description" validate:"required,max=2000"`
	Date        string   `json:"date" validate:"required"`
	Duration    *float64 `json:"duration,omitempty"`
	Category    string   `json:"category" validate:"required,max=50"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	TicketURL   *string  `json:"ticket_url,omitempty"`
}

// AddEvent godoc
//
//	@Summary		Create an event for a venue
//	@Description	Creates the event, uploads its image and links the id into the venue's events list.
//	@Tags			Event
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			event	formData	string	true	"Event details (JSON string)"
//	@Param			image	formData	file	false	"Event image"
//	@Success		201		{object}	store.Event
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/events [post]
func (app *application) addEventHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload AddEventPayload
	image, closer, err := app.parseSingleImage(w, r, "event", "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	event, err := app.directory.AddEvent(r.Context(), venueID, directory.AddEventInput{
		Title:       payload.Title,
		Description: payload.Description,
		DateRaw:     payload.Date,
		Duration:    payload.Duration,
		Category:    payload.Category,
		Price:       payload.Price,
		Currency:    payload.Currency,
		TicketURL:   payload.TicketURL,
		Image:       image,
	})
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

	app.jsonResponse(w, http.StatusCreated, event)
}

type EventResponse struct {
	*store.Event
	Rating rating.Aggregate `json:"rating"`
}

// GetEvent godoc
//
//	@Summary	Fetch a single event
//	@Tags		Event
//	@Produce	json
//	@Param		venueID	path		int		true	"Venue ID"
//	@Param		eventID	path		string	true	"Event ID"
//	@Success	200		{object}	EventResponse
//	@Failure	404		{object}	error
//	@Router		/venues/{venueID}/events/{eventID} [get]
func (app *application) getEventHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.directory.Event(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil || event.VenueID != venueID {
		if err == nil || errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, store.ErrNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, EventResponse{
		Event:  event,
		Rating: rating.ComputeAggregate(event.Ratings),
	})
}

type EventListResponse struct {
	Events     []store.Event     `json:"events"`
	Pagination params.Pagination `json:"pagination"`
}

// ListVenueEvents godoc
//
//	@Summary	List a venue's events
//	@Tags		Event
//	@Produce	json
//	@Param		venueID	path		int	true	"Venue ID"
//	@Param		page	query		int	false	"Page number"		default(1)
//	@Param		limit	query		int	false	"Items per page"	default(20)
//	@Success	200		{object}	EventListResponse
//	@Router		/venues/{venueID}/events [get]
func (app *application) listVenueEventsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := params.ParsePagination(r.URL.Query())

	events, total, err := app.store.Events.ListByVenue(r.Context(), venueID, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if events == nil {
		events = []store.Event{}
	}

	app.jsonResponse(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: p,
	})
}

type UpdateEventPayload struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=150"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Date        *string  `json:"date,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Price       *float64 `json:"price,omitempty"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	TicketURL   *string  `json:"ticket_url,omitempty"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=active cancelled suspended"`
	RemoveImage bool     `json:"remove_image,omitempty"`
}

// UpdateEvent godoc
//
//	@Summary	Update an event
//	@Tags		Event
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		venueID	path		int		true	"Venue ID"
//	@Param		eventID	path		string	true	"Event ID"
//	@Param		event	formData	string	true	"Changed fields (JSON string)"
//	@Param		image	formData	file	false	"Replacement image"
//	@Success	200		{object}	store.Event
//	@Failure	400		{object}	error
//	@Failure	404		{object}	error
//	@Security	ApiKeyAuth
//	@Router		/venues/{venueID}/events/{eventID} [patch]
func (app *application) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	var payload UpdateEventPayload
	image, closer, err := app.parseSingleImage(w, r, "event", "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	in := directory.UpdateEventInput{
		Title:       payload.Title,
		Description: payload.Description,
		DateRaw:     payload.Date,
		Duration:    payload.Duration,
		Category:    payload.Category,
		Price:       payload.Price,
		Currency:    payload.Currency,
		TicketURL:   payload.TicketURL,
		Status:      payload.Status,
	}
	switch {
	case image != nil:
		in.Image = directory.ImageUpdate{Kind: directory.LogoReplace, Upload: image}
	case payload.RemoveImage:
		in.Image = directory.ImageUpdate{Kind: directory.LogoRemove}
	}

	event, err := app.directory.UpdateEvent(r.Context(), venueID, eventID, in)
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

	app.jsonResponse(w, http.StatusOK, event)
}

// DeleteEvent godoc
//
//	@Summary		Delete an event
//	@Description	Removes the event's image blob, the event itself and the venue's reference to it.
//	@Tags			Event
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			eventID	path		string	true	"Event ID"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/events/{eventID} [delete]
func (app *application) deleteEventHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := app.venueIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	event, err := app.directory.Event(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if event.VenueID != venueID {
		app.notFoundResponse(w, r, store.ErrNotFound)
		return
	}

	imageURL := ""
	if event.ImageURL != nil {
		imageURL = *event.ImageURL
	}

	if err := app.directory.DeleteEvent(r.Context(), venueID, eventID, imageURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "event deleted"})
}
