package main

import (
	"net/http"

	"venuedir/internal/params"
	"venuedir/internal/store"
)

type VenueLocationListResponse struct {
	Locations  []store.VenueLocation `json:"locations"`
	Pagination params.Pagination     `json:"pagination"`
}

// ListVenueLocations godoc
//
//	@Summary		List venue locations
//	@Description	Paginated list of the active venue projections used by the map and list views.
//	@Tags			Venue
//	@Produce		json
//	@Param			page	query		int	false	"Page number"		default(1)
//	@Param			limit	query		int	false	"Items per page"	default(20)
//	@Success		200		{object}	VenueLocationListResponse
//	@Router			/locations [get]
func (app *application) listVenueLocationsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	locations, total, err := app.store.VenueLocations.List(r.Context(), p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if locations == nil {
		locations = []store.VenueLocation{}
	}

	app.jsonResponse(w, http.StatusOK, VenueLocationListResponse{
		Locations:  locations,
		Pagination: p,
	})
}
