package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"venuedir/internal/directory"
	"venuedir/internal/mailer"
	"venuedir/internal/store"
)

type RegisterVenuePayload struct {
	OwnerName string `json:"owner_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`

	VenueName   string   `json:"venue_name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Address     string   `json:"address" validate:"required,max=255"`
	City        string   `json:"city" validate:"required,max=100"`
	Country     string   `json:"country" validate:"required,max=100"`
	Capacity    int      `json:"capacity" validate:"required,min=1"`
	Amenities   []string `json:"amenities,omitempty" validate:"max=50"`
	Facebook    *string  `json:"facebook,omitempty" validate:"omitempty,socialurl=facebook.com"`
	Instagram   *string  `json:"instagram,omitempty" validate:"omitempty,socialurl=instagram.com"`
	Whatsapp    *string  `json:"whatsapp,omitempty" validate:"omitempty,intlphone"`

	Location directory.LatLng `json:"location" validate:"required"`
}

type RegisteredVenueResponse struct {
	Venue        *store.Venue `json:"venue"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// RegisterVenue godoc
//
//	@Summary		Register a venue owner and their venue
//	@Description	Creates the owner account, uploads logo and photos, writes the venue and its map projection in one flow.
//	@Tags			authentication
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			venue	formData	string	true	"Venue and owner details (JSON string)"
//	@Param			logo	formData	file	false	"Venue logo"
//	@Param			photos	formData	[]file	false	"Venue photos (up to 5)"
//	@Success		201		{object}	RegisteredVenueResponse
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Failure		500		{object}	error
//	@Router			/authentication/register [post]
func (app *application) registerVenueHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterVenuePayload

	form, err := app.parseVenueForm(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in := directory.RegisterVenueInput{
		OwnerName:   payload.OwnerName,
		Email:       payload.Email,
		Password:    payload.Password,
		VenueName:   payload.VenueName,
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
		Logo:        form.Logo,
		Photos:      form.Photos,
	}
	defer form.Close()

	venue, user, err := app.directory.RegisterVenue(r.Context(), in)
	if err != nil {
		var vErr *directory.ValidationError
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.conflictResponse(w, r, err)
		case errors.As(err, &vErr):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Welcome email is best-effort; registration already committed.
	app.background(func() {
		vars := struct {
			Username  string
			VenueName string
		}{
			Username:  user.Name,
			VenueName: venue.Name,
		}
		if _, err := app.mailer.Send(mailer.WelcomeTemplate, user.Name, user.Email, vars); err != nil {
			app.logger.Errorw("welcome email failed", "email", user.Email, "error", err)
		}
	})

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := RegisteredVenueResponse{
		Venue:        venue,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateToken godoc
//
//	@Summary	Sign a venue owner in
//	@Tags		authentication
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		CreateTokenPayload	true	"Owner credentials"
//	@Success	200		{object}	TokenPairResponse
//	@Failure	401		{object}	error
//	@Router		/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken godoc
//
//	@Summary	Exchange a refresh token for a fresh pair
//	@Tags		authentication
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		RefreshTokenPayload	true	"Refresh token"
//	@Success	200		{object}	TokenPairResponse
//	@Failure	401		{object}	error
//	@Router		/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	jwtToken, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, _ := jwtToken.Claims.(jwt.MapClaims)
	userID, err := parseSubject(claims)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	// The account still has to exist; a compensated registration must not
	// keep a working refresh token.
	if _, err := app.store.Users.GetByID(r.Context(), userID); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func parseSubject(claims jwt.MapClaims) (int64, error) {
	sub, ok := claims["sub"]
	if !ok {
		return 0, errors.New("token has no subject")
	}
	f, ok := sub.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected subject type %T", sub)
	}
	return int64(f), nil
}
