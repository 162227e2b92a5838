// Package directory keeps the venue-event relationship, the venue location
// projection and the blob store consistent across venue and event
// create/update/delete flows. Writes inside one operation are sequential;
// registration failures are unwound by a best-effort compensation saga
// rather than a transaction.
package directory

import (
	"context"
	"io"

	"go.uber.org/zap"

	"venuedir/internal/blob"
	"venuedir/internal/store"
)

// BlobStore is the slice of the object store this service relies on.
type BlobStore interface {
	Upload(ctx context.Context, file io.Reader, folder, name string) (string, error)
	Delete(ctx context.Context, fileURL, requiredPrefix string) error
}

type Service struct {
	store  store.Storage
	blobs  BlobStore
	logger *zap.SugaredLogger
}

func NewService(st store.Storage, blobs BlobStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: st, blobs: blobs, logger: logger}
}

// compensation is one undo step of the registration saga. Steps run in
// order, each independently: a failed compensation is logged and does not
// block the ones after it.
type compensation struct {
	name string
	run  func(context.Context) error
}

func (s *Service) compensate(ctx context.Context, comps []compensation) {
	for _, c := range comps {
		if err := c.run(ctx); err != nil {
			s.logger.Errorw("registration compensation failed", "step", c.name, "error", err)
		} else {
			s.logger.Infow("registration compensation applied", "step", c.name)
		}
	}
}

// RegisterVenue creates the owner account, uploads the initial images,
// writes the venue and its location projection. Account creation failing
// aborts with no side effects; any later failure triggers the compensation
// saga and returns the original error.
func (s *Service) RegisterVenue(ctx context.Context, in RegisterVenueInput) (*store.Venue, *store.User, error) {
	if err := validateSocials(in.Facebook, in.Instagram, in.Whatsapp); err != nil {
		return nil, nil, err
	}
	if !in.Location.Valid() {
		return nil, nil, invalid("location", "lat/lng pair is out of range")
	}
	if len(in.Photos) > MaxVenuePhotos {
		return nil, nil, invalid("photos", "at most 5 photos are allowed")
	}

	user := &store.User{
		Name:  in.OwnerName,
		Email: in.Email,
	}
	if err := user.Password.Set(in.Password); err != nil {
		return nil, nil, err
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	comps := []compensation{
		{"delete venue", func(c context.Context) error { return s.store.Venues.Delete(c, user.ID) }},
		{"delete venue location", func(c context.Context) error { return s.store.VenueLocations.Delete(c, user.ID) }},
		{"delete owner account", func(c context.Context) error { return s.store.Users.Delete(c, user.ID) }},
	}

	var logoURL *string
	if in.Logo != nil {
		url, err := s.blobs.Upload(ctx, in.Logo.File, blob.LogoFolder(user.ID), in.Logo.Filename)
		if err != nil {
			s.compensate(ctx, comps)
			return nil, nil, err
		}
		logoURL = &url
	}

	photoURLs := []string{}
	for _, photo := range in.Photos {
		url, err := s.blobs.Upload(ctx, photo.File, blob.PhotosFolder(user.ID), photo.Filename)
		if err != nil {
			s.compensate(ctx, comps)
			return nil, nil, err
		}
		photoURLs = append(photoURLs, url)
	}

	venue := &store.Venue{
		ID:          user.ID,
		Name:        in.VenueName,
		Description: in.Description,
		Address:     in.Address,
		City:        in.City,
		Country:     in.Country,
		Capacity:    in.Capacity,
		LogoURL:     logoURL,
		PhotoURLs:   photoURLs,
		Amenities:   in.Amenities,
		Facebook:    in.Facebook,
		Instagram:   in.Instagram,
		Whatsapp:    in.Whatsapp,
		Location:    []float64{in.Location.Lng, in.Location.Lat},
	}
	if err := s.store.Venues.Create(ctx, venue); err != nil {
		s.compensate(ctx, comps)
		return nil, nil, err
	}

	if err := s.syncVenueLocation(ctx, venue); err != nil {
		s.compensate(ctx, comps)
		return nil, nil, err
	}

	return venue, user, nil
}

// UpdateVenue resolves the partial update against the current venue state,
// issues a single document update and re-syncs the location projection. The
// returned venue is the optimistic merge of current state and resolved
// fields, not a re-read.
func (s *Service) UpdateVenue(ctx context.Context, venueID int64, in UpdateVenueInput) (*store.Venue, error) {
	if err := validateSocials(in.Facebook, in.Instagram, in.Whatsapp); err != nil {
		return nil, err
	}
	if in.PhotosSet && len(in.Photos) > MaxVenuePhotos {
		return nil, invalid("photos", "at most 5 photos are allowed")
	}

	current, err := s.store.Venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}

	merged := *current
	fields := map[string]any{}

	setString := func(col string, val *string, dst *string) {
		if val != nil {
			fields[col] = *val
			*dst = *val
		}
	}
	setString("name", in.Name, &merged.Name)
	setString("description", in.Description, &merged.Description)
	setString("address", in.Address, &merged.Address)
	setString("city", in.City, &merged.City)
	setString("country", in.Country, &merged.Country)

	if in.Capacity != nil {
		fields["capacity"] = *in.Capacity
		merged.Capacity = *in.Capacity
	}
	if in.Amenities != nil {
		fields["amenities"] = in.Amenities
		merged.Amenities = in.Amenities
	}
	if in.Facebook != nil {
		fields["facebook"] = *in.Facebook
		merged.Facebook = in.Facebook
	}
	if in.Instagram != nil {
		fields["instagram"] = *in.Instagram
		merged.Instagram = in.Instagram
	}
	if in.Whatsapp != nil {
		fields["whatsapp"] = *in.Whatsapp
		merged.Whatsapp = in.Whatsapp
	}
	if in.Location != nil && in.Location.Valid() {
		loc := []float64{in.Location.Lng, in.Location.Lat}
		fields["location"] = loc
		merged.Location = loc
	}

	if logoURL, changed := s.resolveLogo(ctx, venueID, current.LogoURL, in.Logo); changed {
		fields["logo_url"] = logoURL
		merged.LogoURL = logoURL
	}

	if in.PhotosSet {
		merged.PhotoURLs = s.reconcilePhotos(ctx, venueID, current.PhotoURLs, in.Photos)
		fields["photo_urls"] = merged.PhotoURLs
	}

	if len(fields) > 0 {
		if err := s.store.Venues.Update(ctx, venueID, fields); err != nil {
			return nil, err
		}
	}

	if err := s.syncVenueLocation(ctx, &merged); err != nil {
		// Projection sync is retried on the next mutation; the venue write
		// already landed.
		s.logger.Errorw("venue location sync failed", "venue_id", venueID, "error", err)
	}

	return &merged, nil
}

// resolveLogo applies the logo variant. Replace falls back to the old URL
// when the upload fails, so the reference is never lost; blob deletions are
// best-effort and never block the document write.
func (s *Service) resolveLogo(ctx context.Context, venueID int64, currentURL *string, update LogoUpdate) (*string, bool) {
	switch update.Kind {
	case LogoReplace:
		if currentURL != nil {
			if err := s.blobs.Delete(ctx, *currentURL, blob.VenuePrefix(venueID)); err != nil {
				s.logger.Errorw("old logo deletion failed", "venue_id", venueID, "error", err)
			}
		}
		url, err := s.blobs.Upload(ctx, update.Upload.File, blob.LogoFolder(venueID), update.Upload.Filename)
		if err != nil {
			s.logger.Errorw("logo upload failed, keeping previous URL", "venue_id", venueID, "error", err)
			return currentURL, false
		}
		return &url, true
	case LogoRemove:
		if currentURL != nil {
			if err := s.blobs.Delete(ctx, *currentURL, blob.VenuePrefix(venueID)); err != nil {
				s.logger.Errorw("logo deletion failed", "venue_id", venueID, "error", err)
			}
		}
		return nil, true
	default:
		return currentURL, false
	}
}

// reconcilePhotos executes the photo plan: delete dropped blobs, upload new
// files, and return the final ordered list (survivors first, new uploads
// appended).
func (s *Service) reconcilePhotos(ctx context.Context, venueID int64, current []string, incoming []PhotoEntry) []string {
	plan := planPhotos(current, incoming)

	for _, url := range plan.Drop {
		if err := s.blobs.Delete(ctx, url, blob.VenuePrefix(venueID)); err != nil {
			s.logger.Errorw("photo deletion failed", "venue_id", venueID, "url", url, "error", err)
		}
	}

	final := append([]string{}, plan.Keep...)
	for _, up := range plan.Uploads {
		url, err := s.blobs.Upload(ctx, up.File, blob.PhotosFolder(venueID), up.Filename)
		if err != nil {
			s.logger.Errorw("photo upload failed, skipping file", "venue_id", venueID, "file", up.Filename, "error", err)
			continue
		}
		final = append(final, url)
	}
	return final
}

// DeactivateVenue soft-deletes: the venue row flips to inactive and the
// projection follows, but neither row is removed. Map and list queries
// filter on active, so the venue simply disappears from public surfaces.
func (s *Service) DeactivateVenue(ctx context.Context, venueID int64) error {
	if err := s.store.Venues.SetActive(ctx, venueID, false); err != nil {
		return err
	}
	return s.store.VenueLocations.Upsert(ctx, venueID, map[string]any{"active": false})
}

// syncVenueLocation re-projects the venue's public subset with merge
// semantics.
func (s *Service) syncVenueLocation(ctx context.Context, v *store.Venue) error {
	fields := map[string]any{
		"name":     v.Name,
		"address":  v.Address,
		"city":     v.City,
		"country":  v.Country,
		"logo_url": v.LogoURL,
		"active":   v.Active,
	}
	if len(v.Location) == 2 {
		fields["location"] = v.Location
	}
	return s.store.VenueLocations.Upsert(ctx, v.ID, fields)
}

// Venue reads a single venue.
func (s *Service) Venue(ctx context.Context, venueID int64) (*store.Venue, error) {
	return s.store.Venues.GetByID(ctx, venueID)
}
