package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"venuedir/internal/blob"
	"venuedir/internal/store"
)

// AddEvent validates the input, creates the event document, uploads its
// image and links the event id into the venue's events array. The event is
// created with a nil image first and patched after the upload succeeds, so
// a failed upload leaves a valid imageless event rather than nothing.
func (s *Service) AddEvent(ctx context.Context, venueID int64, in AddEventInput) (*store.Event, error) {
	date, err := validateAddEvent(in, time.Now())
	if err != nil {
		return nil, err
	}

	venue, err := s.store.Venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	event := &store.Event{
		ID:          uuid.New().String(),
		VenueID:     venueID,
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Duration:    in.Duration,
		Category:    in.Category,
		Price:       roundPrice(in.Price),
		Currency:    currency,
		TicketURL:   in.TicketURL,
		Status:      store.EventStatusActive,

		// Venue snapshot, captured once at creation and never refreshed.
		VenueName:     venue.Name,
		VenueAddress:  venue.Address,
		VenueCity:     venue.City,
		VenueCountry:  venue.Country,
		VenueCapacity: venue.Capacity,
		VenueLocation: venue.Location,
	}

	if err := s.store.Events.Create(ctx, event); err != nil {
		return nil, err
	}

	if in.Image != nil {
		url, err := s.blobs.Upload(ctx, in.Image.File, blob.EventFolder(venueID, event.ID), in.Image.Filename)
		if err != nil {
			s.logger.Errorw("event image upload failed, event kept without image",
				"event_id", event.ID, "error", err)
		} else if err := s.store.Events.SetImageURL(ctx, event.ID, &url); err != nil {
			s.logger.Errorw("event image patch failed", "event_id", event.ID, "error", err)
		} else {
			event.ImageURL = &url
		}
	}

	if err := s.store.Venues.AddEventID(ctx, venueID, event.ID); err != nil {
		return nil, err
	}

	return event, nil
}

// UpdateEvent resolves a partial update against the stored event and issues
// a single document update. The id and created_at columns are immutable and
// never part of the payload. Supplying an empty ticket URL clears the stored
// link rather than validating it.
func (s *Service) UpdateEvent(ctx context.Context, venueID int64, eventID string, in UpdateEventInput) (*store.Event, error) {
	current, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if current.VenueID != venueID {
		return nil, store.ErrNotFound
	}

	merged := *current
	fields := map[string]any{}

	// A supplied date is reparsed up front; an invalid one fails the whole
	// update before any write.
	if in.DateRaw != nil {
		date, err := parseEventDate(*in.DateRaw)
		if err != nil {
			return nil, err
		}
		if !date.Equal(current.Date) {
			fields["date"] = date
			merged.Date = date
		}
	}
	if in.TicketURL != nil && *in.TicketURL != "" {
		if err := validateTicketURL(*in.TicketURL); err != nil {
			return nil, err
		}
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return nil, invalid("duration", "must be a positive number of hours")
	}

	if in.Title != nil {
		fields["title"] = *in.Title
		merged.Title = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
		merged.Description = *in.Description
	}
	if in.Duration != nil {
		fields["duration"] = *in.Duration
		merged.Duration = in.Duration
	}
	if in.Category != nil {
		fields["category"] = *in.Category
		merged.Category = *in.Category
	}
	if in.Price != nil && *in.Price >= 0 {
		// Invalid or missing prices keep the stored value.
		p := roundPrice(*in.Price)
		fields["price"] = p
		merged.Price = p
	}
	if in.Currency != nil && *in.Currency != "" {
		fields["currency"] = *in.Currency
		merged.Currency = *in.Currency
	}
	if in.TicketURL != nil {
		if *in.TicketURL == "" {
			// Empty string removes the stored link.
			fields["ticket_url"] = nil
			merged.TicketURL = nil
		} else {
			fields["ticket_url"] = *in.TicketURL
			merged.TicketURL = in.TicketURL
		}
	}
	if in.Status != nil {
		// Status transitions are free-form; any value may follow any other.
		fields["status"] = *in.Status
		merged.Status = *in.Status
	}

	if imageURL, changed := s.resolveEventImage(ctx, venueID, eventID, current.ImageURL, in.Image); changed {
		fields["image_url"] = imageURL
		merged.ImageURL = imageURL
	}

	if len(fields) > 0 {
		if err := s.store.Events.Update(ctx, eventID, fields); err != nil {
			return nil, err
		}
	}

	return &merged, nil
}

// resolveEventImage mirrors resolveLogo for an event's single image, scoped
// to the event's own blob folder.
func (s *Service) resolveEventImage(ctx context.Context, venueID int64, eventID string, currentURL *string, update ImageUpdate) (*string, bool) {
	switch update.Kind {
	case LogoReplace:
		if currentURL != nil {
			if err := s.blobs.Delete(ctx, *currentURL, blob.EventPrefix(venueID, eventID)); err != nil {
				s.logger.Errorw("old event image deletion failed", "event_id", eventID, "error", err)
			}
		}
		url, err := s.blobs.Upload(ctx, update.Upload.File, blob.EventFolder(venueID, eventID), update.Upload.Filename)
		if err != nil {
			s.logger.Errorw("event image upload failed, keeping previous URL", "event_id", eventID, "error", err)
			return currentURL, false
		}
		return &url, true
	case LogoRemove:
		if currentURL != nil {
			if err := s.blobs.Delete(ctx, *currentURL, blob.EventPrefix(venueID, eventID)); err != nil {
				s.logger.Errorw("event image deletion failed", "event_id", eventID, "error", err)
			}
		}
		return nil, true
	default:
		return currentURL, false
	}
}

// DeleteEvent removes the image blob, the event document and the venue's
// array reference, in that order. The steps are sequential with no
// compensating rollback; a blob failure is logged and does not block the
// document deletes.
func (s *Service) DeleteEvent(ctx context.Context, venueID int64, eventID string, imageURL string) error {
	if imageURL != "" {
		if err := s.blobs.Delete(ctx, imageURL, blob.EventPrefix(venueID, eventID)); err != nil {
			// Includes the prefix guard refusing a URL outside this event's
			// folder: the foreign blob stays untouched.
			s.logger.Errorw("event image deletion failed", "event_id", eventID, "error", err)
		}
	}

	if err := s.store.Events.Delete(ctx, eventID); err != nil {
		return err
	}

	return s.store.Venues.RemoveEventID(ctx, venueID, eventID)
}

// Event reads a single event.
func (s *Service) Event(ctx context.Context, eventID string) (*store.Event, error) {
	return s.store.Events.GetByID(ctx, eventID)
}
