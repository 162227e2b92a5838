package directory

import (
	"math"
	"net/url"
	"strings"
	"time"
)

// MaxVenuePhotos caps the ordered photo list on a venue profile.
const MaxVenuePhotos = 5

// validateSocials checks the optional social links. Facebook and Instagram
// values must carry their domain; WhatsApp numbers are international format.
func validateSocials(facebook, instagram, whatsapp *string) error {
	if facebook != nil && *facebook != "" && !strings.Contains(*facebook, "facebook.com") {
		return invalid("facebook", "must be a facebook.com link")
	}
	if instagram != nil && *instagram != "" && !strings.Contains(*instagram, "instagram.com") {
		return invalid("instagram", "must be an instagram.com link")
	}
	if whatsapp != nil && *whatsapp != "" && !strings.HasPrefix(*whatsapp, "+") {
		return invalid("whatsapp", "number must start with +")
	}
	return nil
}

// validateTicketURL accepts only absolute http(s) URLs.
func validateTicketURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return invalid("ticket_url", "must be a valid absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("ticket_url", "must use http or https")
	}
	return nil
}

// parseEventDate parses an RFC 3339 timestamp.
func parseEventDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, invalid("date", "must be an RFC 3339 timestamp")
	}
	return t, nil
}

// validateAddEvent runs every precondition for event creation; nothing is
// written when it fails.
func validateAddEvent(in AddEventInput, now time.Time) (time.Time, error) {
	if strings.TrimSpace(in.Title) == "" {
		return time.Time{}, invalid("title", "must not be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return time.Time{}, invalid("description", "must not be empty")
	}
	if strings.TrimSpace(in.Category) == "" {
		return time.Time{}, invalid("category", "must not be empty")
	}
	date, err := parseEventDate(in.DateRaw)
	if err != nil {
		return time.Time{}, err
	}
	if !date.After(now) {
		return time.Time{}, invalid("date", "must be in the future")
	}
	if in.Price < 0 {
		return time.Time{}, invalid("price", "must not be negative")
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return time.Time{}, invalid("duration", "must be a positive number of hours")
	}
	if in.TicketURL != nil && *in.TicketURL != "" {
		if err := validateTicketURL(*in.TicketURL); err != nil {
			return time.Time{}, err
		}
	}
	return date, nil
}

// roundPrice normalizes a price to two decimal places.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

// photoPlan is the outcome of reconciling an incoming photo list against the
// stored one: URLs to keep (incoming order), blobs to delete, files to
// upload. Uploads always land after the kept URLs; the client's interleaved
// ordering of new files is not preserved.
type photoPlan struct {
	Keep    []string
	Drop    []string
	Uploads []Upload
}

// planPhotos compares the incoming entries against the current URL list.
// Existing URLs absent from the incoming list are dropped; incoming URLs
// that were never part of the current list are ignored rather than adopted.
func planPhotos(current []string, incoming []PhotoEntry) photoPlan {
	known := make(map[string]bool, len(current))
	for _, u := range current {
		known[u] = true
	}

	var plan photoPlan
	kept := make(map[string]bool)
	for _, entry := range incoming {
		switch entry.Kind {
		case PhotoExisting:
			if known[entry.URL] && !kept[entry.URL] {
				plan.Keep = append(plan.Keep, entry.URL)
				kept[entry.URL] = true
			}
		case PhotoNew:
			if entry.Upload != nil {
				plan.Uploads = append(plan.Uploads, *entry.Upload)
			}
		}
	}

	for _, u := range current {
		if !kept[u] {
			plan.Drop = append(plan.Drop, u)
		}
	}
	return plan
}
