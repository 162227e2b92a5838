// Package blob wraps Cloudinary as the binary object store for venue logos,
// venue photos and event images. Objects are addressed by public ID under a
// venue-scoped folder; deletion is guarded by a path-prefix check so one
// venue's flows can never remove another venue's assets.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrForbiddenPath = errors.New("object path is outside the allowed prefix")

// Folder layout under which every object lives.
func LogoFolder(venueID int64) string   { return fmt.Sprintf("venues/%d/logo", venueID) }
func PhotosFolder(venueID int64) string { return fmt.Sprintf("venues/%d/photos", venueID) }
func EventFolder(venueID int64, eventID string) string {
	return fmt.Sprintf("venues/%d/events/%s", venueID, eventID)
}

// VenuePrefix is the deletion guard prefix covering everything a venue owns.
func VenuePrefix(venueID int64) string { return fmt.Sprintf("venues/%d/", venueID) }

// EventPrefix covers a single event's image objects.
func EventPrefix(venueID int64, eventID string) string {
	return fmt.Sprintf("venues/%d/events/%s/", venueID, eventID)
}

type Storage struct {
	cld *cloudinary.Cloudinary
}

func New(cld *cloudinary.Cloudinary) *Storage {
	return &Storage{cld: cld}
}

// Upload stores the file under folder and returns its secure delivery URL.
// The public ID is timestamp-prefixed to avoid CDN caching collisions when a
// slot is re-uploaded. An incoming transformation recompresses the image
// server-side, so oversized originals never reach the delivery cache.
func (s *Storage) Upload(ctx context.Context, file io.Reader, folder, name string) (string, error) {
	publicID := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeName(name))

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		Overwrite:      api.Bool(false),
		Transformation: "q_auto:eco,w_1600,c_limit",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// Delete removes the object behind a delivery URL, but only when its public
// ID lies under requiredPrefix. Deleting an object that is already gone is
// treated as success.
func (s *Storage) Delete(ctx context.Context, fileURL, requiredPrefix string) error {
	publicID, err := ExtractPublicID(fileURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	if !strings.HasPrefix(publicID, requiredPrefix) {
		return fmt.Errorf("%w: %s not under %s", ErrForbiddenPath, publicID, requiredPrefix)
	}

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("failed to delete object: %s", resp.Result)
	}
	return nil
}

// ExtractPublicID parses the public ID out of a Cloudinary delivery URL.
// Delivery URLs look like
// https://res.cloudinary.com/<cloud>/image/upload/v1740815725/venues/12/logo/171234_logo.png;
// the public ID is everything after the version segment, without the file
// extension.
func ExtractPublicID(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsed.Path, "/")
	uploadIndex := -1
	for i, part := range parts {
		if part == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return "", errors.New("failed to extract public ID from URL")
	}

	rest := parts[uploadIndex+1:]
	// Skip the version segment (e.g. "v1740815725") when present.
	if len(rest) > 1 && len(rest[0]) > 1 && rest[0][0] == 'v' && isDigits(rest[0][1:]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", errors.New("failed to extract public ID from URL")
	}

	publicID := strings.Join(rest, "/")
	if dot := strings.LastIndex(publicID, "."); dot > strings.LastIndex(publicID, "/") {
		publicID = publicID[:dot]
	}
	if publicID == "" {
		return "", errors.New("failed to extract public ID from URL")
	}
	return publicID, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sanitizeName(name string) string {
	name = strings.TrimSuffix(name, ".png")
	name = strings.TrimSuffix(name, ".jpg")
	name = strings.TrimSuffix(name, ".jpeg")
	name = strings.TrimSuffix(name, ".webp")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
