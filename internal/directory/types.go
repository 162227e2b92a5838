package directory

import "io"

// Upload is a pending file upload: the raw bytes plus the client-side
// filename used to derive the object name.
type Upload struct {
	File     io.Reader
	Filename string
}

// LogoUpdateKind tags the three ways an update payload can talk about the
// logo: leave it alone, replace the file, or drop it entirely.
type LogoUpdateKind int

const (
	LogoUnchanged LogoUpdateKind = iota
	LogoReplace
	LogoRemove
)

type LogoUpdate struct {
	Kind   LogoUpdateKind
	Upload *Upload // set only for LogoReplace
}

// PhotoEntryKind tags one slot of an incoming photo list: either a delivery
// URL the client kept from the current list, or a fresh file to upload.
type PhotoEntryKind int

const (
	PhotoExisting PhotoEntryKind = iota
	PhotoNew
)

type PhotoEntry struct {
	Kind   PhotoEntryKind
	URL    string  // set for PhotoExisting
	Upload *Upload // set for PhotoNew
}

// ImageUpdate mirrors LogoUpdate for an event's single image.
type ImageUpdate struct {
	Kind   LogoUpdateKind
	Upload *Upload
}

// LatLng is a geographic point as supplied by clients.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair is a usable coordinate.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		(p.Lat != 0 || p.Lng != 0)
}

// RegisterVenueInput carries everything the registration saga needs: the
// owner credentials plus the initial venue profile.
type RegisterVenueInput struct {
	OwnerName string
	Email     string
	Password  string

	VenueName   string
	Description string
	Address     string
	City        string
	Country     string
	Capacity    int
	Amenities   []string
	Facebook    *string
	Instagram   *string
	Whatsapp    *string
	Location    LatLng

	Logo   *Upload
	Photos []Upload
}

// UpdateVenueInput is a partial venue update. Nil pointers mean "leave the
// stored value alone"; Photos is reconciled only when PhotosSet is true.
type UpdateVenueInput struct {
	Name        *string
	Description *string
	Address     *string
	City        *string
	Country     *string
	Capacity    *int
	Amenities   []string
	Facebook    *string
	Instagram   *string
	Whatsapp    *string
	Location    *LatLng

	Logo      LogoUpdate
	Photos    []PhotoEntry
	PhotosSet bool
}

// AddEventInput carries a new event's fields. Date arrives pre-parsed; the
// HTTP layer rejects unparseable input before the service sees it.
type AddEventInput struct {
	Title       string
	Description string
	DateRaw     string
	Duration    *float64
	Category    string
	Price       float64
	Currency    string
	TicketURL   *string
	Image       *Upload
}

// UpdateEventInput is a partial event update. DateRaw, when supplied, must
// reparse to a valid timestamp or the whole update fails before any write.
type UpdateEventInput struct {
	Title       *string
	Description *string
	DateRaw     *string
	Duration    *float64
	Category    *string
	Price       *float64
	Currency    *string
	TicketURL   *string
	Status      *string

	Image ImageUpdate
}
