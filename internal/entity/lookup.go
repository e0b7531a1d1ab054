// Package entity defines the entities and errors used in the application.
// It includes the Lookup struct, which represents the result of resolving
// the view count of a single video or post URL, and the Platform enum the
// URL was classified into.
package entity

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrNoViews is returned by a fetcher when the page or API response carries no view count.
	ErrNoViews = errors.New("no view count found")
	// ErrUnsupportedPlatform is returned when a URL does not belong to any known platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrLookupExists is returned when attempting to save a lookup with an ID that already exists.
	ErrLookupExists = errors.New("lookup exists")
	// ErrLookupNotFound is returned when a lookup with the specified ID cannot be found.
	ErrLookupNotFound = errors.New("lookup not found")
)

// Lookup is the outcome of resolving one submitted URL.
type Lookup struct {
	ID        string    // ID is assigned when the lookup is persisted. Empty otherwise.
	URL       string    // URL is the normalized input URL.
	Platform  Platform  // Platform is the platform the URL was classified into.
	Views     *int64    // Views is the view count, nil when no value was found.
	Error     string    // Error is the reason no value was found. Never shown to form users.
	FetchedAt time.Time // FetchedAt is the moment the lookup finished.
}

// ViewsText returns the view count as a decimal string or an empty string.
func (l Lookup) ViewsText() string {
	if l.Views == nil {
		return ""
	}
	return strconv.FormatInt(*l.Views, 10)
}

// Found reports whether a view count was obtained.
func (l Lookup) Found() bool {
	return l.Views != nil
}
