package domain

import (
	"slices"
	"time"
)

// Stop is a named physical location served by one or more lines.
type Stop struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	Name      string    `json:"name" yaml:"name" validate:"required"`
	Location  *GeoPoint `json:"location,omitempty" yaml:"location,omitempty"`
	Address   *string   `json:"address,omitempty" yaml:"address,omitempty"`
	Distance  *float64  `json:"distance,omitempty" yaml:"-"` // computed field
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Line is a bus line. Stops holds stop IDs in travel order; a stop may repeat.
type Line struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	Number    string    `json:"number" yaml:"number" validate:"required"`
	Name      *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Stops     []string  `json:"stops" yaml:"stops" validate:"required,min=2,dive,required"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// IndexOf returns the position of the first occurrence of stopID, or -1.
func (l *Line) IndexOf(stopID string) int {
	return slices.Index(l.Stops, stopID)
}

// StopMarker is a stop on a route segment. Highlighted marks the segment endpoints.
type StopMarker struct {
	StopID      string `json:"stop_id"`
	Name        string `json:"name"`
	Highlighted bool   `json:"highlighted"`
}

// RouteSegment is the part of a line a rider travels between origin and destination.
type RouteSegment struct {
	LineID     string       `json:"line_id"`
	LineNumber string       `json:"line_number"`
	LineName   *string      `json:"line_name,omitempty"`
	Stops      []StopMarker `json:"stops"`
	Expanded   bool         `json:"expanded"`
}

// SearchResult is the outcome of a search by stop names.
type SearchResult struct {
	Origin      Stop           `json:"origin"`
	Destination Stop           `json:"destination"`
	Segments    []RouteSegment `json:"segments"`
}

// FavoriteRoute is a route segment saved by a user.
type FavoriteRoute struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	OriginStopID        string    `json:"origin_stop_id"`
	OriginStopName      string    `json:"origin_stop_name"`
	DestinationStopID   string    `json:"destination_stop_id"`
	DestinationStopName string    `json:"destination_stop_name"`
	LineID              string    `json:"line_id"`
	LineNumber          string    `json:"line_number"`
	LineName            *string   `json:"line_name,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// RecentSearch is an entry in a user's search history.
type RecentSearch struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	OriginStopID        string    `json:"origin_stop_id"`
	OriginStopName      string    `json:"origin_stop_name"`
	DestinationStopID   string    `json:"destination_stop_id"`
	DestinationStopName string    `json:"destination_stop_name"`
	SearchedAt          time.Time `json:"searched_at"`
}

// UserProfile holds account details of an authenticated rider.
type UserProfile struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Catalog is a full snapshot of stops and lines, as loaded by the importer.
type Catalog struct {
	Stops []Stop `json:"stops" yaml:"stops"`
	Lines []Line `json:"lines" yaml:"lines"`
}

// StopIDs returns the ids of c's stops in catalog order.
func (c *Catalog) StopIDs() []string {
	ids := make([]string, 0, len(c.Stops))
	for _, s := range c.Stops {
		ids = append(ids, s.ID)
	}
	return ids
}
