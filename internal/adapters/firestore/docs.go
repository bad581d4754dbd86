package firestoreadapter

import (
	"time"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/pkg/validation"
)

// stopDoc is the stored shape of a document in the stops collection.
type stopDoc struct {
	Name      string    `firestore:"name" validate:"required"`
	Latitude  *float64  `firestore:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64  `firestore:"longitude,omitempty" validate:"omitempty,longitude"`
	Address   *string   `firestore:"address,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d *stopDoc) toDomain(id string) (domain.Stop, error) {
	if err := validation.Struct(d); err != nil {
		return domain.Stop{}, err
	}
	s := domain.Stop{ID: id, Name: d.Name, Address: d.Address, CreatedAt: d.CreatedAt}
	if d.Latitude != nil && d.Longitude != nil {
		s.Location = &domain.GeoPoint{Lat: *d.Latitude, Lon: *d.Longitude}
	}
	return s, nil
}

func stopToDoc(s domain.Stop) stopDoc {
	d := stopDoc{Name: s.Name, Address: s.Address, CreatedAt: s.CreatedAt}
	if s.Location != nil {
		lat, lon := s.Location.Lat, s.Location.Lon
		d.Latitude, d.Longitude = &lat, &lon
	}
	return d
}

// busDoc is the stored shape of a document in the buses collection.
type busDoc struct {
	BusNumber string    `firestore:"busNumber" validate:"required"`
	RouteName *string   `firestore:"routeName,omitempty"`
	Stops     []string  `firestore:"stops" validate:"required,min=2,dive,required"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d *busDoc) toDomain(id string) (domain.Line, error) {
	if err := validation.Struct(d); err != nil {
		return domain.Line{}, err
	}
	return domain.Line{
		ID:        id,
		Number:    d.BusNumber,
		Name:      d.RouteName,
		Stops:     d.Stops,
		Active:    d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func lineToDoc(l domain.Line) busDoc {
	return busDoc{
		BusNumber: l.Number,
		RouteName: l.Name,
		Stops:     l.Stops,
		IsActive:  l.Active,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

type favoriteDoc struct {
	UserID              string    `firestore:"userId"`
	OriginStopID        string    `firestore:"originStopId"`
	OriginStopName      string    `firestore:"originStopName"`
	DestinationStopID   string    `firestore:"destinationStopId"`
	DestinationStopName string    `firestore:"destinationStopName"`
	LineID              string    `firestore:"lineId"`
	BusNumber           string    `firestore:"busNumber"`
	BusRoute            string    `firestore:"busRoute"`
	IsFavorite          bool      `firestore:"isFavorite"`
	CreatedAt           time.Time `firestore:"createdAt"`
}

func favoriteToDoc(f *domain.FavoriteRoute) favoriteDoc {
	d := favoriteDoc{
		UserID:              f.UserID,
		OriginStopID:        f.OriginStopID,
		OriginStopName:      f.OriginStopName,
		DestinationStopID:   f.DestinationStopID,
		DestinationStopName: f.DestinationStopName,
		LineID:              f.LineID,
		BusNumber:           f.LineNumber,
		IsFavorite:          true,
		CreatedAt:           f.CreatedAt,
	}
	if f.LineName != nil {
		d.BusRoute = *f.LineName
	}
	return d
}

func (d *favoriteDoc) toDomain(id string) domain.FavoriteRoute {
	f := domain.FavoriteRoute{
		ID:                  id,
		UserID:              d.UserID,
		OriginStopID:        d.OriginStopID,
		OriginStopName:      d.OriginStopName,
		DestinationStopID:   d.DestinationStopID,
		DestinationStopName: d.DestinationStopName,
		LineID:              d.LineID,
		LineNumber:          d.BusNumber,
		CreatedAt:           d.CreatedAt,
	}
	if d.BusRoute != "" {
		name := d.BusRoute
		f.LineName = &name
	}
	return f
}

type recentDoc struct {
	UserID              string    `firestore:"userId"`
	OriginStopID        string    `firestore:"originStopId"`
	OriginStopName      string    `firestore:"originStopName"`
	DestinationStopID   string    `firestore:"destinationStopId"`
	DestinationStopName string    `firestore:"destinationStopName"`
	SearchedAt          time.Time `firestore:"searchedAt"`
}

func recentToDoc(s *domain.RecentSearch) recentDoc {
	return recentDoc{
		UserID:              s.UserID,
		OriginStopID:        s.OriginStopID,
		OriginStopName:      s.OriginStopName,
		DestinationStopID:   s.DestinationStopID,
		DestinationStopName: s.DestinationStopName,
		SearchedAt:          s.SearchedAt,
	}
}

func (d *recentDoc) toDomain(id string) domain.RecentSearch {
	return domain.RecentSearch{
		ID:                  id,
		UserID:              d.UserID,
		OriginStopID:        d.OriginStopID,
		OriginStopName:      d.OriginStopName,
		DestinationStopID:   d.DestinationStopID,
		DestinationStopName: d.DestinationStopName,
		SearchedAt:          d.SearchedAt,
	}
}

type userDoc struct {
	UID       string    `firestore:"uid"`
	Email     string    `firestore:"email"`
	FullName  string    `firestore:"fullName"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}
