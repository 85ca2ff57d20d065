package domain

import "context"

// Coordinates is a resolved WGS84 position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves a free-form address. ok=false means the provider has no match.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (c Coordinates, ok bool, err error)
}
