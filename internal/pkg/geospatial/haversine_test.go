package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	assert.Zero(t, Haversine(43.2614, -2.9275, 43.2614, -2.9275))

	// Abando to Moyua in Bilbao is about 630 m.
	d := Haversine(43.2614, -2.9275, 43.2630, -2.9350)
	assert.InDelta(t, 630, d, 40)

	// One degree of latitude.
	assert.InDelta(t, 111_195, Haversine(0, 0, 1, 0), 5)
	assert.Equal(t, Haversine(10, 20, 30, 40), Haversine(30, 40, 10, 20))
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	lat, lon, r := 43.2614, -2.9275, 500.0
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, r)

	assert.Less(t, minLat, lat)
	assert.Greater(t, maxLat, lat)
	assert.Less(t, minLon, lon)
	assert.Greater(t, maxLon, lon)

	// The box edges sit at least r away along each axis.
	assert.GreaterOrEqual(t, Haversine(lat, lon, maxLat, lon), r*0.99)
	assert.GreaterOrEqual(t, Haversine(lat, lon, lat, maxLon), r*0.99)
}

func TestBoundingBox_Pole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(90, 10, 1000)
	assert.Equal(t, 90.0, maxLat)
	assert.Less(t, minLat, 90.0)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}
