package geo

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetroute/internal/model"
)

func TestHaversineKm(t *testing.T) {
	assert.Zero(t, HaversineKm(21.0285, 105.8542, 21.0285, 105.8542))

	// Hanoi to Ho Chi Minh City, roughly 1140 km great-circle.
	d := HaversineKm(21.0285, 105.8542, 10.8231, 106.6297)
	assert.InDelta(t, 1140, d, 20)

	// Symmetric in its arguments.
	assert.InDelta(t, d, HaversineKm(10.8231, 106.6297, 21.0285, 105.8542), 1e-9)
}

func TestDestinationRoundTrip(t *testing.T) {
	start := model.GeoPoint{Lat: 21.0285, Lng: 105.8542}
	for _, dist := range []float64{0.5, 5, 15, 50} {
		for _, bearing := range []float64{0, 45, 90, 180, 270} {
			pt := Destination(start, bearing, dist)
			got := HaversineKm(start.Lat, start.Lng, pt.Lat, pt.Lng)
			assert.InDelta(t, dist, got, 0.01, "bearing %v dist %v", bearing, dist)
		}
	}
}

func TestRandomPointsWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	center := model.GeoPoint{Lat: 21.0285, Lng: 105.8542}
	pts := RandomPoints(rng, center, 200, 15)
	require.Len(t, pts, 200)
	for _, p := range pts {
		d := HaversineKm(center.Lat, center.Lng, p.Lat, p.Lng)
		assert.LessOrEqual(t, d, 15.01)
	}
}

func TestDistanceMatrix(t *testing.T) {
	locs := []model.GeoPoint{
		{Lat: 21.0285, Lng: 105.8542},
		{Lat: 21.0378, Lng: 105.8342},
		{Lat: 21.0045, Lng: 105.8412},
	}
	m := DistanceMatrix(locs)
	require.Len(t, m, 3)
	for i := 0; i < 3; i++ {
		require.Len(t, m[i], 3)
		assert.Zero(t, m[i][i])
		for j := 0; j < 3; j++ {
			assert.Equal(t, m[i][j], m[j][i])
			assert.GreaterOrEqual(t, m[i][j], 0.0)
		}
	}
	assert.Greater(t, m[0][1], 0.0)
}

func TestWriteMatrixCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMatrixCSV(&buf, [][]float64{{0, 1.5}, {1.5, 0}})
	require.NoError(t, err)
	assert.Equal(t, "0.00,1.50\n1.50,0.00\n", buf.String())
}
