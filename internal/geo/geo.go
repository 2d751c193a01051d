// Package geo provides the geographic glue around the solver core: distance
// matrices from coordinates, random customer generation and depot geocoding.
package geo

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"strconv"

	"fleetroute/internal/model"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Destination returns the point reached from start after traveling distKm on
// the given initial bearing (degrees clockwise from north).
func Destination(start model.GeoPoint, bearingDeg, distKm float64) model.GeoPoint {
	lat1 := start.Lat * math.Pi / 180
	lon1 := start.Lng * math.Pi / 180
	brg := bearingDeg * math.Pi / 180
	ad := distKm / earthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ad) + math.Cos(lat1)*math.Sin(ad)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(ad)*math.Cos(lat1), math.Cos(ad)-math.Sin(lat1)*math.Sin(lat2))

	return model.GeoPoint{Lat: lat2 * 180 / math.Pi, Lng: lon2 * 180 / math.Pi}
}

// RandomPoints generates n points with uniform bearing and uniform distance in
// [0, maxKm] around the center.
func RandomPoints(rng *rand.Rand, center model.GeoPoint, n int, maxKm float64) []model.GeoPoint {
	out := make([]model.GeoPoint, n)
	for i := 0; i < n; i++ {
		dist := rng.Float64() * maxKm
		bearing := rng.Float64() * 360
		out[i] = Destination(center, bearing, dist)
	}
	return out
}

// DistanceMatrix builds a symmetric km matrix over the locations. Index order
// follows the input; callers put the depot at index 0.
func DistanceMatrix(locations []model.GeoPoint) [][]float64 {
	n := len(locations)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := HaversineKm(locations[i].Lat, locations[i].Lng, locations[j].Lat, locations[j].Lng)
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// WriteMatrixCSV writes the matrix as CSV rows with two-decimal values.
func WriteMatrixCSV(w io.Writer, m [][]float64) error {
	cw := csv.NewWriter(w)
	row := []string{}
	for _, r := range m {
		row = row[:0]
		for _, d := range r {
			row = append(row, strconv.FormatFloat(d, 'f', 2, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
