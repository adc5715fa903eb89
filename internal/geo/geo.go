// Package geo ranks stores by great-circle distance from a customer.
package geo

import (
	"math"
	"sort"

	"bakery-storefront/internal/models"
)

const EarthRadiusKm = 6371.0

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c lies within the latitude/longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type RankedStore struct {
	models.Store
	DistanceKm float64 `json:"distance_km"`
}

// Distance returns the Haversine distance between a and b in kilometers.
func Distance(a, b Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// StoreCoordinate returns the store's position, or false when it has none.
func StoreCoordinate(store *models.Store) (Coordinate, bool) {
	if !store.HasCoordinates() {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *store.Latitude, Longitude: *store.Longitude}, true
}

// ResolveNearbyStores keeps the stores whose delivery radius covers origin,
// nearest first. Stores without coordinates are skipped; ties keep input order.
func ResolveNearbyStores(origin Coordinate, stores []models.Store) []RankedStore {
	ranked := make([]RankedStore, 0, len(stores))
	for i := range stores {
		pos, ok := StoreCoordinate(&stores[i])
		if !ok {
			continue
		}
		d := Distance(origin, pos)
		if d <= stores[i].DeliveryRadius {
			ranked = append(ranked, RankedStore{Store: stores[i], DistanceKm: d})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

// WithinRadius reports the distance from the store to origin and whether the
// store delivers that far. A store without coordinates never qualifies.
func WithinRadius(origin Coordinate, store *models.Store) (float64, bool) {
	pos, ok := StoreCoordinate(store)
	if !ok {
		return 0, false
	}
	d := Distance(origin, pos)
	return d, d <= store.DeliveryRadius
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
