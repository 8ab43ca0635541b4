package providers

import (
	"log"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/lwp-live/internal/weather"
)

// GeocodeFunc resolves a city name to coordinates.
type GeocodeFunc func(city string) (lat, lon float64, err error)

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	geocoder.ApiKey = apiKey
	return func(city string) (float64, float64, error) {
		loc, err := geocoder.Geocoding(geocoder.Address{City: city})
		if err != nil {
			return 0, 0, err
		}
		return loc.Latitude, loc.Longitude, nil
	}
}

// ResolveCoordinates fills missing latitude/longitude for Open-Meteo. Locations
// that cannot be resolved are returned unchanged; their weather will use the fallback.
func ResolveCoordinates(locs []weather.Location, geocode GeocodeFunc) []weather.Location {
	out := make([]weather.Location, len(locs))
	copy(out, locs)
	if geocode == nil {
		return out
	}

	for i := range out {
		if out[i].Lat != nil && out[i].Lon != nil {
			continue
		}
		lat, lon, err := geocode(out[i].Name)
		if err != nil {
			log.Printf("geocoder: could not resolve %s (%s): %v", out[i].Name, out[i].Key(), err)
			continue
		}
		out[i].Lat, out[i].Lon = &lat, &lon
	}
	return out
}
