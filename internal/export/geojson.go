package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/locations-cli/internal/locations"
)

// FeatureCollection builds one Point feature per result. Companies without
// results contribute nothing.
func FeatureCollection(companies []*locations.CompanyLocations) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0)}
	for _, c := range companies {
		for _, r := range c.Results() {
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry: pointOf(r.Location()),
				Properties: map[string]any{
					"companyName":    c.Name(),
					"companyKeyword": r.Keyword(),
					"resultName":     r.Name(),
					"types":          r.Types(),
					"vicinity":       r.Vicinity(),
				},
			})
		}
	}
	return fc
}

// WriteGeoJSON writes all results as a GeoJSON FeatureCollection and returns
// the number of features.
func WriteGeoJSON(w io.Writer, companies []*locations.CompanyLocations) (int, error) {
	fc := FeatureCollection(companies)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return 0, eris.Wrap(err, "export: encode geojson")
	}
	return len(fc.Features), nil
}

// pointOf returns a WGS84 point in longitude, latitude order.
func pointOf(c locations.Coordinates) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
}
