// Package locations holds the per-company location aggregate built from
// accepted place search results.
package locations

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// VicinityUnknown is stored when a place has no vicinity description.
const VicinityUnknown = "N/A"

var (
	// ErrMissingField is returned when a required place field is absent.
	ErrMissingField = eris.New("locations: missing required field")
	// ErrInvalidName is returned when a company name cannot identify an aggregate.
	ErrInvalidName = eris.New("locations: invalid company name")
	// ErrNilArgument is returned when nil is passed where a value is required.
	ErrNilArgument = eris.New("locations: nil argument")
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParseCoordinates parses a "lat,lon" string such as "40.7128,-74.0060".
func ParseCoordinates(s string) (Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, eris.Errorf("locations: coordinates %q are not lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "locations: parse latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Coordinates{}, eris.Wrapf(err, "locations: parse longitude %q", lonStr)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, eris.Errorf("locations: coordinates %q out of range", s)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

// String formats the pair as "lat,lon".
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// ResultFields are the raw values extracted from a place detail response.
// Nil Name or Location means the field was absent.
type ResultFields struct {
	Name     *string
	Types    []string
	Location *Coordinates
	Keyword  string
	Vicinity string
}

// Result is one accepted place search hit. It is immutable once built.
type Result struct {
	name     string
	types    []string
	location Coordinates
	keyword  string
	vicinity string
}

// NewResult normalises raw place fields into a Result. The name is trimmed
// and lower-cased, quotes are stripped from the keyword, and a missing
// vicinity becomes VicinityUnknown.
func NewResult(f ResultFields) (*Result, error) {
	if f.Name == nil {
		return nil, eris.Wrap(ErrMissingField, "name")
	}
	if f.Location == nil {
		return nil, eris.Wrap(ErrMissingField, "geometry.location")
	}

	name := strings.ToLower(strings.TrimSpace(*f.Name))
	if name == "" {
		zap.L().Warn("result name is blank", zap.String("keyword", f.Keyword))
	}
	if len(f.Types) == 0 {
		zap.L().Warn("result types list is empty", zap.String("name", name))
	}

	vicinity := f.Vicinity
	if vicinity == "" {
		vicinity = VicinityUnknown
	}

	return &Result{
		name:     name,
		types:    slices.Clone(f.Types),
		location: *f.Location,
		keyword:  StripQuotes(f.Keyword),
		vicinity: vicinity,
	}, nil
}

// StripQuotes removes every double quote from s.
func StripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// Name returns the normalised place name.
func (r *Result) Name() string { return r.name }

// Types returns a copy of the place category tags.
func (r *Result) Types() []string { return slices.Clone(r.types) }

// Location returns the place coordinates.
func (r *Result) Location() Coordinates { return r.location }

// Keyword returns the search keyword that produced the result.
func (r *Result) Keyword() string { return r.keyword }

// Vicinity returns the place's vicinity description.
func (r *Result) Vicinity() string { return r.vicinity }

// Equal reports whether r and o share name, types (in order) and
// coordinates. Keyword and vicinity do not take part.
func (r *Result) Equal(o *Result) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.name == o.name &&
		slices.Equal(r.types, o.types) &&
		r.location == o.location
}

// ResultData is the serialised form of a Result.
type ResultData struct {
	ResultName     string      `json:"resultName"`
	Types          []string    `json:"types"`
	Geometry       Coordinates `json:"geometry"`
	CompanyKeyword string      `json:"companyKeyword"`
	Vicinity       string      `json:"vicinity"`
}

// ToPlainData projects the result into its serialised form.
func (r *Result) ToPlainData() ResultData {
	types := slices.Clone(r.types)
	if types == nil {
		types = []string{}
	}
	return ResultData{
		ResultName:     r.name,
		Types:          types,
		Geometry:       r.location,
		CompanyKeyword: r.keyword,
		Vicinity:       r.vicinity,
	}
}
