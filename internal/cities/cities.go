// Package cities reads the list of city epicentres that place searches are
// centred on.
package cities

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/locations-cli/internal/locations"
)

// Column positions in the semicolon-separated city file.
const (
	colCity        = 0
	colState       = 2
	colCoordinates = 5
)

// City is a named search epicentre.
type City struct {
	Name     string                `json:"name"`
	State    string                `json:"state"`
	Location locations.Coordinates `json:"location"`
}

// Options controls parsing.
type Options struct {
	// HasHeader skips the first line.
	HasHeader bool
	// State keeps only cities whose state column matches exactly.
	State string
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, opts Options) ([]City, error) {
	if path == "" {
		return nil, eris.New("cities: path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cities: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	zap.L().Debug("cities: file opened", zap.String("path", path))
	out, err := Parse(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "cities: parse %s", path)
	}
	zap.L().Debug("cities: file read", zap.String("path", path), zap.Int("cities", len(out)))
	return out, nil
}

// Parse reads "City;Rank;State;Growth;Population;lat,lon" rows in file
// order. The first row for a given city name wins.
func Parse(r io.Reader, opts Options) ([]City, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		out   []City
		seen  = make(map[string]bool)
		first = true
		line  int
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "cities: read row")
		}
		line++

		if first {
			first = false
			if opts.HasHeader {
				continue
			}
		}

		if len(row) <= colCoordinates {
			return nil, eris.Errorf("cities: line %d has %d columns, want at least %d", line, len(row), colCoordinates+1)
		}

		name := strings.TrimSpace(row[colCity])
		if seen[name] {
			continue
		}

		state := strings.TrimSpace(row[colState])
		if opts.State != "" && state != opts.State {
			continue
		}

		loc, err := locations.ParseCoordinates(row[colCoordinates])
		if err != nil {
			return nil, eris.Wrapf(err, "cities: line %d", line)
		}

		seen[name] = true
		out = append(out, City{Name: name, State: state, Location: loc})
	}

	return out, nil
}
