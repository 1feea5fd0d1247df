// Package export writes company location aggregates to the supported output
// formats.
package export

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/locations-cli/internal/locations"
)

// Output formats.
const (
	FormatJSONL   = "jsonl"
	FormatGeoJSON = "geojson"
	FormatSQLite  = "sqlite"
)

// ValidFormat reports whether f names a supported output format.
func ValidFormat(f string) bool {
	switch strings.ToLower(f) {
	case FormatJSONL, FormatGeoJSON, FormatSQLite:
		return true
	}
	return false
}

// WriteJSONL writes one JSON object per company with at least one result,
// each on its own line. It returns how many companies were written.
func WriteJSONL(w io.Writer, companies []*locations.CompanyLocations) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	written := 0
	for _, c := range companies {
		if c.Len() == 0 {
			zap.L().Info("export: 0 results", zap.String("company", c.Name()))
			continue
		}
		zap.L().Info("export: results", zap.String("company", c.Name()), zap.Int("results", c.Len()))

		if err := enc.Encode(c.ToPlainData()); err != nil {
			return written, eris.Wrapf(err, "export: encode %s", c.Name())
		}
		written++
	}

	if err := bw.Flush(); err != nil {
		return written, eris.Wrap(err, "export: flush")
	}
	return written, nil
}
