package cities

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locations-cli/internal/locations"
)

const sampleCSV = `City;Rank;State;Growth From 2000 to 2013;Population;Coordinates
Newark;67;New Jersey;1.2;278427;40.735657,-74.1723667
New York;1;New York;4.8;8405837;40.7127837,-74.0059413
Jersey City;75;New Jersey;7.2;257342;40.7281575,-74.0776417
Newark;999;New Jersey;0;0;0,0
Paterson;167;New Jersey;-2.2;145948;40.9167654,-74.171811
`

func TestParse_AllCities(t *testing.T) {
	got, err := Parse(strings.NewReader(sampleCSV), Options{HasHeader: true})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, "Newark", got[0].Name)
	assert.Equal(t, "New York", got[1].Name)
	assert.Equal(t, "Jersey City", got[2].Name)
	assert.Equal(t, "Paterson", got[3].Name)

	// The first Newark row wins.
	assert.Equal(t, locations.Coordinates{Lat: 40.735657, Lon: -74.1723667}, got[0].Location)
	assert.Equal(t, "New Jersey", got[0].State)
}

func TestParse_StateFilter(t *testing.T) {
	got, err := Parse(strings.NewReader(sampleCSV), Options{HasHeader: true, State: "New Jersey"})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Newark", "Jersey City", "Paterson"}, names)
}

func TestParse_NoHeader(t *testing.T) {
	in := "Trenton;250;New Jersey;-1.2;84349;40.2170534,-74.7429384\n"
	got, err := Parse(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trenton", got[0].Name)
}

func TestParse_HeaderTreatedAsDataFails(t *testing.T) {
	_, err := Parse(strings.NewReader(sampleCSV), Options{HasHeader: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestParse_ShortRow(t *testing.T) {
	_, err := Parse(strings.NewReader("Newark;67;New Jersey\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(strings.NewReader(""), Options{HasHeader: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	got, err := ParseFile(path, Options{HasHeader: true, State: "New York"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New York", got[0].Name)
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile("", Options{})
	assert.Error(t, err)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}
