// Package sample derives a list of search keywords from a company dataset:
// rows are cleaned, narrowed to one country and sector, stripped of the most
// common name words and randomly sampled.
package sample

import (
	"cmp"
	"encoding/csv"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is one company in the source dataset.
type Row struct {
	CompanyName string `csv:"Company Name"`
	Country     string `csv:"Country"`
	Sector      string `csv:"Sector"`
	Industry    string `csv:"Industry"`
	SubIndustry string `csv:"Sub Industry"`
}

// Options controls CompanyNames.
type Options struct {
	Size    int
	Country string
	Sector  string
	// StopWords is how many of the most common name words to remove.
	StopWords int
	// Seed makes sampling reproducible. Zero seeds from the clock.
	Seed uint64
}

var nullValues = map[string]bool{"": true, "Undefined": true, "null": true}

// keywordUnsafe matches everything QuoteNames drops from a name.
var keywordUnsafe = regexp.MustCompile(`[^\p{L}\p{N}_., -]`)

// ReadRows decodes a headed, comma-separated company dataset.
func ReadRows(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sample: read header")
	}
	dec.DisallowMissingColumns = true

	var rows []Row
	for {
		var row Row
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "sample: decode row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FilterNull drops rows whose country is missing, a null marker, or not a
// three letter code.
func FilterNull(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if nullValues[r.Country] || len([]rune(r.Country)) != 3 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SelectCountry keeps rows from the given country code, compared upper-case,
// and drops repeated company names.
func SelectCountry(rows []Row, code string) []Row {
	code = strings.ToUpper(strings.TrimSpace(code))
	seen := make(map[string]bool)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Country != code || seen[r.CompanyName] {
			continue
		}
		seen[r.CompanyName] = true
		out = append(out, r)
	}
	return out
}

// CommonWords returns the n most frequent space-separated words across all
// company names, case folded. Ties are broken alphabetically.
func CommonWords(rows []Row, n int) []string {
	if n <= 0 {
		return nil
	}
	lower := cases.Lower(language.Und)
	counts := make(map[string]int)
	for _, r := range rows {
		for _, w := range strings.Fields(r.CompanyName) {
			counts[lower.String(w)]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// RemoveCommonWords removes the n most common name words from every company
// name, ignoring case. Rows left with an empty name are dropped.
func RemoveCommonWords(rows []Row, n int) []Row {
	stop := CommonWords(rows, n)
	if len(stop) == 0 {
		return rows
	}
	zap.L().Debug("sample: removing common words", zap.Strings("words", stop))

	lower := cases.Lower(language.Und)
	stopSet := make(map[string]bool, len(stop))
	for _, w := range stop {
		stopSet[w] = true
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		var kept []string
		for _, w := range strings.Fields(r.CompanyName) {
			if !stopSet[lower.String(w)] {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.CompanyName = strings.Join(kept, " ")
		out = append(out, r)
	}
	return out
}

// InSector keeps rows whose sector matches exactly.
func InSector(rows []Row, sector string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Sector == sector {
			out = append(out, r)
		}
	}
	return out
}

// RandomSample returns up to n rows chosen uniformly without replacement.
func RandomSample(rows []Row, n int, rng *rand.Rand) []Row {
	if n <= 0 {
		return nil
	}
	shuffled := slices.Clone(rows)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// QuoteNames lower-cases and trims each company name, drops characters other
// than letters, digits, underscore, period, comma, space and hyphen, and
// wraps the result in double quotes for exact-phrase searching.
func QuoteNames(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(strings.ToLower(r.CompanyName))
		out = append(out, `"`+keywordUnsafe.ReplaceAllString(name, "")+`"`)
	}
	return out
}

// CompanyNames reads the dataset at path and returns a quoted keyword for
// each sampled company.
func CompanyNames(path string, opts Options) ([]string, error) {
	if path == "" {
		return nil, eris.New("sample: path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sample: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := ReadRows(f)
	if err != nil {
		return nil, eris.Wrapf(err, "sample: %s", path)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return Pipeline(rows, opts, rand.New(rand.NewPCG(seed, seed))), nil
}

// Pipeline applies the cleaning, selection and sampling steps in order.
func Pipeline(rows []Row, opts Options, rng *rand.Rand) []string {
	total := len(rows)
	rows = FilterNull(rows)
	rows = SelectCountry(rows, opts.Country)
	rows = RemoveCommonWords(rows, opts.StopWords)
	rows = InSector(rows, opts.Sector)
	eligible := len(rows)
	rows = RandomSample(rows, opts.Size, rng)

	zap.L().Info("sample: company names selected",
		zap.Int("rows", total),
		zap.Int("eligible", eligible),
		zap.Int("sampled", len(rows)),
	)
	return QuoteNames(rows)
}
