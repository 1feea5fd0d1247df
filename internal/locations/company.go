package locations

import (
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CompanyLocations accumulates the distinct results found for one company.
// It is not safe for concurrent use.
type CompanyLocations struct {
	name    string
	results []*Result
}

// NewCompanyLocations creates an empty aggregate. A blank name is accepted
// with a warning; a name that is not valid UTF-8 cannot be serialised
// faithfully and is rejected.
func NewCompanyLocations(name string) (*CompanyLocations, error) {
	if !utf8.ValidString(name) {
		return nil, eris.Wrapf(ErrInvalidName, "%q", name)
	}
	if name == "" {
		zap.L().Warn("company name is blank")
	}
	return &CompanyLocations{name: name}, nil
}

// Name returns the company name.
func (c *CompanyLocations) Name() string { return c.name }

// Len returns the number of stored results.
func (c *CompanyLocations) Len() int { return len(c.results) }

// Results returns the stored results in insertion order.
func (c *CompanyLocations) Results() []*Result {
	out := make([]*Result, len(c.results))
	copy(out, c.results)
	return out
}

// AddResult appends r unless an equal result is already stored. It reports
// whether r was added.
func (c *CompanyLocations) AddResult(r *Result) (bool, error) {
	if r == nil {
		zap.L().Error("add result failed: result is nil", zap.String("company", c.name))
		return false, eris.Wrap(ErrNilArgument, "add result")
	}
	for _, existing := range c.results {
		if existing.Equal(r) {
			return false, nil
		}
	}
	c.results = append(c.results, r)
	return true, nil
}

// Equal reports whether both aggregates have the same name and equal results
// in the same order.
func (c *CompanyLocations) Equal(o *CompanyLocations) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.name != o.name || len(c.results) != len(o.results) {
		return false
	}
	for i := range c.results {
		if !c.results[i].Equal(o.results[i]) {
			return false
		}
	}
	return true
}

// CompanyData is the serialised form of a CompanyLocations.
type CompanyData struct {
	CompanyName     string       `json:"companyName"`
	QueryResultList []ResultData `json:"queryResultList"`
}

// ToPlainData projects the aggregate into its serialised form.
func (c *CompanyLocations) ToPlainData() CompanyData {
	list := make([]ResultData, 0, len(c.results))
	for _, r := range c.results {
		list = append(list, r.ToPlainData())
	}
	return CompanyData{CompanyName: c.name, QueryResultList: list}
}
