// Package locator finds the physical locations of companies by searching
// Google Places around a list of city epicentres and keeping the candidates
// that survive name, closure, category and duplicate filters.
package locator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/locations-cli/internal/cities"
	"github.com/sells-group/locations-cli/internal/fuzzy"
	"github.com/sells-group/locations-cli/internal/locations"
	"github.com/sells-group/locations-cli/internal/metrics"
	"github.com/sells-group/locations-cli/internal/resilience"
	"github.com/sells-group/locations-cli/pkg/google"
)

const (
	endpointNearby  = "nearby_search"
	endpointDetails = "place_details"
)

// Locator runs place searches for companies. Aggregates and seen sets belong
// to each run; the locator itself only keeps cumulative request counts and
// may be reused across runs.
type Locator struct {
	google     google.Client
	limiter    *rate.Limiter
	matcher    NameMatcher
	irrelevant map[string]struct{}
	opts       Options
	metrics    *metrics.Metrics

	nearbyRequests  atomic.Int64
	detailsRequests atomic.Int64
}

// New creates a Locator. A nil m gets a private metrics registry.
func New(g google.Client, opts Options, m *metrics.Metrics) *Locator {
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.Matcher == nil {
		opts.Matcher = fuzzy.Matcher{Strategy: fuzzy.TokenSetRatio, Threshold: 80}
	}
	if opts.IrrelevantTypes == nil {
		opts.IrrelevantTypes = DefaultIrrelevantTypes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if m == nil {
		m = metrics.New()
	}

	irrelevant := make(map[string]struct{}, len(opts.IrrelevantTypes))
	for _, t := range opts.IrrelevantTypes {
		irrelevant[t] = struct{}{}
	}

	return &Locator{
		google:     g,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		matcher:    opts.Matcher,
		irrelevant: irrelevant,
		opts:       opts,
		metrics:    m,
	}
}

// SearchNearby searches around epicentre for keyword and adds every accepted
// candidate to agg, recording its coordinates in seen. A non-OK status from
// the Places service is logged and swallowed: for the search it ends the
// pair, for a detail lookup it skips that candidate. Any other error is
// returned.
func (l *Locator) SearchNearby(ctx context.Context, agg *locations.CompanyLocations, seen *locations.SeenCoordinates, keyword string, epicentre locations.Coordinates) error {
	if agg == nil || seen == nil {
		return eris.Wrap(locations.ErrNilArgument, "locator: search nearby")
	}

	log := zap.L().With(zap.String("company", keyword), zap.Stringer("epicentre", epicentre))

	req := google.NearbySearchRequest{
		Location: google.LatLng{Lat: epicentre.Lat, Lng: epicentre.Lon},
		Radius:   l.opts.Radius,
		Keyword:  keyword,
		OpenNow:  l.opts.OpenNow,
	}
	resp, err := resilience.Do(ctx, l.retryConfig(endpointNearby), func(ctx context.Context) (*google.NearbySearchResponse, error) {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "locator: rate limit wait")
		}
		l.nearbyRequests.Add(1)
		return l.google.NearbySearch(ctx, req)
	})
	if err != nil {
		l.metrics.APIRequest(endpointNearby, statusLabel(err))
		if google.IsStatus(err) {
			log.Warn("nearby search failed", zap.Error(err))
			return nil
		}
		return eris.Wrap(err, "locator: nearby search")
	}
	l.metrics.APIRequest(endpointNearby, resp.Status)

	for _, place := range resp.Results {
		if !l.matcher.Match(keyword, place.Name) {
			l.metrics.Candidate(metrics.OutcomeFuzzyMismatch)
			log.Info("fuzzy string non-match", zap.String("candidate", place.Name))
			if l.opts.StopOnMismatch {
				return nil
			}
			continue
		}

		if err := l.consider(ctx, log, agg, seen, keyword, place); err != nil {
			return err
		}
	}

	return nil
}

// consider fetches details for one name-matched candidate and inserts it
// when it passes the closure, category and location filters.
func (l *Locator) consider(ctx context.Context, log *zap.Logger, agg *locations.CompanyLocations, seen *locations.SeenCoordinates, keyword string, place google.NearbyPlace) error {
	log = log.With(zap.String("place_id", place.PlaceID))

	details, err := resilience.Do(ctx, l.retryConfig(endpointDetails), func(ctx context.Context) (*google.PlaceDetailsResponse, error) {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "locator: rate limit wait")
		}
		l.detailsRequests.Add(1)
		return l.google.PlaceDetails(ctx, place.PlaceID, google.DetailsFields)
	})
	if err != nil {
		l.metrics.APIRequest(endpointDetails, statusLabel(err))
		if google.IsStatus(err) {
			l.metrics.Candidate(metrics.OutcomeDetailsFailed)
			log.Warn("place details failed, skipping", zap.Error(err))
			return nil
		}
		return eris.Wrapf(err, "locator: place details %s", place.PlaceID)
	}
	l.metrics.APIRequest(endpointDetails, details.Status)

	d := details.Result
	if d.IsPermanentlyClosed() {
		l.metrics.Candidate(metrics.OutcomeClosed)
		log.Debug("permanently closed, skipping")
		return nil
	}
	if t, ok := l.irrelevantType(d.Types); ok {
		l.metrics.Candidate(metrics.OutcomeIrrelevant)
		log.Debug("irrelevant place type, skipping", zap.String("type", t))
		return nil
	}

	fields := locations.ResultFields{
		Name:     d.Name,
		Types:    d.Types,
		Keyword:  keyword,
		Vicinity: d.Vicinity,
	}
	if loc := d.Geometry.Location; loc != nil {
		fields.Location = &locations.Coordinates{Lat: loc.Lat, Lon: loc.Lng}
	}
	result, err := locations.NewResult(fields)
	if err != nil {
		return eris.Wrapf(err, "locator: build result for %s", place.PlaceID)
	}

	if seen.Seen(keyword, result.Location()) {
		l.metrics.Candidate(metrics.OutcomeDuplicateLocation)
		log.Debug("coordinates already seen, skipping", zap.Stringer("location", result.Location()))
		return nil
	}

	added, err := agg.AddResult(result)
	if err != nil {
		return eris.Wrap(err, "locator: add result")
	}
	seen.Add(keyword, result.Location())

	if !added {
		l.metrics.Candidate(metrics.OutcomeDuplicateResult)
		return nil
	}
	l.metrics.Candidate(metrics.OutcomeAccepted)
	log.Debug("result accepted", zap.String("name", result.Name()))
	return nil
}

func (l *Locator) retryConfig(endpoint string) resilience.RetryConfig {
	cfg := l.opts.Retry
	logRetry := resilience.RetryLogger(endpoint)
	cfg.OnRetry = func(attempt int, err error) {
		l.metrics.Retries.WithLabelValues(endpoint).Inc()
		logRetry(attempt, err)
	}
	return cfg
}

// Requests returns the cumulative number of nearby search and place details
// requests sent, retries included.
func (l *Locator) Requests() (nearby, details int64) {
	return l.nearbyRequests.Load(), l.detailsRequests.Load()
}

// irrelevantType returns the first of types found in the irrelevant set.
func (l *Locator) irrelevantType(types []string) (string, bool) {
	for _, t := range types {
		if _, ok := l.irrelevant[t]; ok {
			return t, true
		}
	}
	return "", false
}

// RunResult summarises a run.
type RunResult struct {
	RunID        string
	Cities       int
	Pairs        int
	PairFailures int
	Interrupted  bool
	Duration     time.Duration

	// Companies holds one aggregate per distinct keyword in first-seen order.
	Companies []*locations.CompanyLocations

	// Skipped lists the keywords rejected as company names.
	Skipped []string

	// NearbyRequests and DetailsRequests count the Places requests sent
	// during the run.
	NearbyRequests  int64
	DetailsRequests int64
}

// Accepted returns the total number of stored results.
func (r *RunResult) Accepted() int {
	n := 0
	for _, c := range r.Companies {
		n += c.Len()
	}
	return n
}

type companyEntry struct {
	mu  sync.Mutex
	agg *locations.CompanyLocations
}

// Run searches every company around every city, cities outer and companies
// inner, stopping after opts.CityLimit cities. A failing pair is logged with
// its company and city and the run moves on. Pairs for the same company
// never run concurrently.
func (l *Locator) Run(ctx context.Context, companies []string, epicentres []cities.City) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	nearbyBefore, detailsBefore := l.Requests()
	log := zap.L().With(zap.String("run_id", runID))

	if l.opts.CityLimit > 0 && len(epicentres) > l.opts.CityLimit {
		epicentres = epicentres[:l.opts.CityLimit]
	}

	var (
		seen     = locations.NewSeenCoordinates()
		entries  = make(map[string]*companyEntry)
		order    []*companyEntry
		pairs    int
		failures atomic.Int64
	)

	// Aggregates are built before any pair is scheduled so a rejected name
	// only drops that company.
	prepared := make(map[string]*companyEntry, len(companies))
	var skipped []string
	for _, keyword := range companies {
		if _, ok := prepared[keyword]; ok {
			continue
		}
		agg, err := locations.NewCompanyLocations(locations.StripQuotes(keyword))
		if err != nil {
			skipped = append(skipped, keyword)
			log.Error("invalid company name, skipping",
				zap.String("company", keyword),
				zap.Error(err),
			)
			prepared[keyword] = nil
			continue
		}
		prepared[keyword] = &companyEntry{agg: agg}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	log.Info("locate run started",
		zap.Int("companies", len(companies)),
		zap.Int("cities", len(epicentres)),
		zap.Int("concurrency", l.opts.Concurrency),
	)

	interrupted := false
schedule:
	for _, city := range epicentres {
		log.Info("searching city", zap.String("city", city.Name))

		for _, keyword := range companies {
			if ctx.Err() != nil {
				interrupted = true
				break schedule
			}

			entry, ok := entries[keyword]
			if !ok {
				entry = prepared[keyword]
				if entry == nil {
					continue
				}
				entries[keyword] = entry
				order = append(order, entry)
			}

			pairs++
			g.Go(func() error {
				entry.mu.Lock()
				defer entry.mu.Unlock()

				if err := l.runPair(gCtx, entry.agg, seen, keyword, city); err != nil {
					failures.Add(1)
					l.metrics.PairFailures.Inc()
					log.Error("company search failed, skipping",
						zap.String("company", keyword),
						zap.String("city", city.Name),
						zap.Error(err),
					)
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	nearbyAfter, detailsAfter := l.Requests()

	result := &RunResult{
		RunID:           runID,
		Companies:       make([]*locations.CompanyLocations, 0, len(order)),
		Cities:          len(epicentres),
		Pairs:           pairs,
		PairFailures:    int(failures.Load()),
		Interrupted:     interrupted || errors.Is(ctx.Err(), context.Canceled),
		Duration:        time.Since(start),
		Skipped:         skipped,
		NearbyRequests:  nearbyAfter - nearbyBefore,
		DetailsRequests: detailsAfter - detailsBefore,
	}
	withResults := 0
	for _, e := range order {
		result.Companies = append(result.Companies, e.agg)
		if e.agg.Len() > 0 {
			withResults++
		}
	}
	l.metrics.CompaniesWithResults.Set(float64(withResults))

	if result.Interrupted {
		log.Warn("locate run interrupted", zap.Int("pairs_scheduled", pairs))
	}
	log.Info("locate run complete",
		zap.Int("pairs", pairs),
		zap.Int("pair_failures", result.PairFailures),
		zap.Int("skipped_companies", len(skipped)),
		zap.Int("results", result.Accepted()),
		zap.Int("companies_with_results", withResults),
		zap.Int64("nearby_requests", result.NearbyRequests),
		zap.Int64("details_requests", result.DetailsRequests),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (l *Locator) runPair(ctx context.Context, agg *locations.CompanyLocations, seen *locations.SeenCoordinates, keyword string, city cities.City) error {
	start := time.Now()
	defer func() {
		l.metrics.PairDuration.Observe(time.Since(start).Seconds())
	}()
	return l.SearchNearby(ctx, agg, seen, keyword, city.Location)
}

func statusLabel(err error) string {
	var se *google.StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return "error"
}
