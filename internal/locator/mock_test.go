package locator

import (
	"context"
	"sync"

	"github.com/sells-group/locations-cli/pkg/google"
)

// fakePlaces implements google.Client from canned responses keyed by
// keyword and place ID.
type fakePlaces struct {
	mu sync.Mutex

	nearby       map[string][]google.NearbyPlace
	nearbyErr    map[string]error
	details      map[string]google.PlaceDetails
	detailsErr   map[string]error
	nearbyCalls  []google.NearbySearchRequest
	detailsCalls []string

	// nearbyFlaky errors are returned, in order, before any canned response.
	nearbyFlaky []error
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{
		nearby:     make(map[string][]google.NearbyPlace),
		nearbyErr:  make(map[string]error),
		details:    make(map[string]google.PlaceDetails),
		detailsErr: make(map[string]error),
	}
}

// place registers a candidate for keyword together with its details.
func (f *fakePlaces) place(keyword, placeID string, d google.PlaceDetails) {
	name := ""
	if d.Name != nil {
		name = *d.Name
	}
	f.nearby[keyword] = append(f.nearby[keyword], google.NearbyPlace{PlaceID: placeID, Name: name})
	f.details[placeID] = d
}

func (f *fakePlaces) NearbySearch(_ context.Context, req google.NearbySearchRequest) (*google.NearbySearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls = append(f.nearbyCalls, req)

	if len(f.nearbyFlaky) > 0 {
		err := f.nearbyFlaky[0]
		f.nearbyFlaky = f.nearbyFlaky[1:]
		return nil, err
	}
	if err := f.nearbyErr[req.Keyword]; err != nil {
		return nil, err
	}
	return &google.NearbySearchResponse{
		Status:  google.StatusOK,
		Results: f.nearby[req.Keyword],
	}, nil
}

func (f *fakePlaces) PlaceDetails(_ context.Context, placeID string, _ []string) (*google.PlaceDetailsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls = append(f.detailsCalls, placeID)

	if err := f.detailsErr[placeID]; err != nil {
		return nil, err
	}
	return &google.PlaceDetailsResponse{
		Status: google.StatusOK,
		Result: f.details[placeID],
	}, nil
}

func (f *fakePlaces) detailsCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailsCalls)
}

func (f *fakePlaces) nearbyCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nearbyCalls)
}

// rejectMatcher accepts every candidate name except the listed ones.
type rejectMatcher map[string]bool

func (m rejectMatcher) Match(_, candidate string) bool {
	return !m[candidate]
}

func details(name string, lat, lng float64, types ...string) google.PlaceDetails {
	return google.PlaceDetails{
		Name:     &name,
		Types:    types,
		Geometry: google.Geometry{Location: &google.LatLng{Lat: lat, Lng: lng}},
		Vicinity: "1 Main St",
	}
}
