package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearbySearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "40,-74", q.Get("location"))
		assert.Equal(t, "50000", q.Get("radius"))
		assert.Equal(t, `"acme corp"`, q.Get("keyword"))
		assert.Empty(t, q.Get("opennow"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NearbySearchResponse{
			Status: StatusOK,
			Results: []NearbyPlace{
				{PlaceID: "ChIJ-acme1", Name: "Acme Corporation"},
				{PlaceID: "ChIJ-acme2", Name: "Acme Corp Warehouse"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{
		Location: LatLng{Lat: 40, Lng: -74},
		Radius:   50000,
		Keyword:  `"acme corp"`,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "ChIJ-acme1", resp.Results[0].PlaceID)
	assert.Equal(t, "Acme Corp Warehouse", resp.Results[1].Name)
}

func TestNearbySearch_OpenNow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("opennow"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL+"/"))
	_, err := client.NearbySearch(context.Background(), NearbySearchRequest{OpenNow: true, Radius: 10})
	require.NoError(t, err)
}

func TestNearbySearch_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "nonexistent"})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestNearbySearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "acme"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsStatus(err))
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestNearbySearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`upstream failure`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "acme"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.False(t, IsStatus(err))
	assert.Contains(t, err.Error(), "500")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.True(t, httpErr.Transient())
}

func TestErrorTransience(t *testing.T) {
	assert.True(t, (&HTTPError{StatusCode: http.StatusTooManyRequests}).Transient())
	assert.True(t, (&HTTPError{StatusCode: http.StatusServiceUnavailable}).Transient())
	assert.False(t, (&HTTPError{StatusCode: http.StatusForbidden}).Transient())

	assert.True(t, (&StatusError{Status: StatusUnknownError}).Transient())
	assert.False(t, (&StatusError{Status: "OVER_QUERY_LIMIT"}).Transient())
	assert.False(t, (&StatusError{Status: "REQUEST_DENIED"}).Transient())
}

func TestNearbySearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(ctx, NearbySearchRequest{Keyword: "acme"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestPlaceDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ChIJ-acme1", q.Get("place_id"))
		assert.Equal(t, "geometry,name,type,permanently_closed,business_status,vicinity", q.Get("fields"))
		assert.Equal(t, "test-key", q.Get("key"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"name": "Acme Corporation",
				"types": ["storage", "point_of_interest"],
				"geometry": {"location": {"lat": 40.01, "lng": -74.02}},
				"vicinity": "1 Main St, Newark"
			}
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.PlaceDetails(context.Background(), "ChIJ-acme1", DetailsFields)

	require.NoError(t, err)
	require.NotNil(t, resp.Result.Name)
	assert.Equal(t, "Acme Corporation", *resp.Result.Name)
	assert.Equal(t, []string{"storage", "point_of_interest"}, resp.Result.Types)
	require.NotNil(t, resp.Result.Geometry.Location)
	assert.InDelta(t, 40.01, resp.Result.Geometry.Location.Lat, 1e-9)
	assert.InDelta(t, -74.02, resp.Result.Geometry.Location.Lng, 1e-9)
	assert.Equal(t, "1 Main St, Newark", resp.Result.Vicinity)
	assert.False(t, resp.Result.IsPermanentlyClosed())
}

func TestPlaceDetails_MissingFieldsStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","result":{"types":["storage"]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.PlaceDetails(context.Background(), "ChIJ-x", nil)

	require.NoError(t, err)
	assert.Nil(t, resp.Result.Name)
	assert.Nil(t, resp.Result.Geometry.Location)
}

func TestPlaceDetails_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_FOUND"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.PlaceDetails(context.Background(), "ChIJ-gone", DetailsFields)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsStatus(err))
	assert.Equal(t, "google: place details: status NOT_FOUND", err.Error())
}

func TestPlaceDetails_RequiresPlaceID(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.PlaceDetails(context.Background(), "", DetailsFields)
	assert.Error(t, err)
	assert.False(t, IsStatus(err))
}

func TestIsPermanentlyClosed(t *testing.T) {
	assert.True(t, PlaceDetails{PermanentlyClosed: true}.IsPermanentlyClosed())
	assert.True(t, PlaceDetails{BusinessStatus: BusinessStatusClosedPermanently}.IsPermanentlyClosed())
	assert.False(t, PlaceDetails{BusinessStatus: "OPERATIONAL"}.IsPermanentlyClosed())
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("k", WithTimeout(0)).(*httpClient)
	assert.Equal(t, "10s", c.http.Timeout.String())

	c = NewClient("k", WithTimeout(3_000_000_000)).(*httpClient)
	assert.Equal(t, "3s", c.http.Timeout.String())
}
