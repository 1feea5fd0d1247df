package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Response statuses returned by the Places web service.
const (
	StatusOK           = "OK"
	StatusZeroResults  = "ZERO_RESULTS"
	StatusUnknownError = "UNKNOWN_ERROR"
)

// BusinessStatusClosedPermanently marks a place that has shut down for good.
const BusinessStatusClosedPermanently = "CLOSED_PERMANENTLY"

// DetailsFields are the place detail fields needed to build a location result.
var DetailsFields = []string{"geometry", "name", "type", "permanently_closed", "business_status", "vicinity"}

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string, fields []string) (*PlaceDetailsResponse, error)
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps a place location.
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// NearbySearchRequest describes a keyword search around a point.
type NearbySearchRequest struct {
	Location LatLng
	// Radius is in metres; the service caps it at 50000.
	Radius  int
	Keyword string
	OpenNow bool
}

// NearbySearchResponse is the response from Places Nearby Search.
type NearbySearchResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Results       []NearbyPlace `json:"results"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// NearbyPlace is one candidate returned by Nearby Search.
type NearbyPlace struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Types    []string `json:"types,omitempty"`
	Vicinity string   `json:"vicinity,omitempty"`
}

// PlaceDetailsResponse is the response from Place Details.
type PlaceDetailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       PlaceDetails `json:"result"`
}

// PlaceDetails holds the requested detail fields. Pointer fields are nil
// when the service omitted them.
type PlaceDetails struct {
	Name              *string  `json:"name,omitempty"`
	Types             []string `json:"types,omitempty"`
	Geometry          Geometry `json:"geometry"`
	PermanentlyClosed bool     `json:"permanently_closed,omitempty"`
	BusinessStatus    string   `json:"business_status,omitempty"`
	Vicinity          string   `json:"vicinity,omitempty"`
}

// IsPermanentlyClosed reports whether the place is flagged as closed for good.
func (d PlaceDetails) IsPermanentlyClosed() bool {
	return d.PermanentlyClosed || d.BusinessStatus == BusinessStatusClosedPermanently
}

// StatusError reports a response whose status is not OK.
type StatusError struct {
	Op      string
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google: %s: status %s: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("google: %s: status %s", e.Op, e.Status)
}

// Transient reports whether repeating the request may succeed. Only
// UNKNOWN_ERROR qualifies; quota and request errors do not clear on retry.
func (e *StatusError) Transient() bool {
	return e.Status == StatusUnknownError
}

// HTTPError reports a non-200 HTTP response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the HTTP status is worth retrying.
func (e *HTTPError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsStatus reports whether err carries a non-OK service status.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error) {
	params := url.Values{}
	params.Set("location", formatLatLng(req.Location))
	params.Set("radius", strconv.Itoa(req.Radius))
	if req.Keyword != "" {
		params.Set("keyword", req.Keyword)
	}
	if req.OpenNow {
		params.Set("opennow", "true")
	}

	var result NearbySearchResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: nearby search")
	}

	switch result.Status {
	case StatusOK:
	case StatusZeroResults:
		result.Results = nil
	default:
		return nil, &StatusError{Op: "nearby search", Status: result.Status, Message: result.ErrorMessage}
	}

	return &result, nil
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string, fields []string) (*PlaceDetailsResponse, error) {
	if placeID == "" {
		return nil, eris.New("google: place details: place id is required")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	var result PlaceDetailsResponse
	if err := c.get(ctx, "/details/json", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: place details")
	}

	if result.Status != StatusOK {
		return nil, &StatusError{Op: "place details", Status: result.Status, Message: result.ErrorMessage}
	}

	return &result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}

	return nil
}

func formatLatLng(ll LatLng) string {
	return strconv.FormatFloat(ll.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(ll.Lng, 'f', -1, 64)
}
