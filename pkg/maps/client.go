package maps

import (
	"bytes"
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

	"github.com/producehub/producehub-backend/pkg/config"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

const (
	defaultPlacesBaseURL        = "https://places.googleapis.com/v1"
	defaultRoutesBaseURL        = "https://routes.googleapis.com"
	autocompleteFieldMask       = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	placeResolveFieldMask       = "id,formattedAddress,location,addressComponents"
	searchTextFieldMask         = "places.id,places.formattedAddress,places.location,places.addressComponents"
	computeRoutesFieldMask      = "routes.distanceMeters,routes.duration,routes.optimizedIntermediateWaypointIndex,routes.legs.distanceMeters,routes.legs.duration"
	requestBodyReadLimit  int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// ErrUnavailable is returned by the nil client so callers can render the
// "maps unavailable" state without a key configured.
var ErrUnavailable = pkgerrors.New(pkgerrors.CodeDependency, "maps unavailable")

// Client wraps the Google Places and Routes APIs used for address lookup and
// route calculation.
type Client struct {
	httpClient *http.Client
	placesURL  string
	routesURL  string
	apiKey     string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithPlacesBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.placesURL = trimmed
		}
	}
}

func WithRoutesBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.routesURL = trimmed
		}
	}
}

// NewClient builds the maps client from config. Explicit options override the
// configured base URLs.
func NewClient(cfg config.GoogleMapsConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		apiKey:     key,
		placesURL:  defaultPlacesBaseURL,
		routesURL:  defaultRoutesBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	WithPlacesBaseURL(cfg.PlacesBaseURL)(client)
	WithRoutesBaseURL(cfg.RoutesBaseURL)(client)
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type AutocompleteRequest struct {
	Input               string   `json:"input"`
	IncludedRegionCodes []string `json:"includedRegionCodes,omitempty"`
	LanguageCode        string   `json:"languageCode,omitempty"`
}

type AutocompleteSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// PlaceDetails is the normalized place returned by resolve and geocode calls.
type PlaceDetails struct {
	PlaceID           string             `json:"place_id"`
	FormattedAddress  string             `json:"formatted_address"`
	Location          LatLng             `json:"location"`
	AddressComponents []AddressComponent `json:"address_components"`
}

type LatLng struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Component returns the long name of the first component carrying kind.
func (p PlaceDetails) Component(kind string) string {
	for _, comp := range p.AddressComponents {
		for _, t := range comp.Types {
			if t == kind {
				return comp.LongName
			}
		}
	}
	return ""
}

// RouteRequest describes a driving route through ordered waypoints. When
// Optimize is set the vendor may reorder Intermediates; Origin and
// Destination stay fixed.
type RouteRequest struct {
	Origin        LatLng
	Destination   LatLng
	Intermediates []LatLng
	Optimize      bool
}

type RouteLeg struct {
	DistanceMeters  int64 `json:"distance_meters"`
	DurationSeconds int64 `json:"duration_seconds"`
}

// Route is the first route returned by computeRoutes. OptimizedOrder holds
// indexes into RouteRequest.Intermediates and is empty unless optimization
// was requested.
type Route struct {
	DistanceMeters  int64      `json:"distance_meters"`
	DurationSeconds int64      `json:"duration_seconds"`
	OptimizedOrder  []int      `json:"optimized_order,omitempty"`
	Legs            []RouteLeg `json:"legs"`
}

type apiPlace struct {
	ID               string `json:"id"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AddressComponents []struct {
		LongName  string   `json:"longText"`
		ShortName string   `json:"shortText"`
		Types     []string `json:"types"`
	} `json:"addressComponents"`
}

func (p apiPlace) details() *PlaceDetails {
	components := make([]AddressComponent, 0, len(p.AddressComponents))
	for _, comp := range p.AddressComponents {
		components = append(components, AddressComponent{LongName: comp.LongName, ShortName: comp.ShortName, Types: comp.Types})
	}
	return &PlaceDetails{
		PlaceID:           p.ID,
		FormattedAddress:  p.FormattedAddress,
		Location:          LatLng{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude},
		AddressComponents: components,
	}
}

// Autocomplete queries suggested places based on partial input.
func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]AutocompleteSuggestion, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(req.Input) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}

	var apiResp struct {
		Suggestions []struct {
			Prediction struct {
				PlaceID string `json:"placeId"`
				Text    struct {
					Text string `json:"text"`
				} `json:"text"`
			} `json:"placePrediction"`
		} `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodPost, joinURL(c.placesURL, "places:autocomplete"), autocompleteFieldMask, req, &apiResp, "autocomplete"); err != nil {
		return nil, err
	}

	suggestions := make([]AutocompleteSuggestion, 0, len(apiResp.Suggestions))
	for _, s := range apiResp.Suggestions {
		suggestions = append(suggestions, AutocompleteSuggestion{
			PlaceID:     s.Prediction.PlaceID,
			Description: s.Prediction.Text.Text,
		})
	}
	return suggestions, nil
}

// ResolvePlace fetches the canonical place data for the provided place ID.
func (c *Client) ResolvePlace(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	trimmed := strings.TrimSpace(placeID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}
	var place apiPlace
	endpoint := joinURL(c.placesURL, "places/"+url.PathEscape(trimmed))
	if err := c.do(ctx, http.MethodGet, endpoint, placeResolveFieldMask, nil, &place, "place resolve"); err != nil {
		return nil, err
	}
	return place.details(), nil
}

// Geocode resolves a free-form address to the best matching place.
func (c *Client) Geocode(ctx context.Context, address string) (*PlaceDetails, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	body := map[string]any{"textQuery": trimmed, "pageSize": 1}
	var apiResp struct {
		Places []apiPlace `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, joinURL(c.placesURL, "places:searchText"), searchTextFieldMask, body, &apiResp, "geocode"); err != nil {
		return nil, err
	}
	if len(apiResp.Places) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address could not be located").
			WithDetails(map[string]string{"address": trimmed})
	}
	return apiResp.Places[0].details(), nil
}

// ComputeRoute asks the Routes API for a driving route.
func (c *Client) ComputeRoute(ctx context.Context, req RouteRequest) (*Route, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	body := map[string]any{
		"origin":                waypoint(req.Origin),
		"destination":           waypoint(req.Destination),
		"travelMode":            "DRIVE",
		"optimizeWaypointOrder": req.Optimize && len(req.Intermediates) > 1,
	}
	if len(req.Intermediates) > 0 {
		intermediates := make([]map[string]any, 0, len(req.Intermediates))
		for _, point := range req.Intermediates {
			intermediates = append(intermediates, waypoint(point))
		}
		body["intermediates"] = intermediates
	}

	var apiResp struct {
		Routes []struct {
			DistanceMeters int64  `json:"distanceMeters"`
			Duration       string `json:"duration"`
			Optimized      []int  `json:"optimizedIntermediateWaypointIndex"`
			Legs           []struct {
				DistanceMeters int64  `json:"distanceMeters"`
				Duration       string `json:"duration"`
			} `json:"legs"`
		} `json:"routes"`
	}
	endpoint := joinURL(c.routesURL, "directions/v2:computeRoutes")
	if err := c.do(ctx, http.MethodPost, endpoint, computeRoutesFieldMask, body, &apiResp, "compute routes"); err != nil {
		return nil, err
	}
	if len(apiResp.Routes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no route found between stops")
	}

	first := apiResp.Routes[0]
	route := &Route{DistanceMeters: first.DistanceMeters, DurationSeconds: parseDuration(first.Duration)}
	if req.Optimize && len(req.Intermediates) > 1 {
		route.OptimizedOrder = first.Optimized
	}
	for _, leg := range first.Legs {
		route.Legs = append(route.Legs, RouteLeg{DistanceMeters: leg.DistanceMeters, DurationSeconds: parseDuration(leg.Duration)})
	}
	return route, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, fieldMask string, body any, out any, op string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+op+" request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	return nil
}

func waypoint(point LatLng) map[string]any {
	return map[string]any{
		"location": map[string]any{
			"latLng": map[string]float64{"latitude": point.Latitude, "longitude": point.Longitude},
		},
	}
}

// parseDuration converts the protobuf duration string ("123s") to seconds.
func parseDuration(value string) int64 {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "s")
	if trimmed == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return int64(seconds)
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
