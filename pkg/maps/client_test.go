package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/producehub/producehub-backend/pkg/config"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(
		config.GoogleMapsConfig{APIKey: "test-key"},
		WithPlacesBaseURL("http://maps.test/v1"),
		WithRoutesBaseURL("http://routes.test"),
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(config.GoogleMapsConfig{APIKey: "  "}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNilClientIsUnavailable(t *testing.T) {
	var client *Client
	_, err := client.ComputeRoute(context.Background(), RouteRequest{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientAutocompleteRequest(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header
	client := testClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["input"] != "12 market st" {
			t.Fatalf("unexpected input %q", payload["input"])
		}
		return jsonResponse(http.StatusOK, `{"suggestions":[{"placePrediction":{"placeId":"place_123","text":{"text":"12 Market St"}}}]}`), nil
	})

	result, err := client.Autocomplete(context.Background(), AutocompleteRequest{Input: "12 market st", IncludedRegionCodes: []string{"US"}})
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if capturedURL != "http://maps.test/v1/places:autocomplete" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != autocompleteFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if len(result) != 1 || result[0].PlaceID != "place_123" || result[0].Description != "12 Market St" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientResolvePlaceRequest(t *testing.T) {
	var capturedURL string
	client := testClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		return jsonResponse(http.StatusOK, `{"id":"place_123","formattedAddress":"12 Market St","location":{"latitude":1.23,"longitude":-4.56},"addressComponents":[{"longText":"Fresno","shortText":"Fresno","types":["locality"]}]}`), nil
	})

	details, err := client.ResolvePlace(context.Background(), "place_123")
	if err != nil {
		t.Fatalf("resolve place: %v", err)
	}
	if capturedURL != "http://maps.test/v1/places/place_123" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if details.Location.Latitude != 1.23 || details.Location.Longitude != -4.56 {
		t.Fatalf("unexpected location %+v", details.Location)
	}
	if details.Component("locality") != "Fresno" {
		t.Fatalf("unexpected locality %q", details.Component("locality"))
	}
}

func TestGeocodeNoMatchIsValidation(t *testing.T) {
	client := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://maps.test/v1/places:searchText" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		return jsonResponse(http.StatusOK, `{"places":[]}`), nil
	})
	_, err := client.Geocode(context.Background(), "nowhere at all")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeRouteOptimized(t *testing.T) {
	var payload map[string]any
	client := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://routes.test/directions/v2:computeRoutes" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		if req.Header.Get("X-Goog-FieldMask") != computeRoutesFieldMask {
			t.Fatalf("unexpected field mask")
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"routes":[{"distanceMeters":12000,"duration":"1800s","optimizedIntermediateWaypointIndex":[1,0],"legs":[{"distanceMeters":4000,"duration":"600s"},{"distanceMeters":5000,"duration":"700s"},{"distanceMeters":3000,"duration":"500s"}]}]}`), nil
	})

	route, err := client.ComputeRoute(context.Background(), RouteRequest{
		Origin:        LatLng{Latitude: 1, Longitude: 1},
		Destination:   LatLng{Latitude: 4, Longitude: 4},
		Intermediates: []LatLng{{Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 3}},
		Optimize:      true,
	})
	if err != nil {
		t.Fatalf("compute route: %v", err)
	}
	if payload["optimizeWaypointOrder"] != true {
		t.Fatalf("expected optimizeWaypointOrder=true, got %v", payload["optimizeWaypointOrder"])
	}
	if route.DistanceMeters != 12000 || route.DurationSeconds != 1800 {
		t.Fatalf("unexpected totals %+v", route)
	}
	if len(route.OptimizedOrder) != 2 || route.OptimizedOrder[0] != 1 {
		t.Fatalf("unexpected optimized order %v", route.OptimizedOrder)
	}
	if len(route.Legs) != 3 || route.Legs[1].DurationSeconds != 700 {
		t.Fatalf("unexpected legs %+v", route.Legs)
	}
}

func TestComputeRouteVendorFailure(t *testing.T) {
	client := testClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error":"bad"}`), nil
	})
	_, err := client.ComputeRoute(context.Background(), RouteRequest{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int64{"": 0, "90s": 90, "12.7s": 12, "junk": 0}
	for in, want := range cases {
		if got := parseDuration(in); got != want {
			t.Fatalf("parseDuration(%q) = %d, want %d", in, got, want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
