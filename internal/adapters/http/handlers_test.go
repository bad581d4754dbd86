package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/busfinder/busfinder/internal/adapters/auth"
	handler "github.com/busfinder/busfinder/internal/adapters/http"
	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/usecases"
)

// ---- Mock repositories ----

type mockCatalog struct {
	stops   []domain.Stop
	lines   []domain.Line
	linesFn func(ctx context.Context) ([]domain.Line, error)
}

func (m *mockCatalog) ListActiveLines(ctx context.Context) ([]domain.Line, error) {
	if m.linesFn != nil {
		return m.linesFn(ctx)
	}
	return m.lines, nil
}
func (m *mockCatalog) GetStopByID(ctx context.Context, id string) (*domain.Stop, error) {
	for i := range m.stops {
		if m.stops[i].ID == id {
			s := m.stops[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("stop %s: %w", id, domain.ErrNotFound)
}
func (m *mockCatalog) ListAllStops(ctx context.Context) ([]domain.Stop, error) {
	return m.stops, nil
}

type mockFavorites struct {
	saved    []domain.FavoriteRoute
	deleteFn func(ctx context.Context, userID, id string) error
}

func (m *mockFavorites) Create(ctx context.Context, fav *domain.FavoriteRoute) error {
	fav.ID = fmt.Sprintf("fav-%d", len(m.saved)+1)
	m.saved = append(m.saved, *fav)
	return nil
}
func (m *mockFavorites) List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error) {
	var out []domain.FavoriteRoute
	for _, f := range m.saved {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *mockFavorites) Find(ctx context.Context, userID, origin, destination, lineID string) ([]domain.FavoriteRoute, error) {
	var out []domain.FavoriteRoute
	for _, f := range m.saved {
		if f.UserID == userID && f.OriginStopID == origin && f.DestinationStopID == destination &&
			(lineID == "" || f.LineID == lineID) {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *mockFavorites) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockRecents struct {
	entries []domain.RecentSearch
}

func (m *mockRecents) Replace(ctx context.Context, s *domain.RecentSearch) error {
	m.entries = append([]domain.RecentSearch{*s}, m.entries...)
	return nil
}
func (m *mockRecents) List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error) {
	var out []domain.RecentSearch
	for _, e := range m.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}
func (m *mockRecents) Trim(ctx context.Context, userID string, keep int) error { return nil }
func (m *mockRecents) Delete(ctx context.Context, userID, id string) error {
	return fmt.Errorf("recent %s: %w", id, domain.ErrNotFound)
}

type mockProfiles struct {
	profiles map[string]domain.UserProfile
}

func (m *mockProfiles) Create(ctx context.Context, p *domain.UserProfile) error {
	m.profiles[p.UID] = *p
	return nil
}
func (m *mockProfiles) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", uid, domain.ErrNotFound)
	}
	return &p, nil
}
func (m *mockProfiles) Update(ctx context.Context, p *domain.UserProfile) error {
	m.profiles[p.UID] = *p
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

// testCatalog has line 24 running A, B, C, D and line 7 running back from D to A.
func testCatalog() *mockCatalog {
	stops := []domain.Stop{
		{ID: "A", Name: "Abando", Location: &domain.GeoPoint{Lat: 43.2614, Lon: -2.9275}},
		{ID: "B", Name: "Moyua", Location: &domain.GeoPoint{Lat: 43.2631, Lon: -2.9352}},
		{ID: "C", Name: "Indautxu"},
		{ID: "D", Name: "San Mamés"},
	}
	return &mockCatalog{
		stops: stops,
		lines: []domain.Line{
			{ID: "l24", Number: "24", Stops: []string{"A", "B", "C", "D"}, Active: true},
			{ID: "l7", Number: "7", Stops: []string{"D", "C", "B", "A"}, Active: true},
		},
	}
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	return makeDepsWith(testCatalog(), opts...)
}

func makeDepsWith(catalog *mockCatalog, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	stops := usecases.NewStopService(catalog, nil)
	lines := usecases.NewLineService(catalog, nil)
	history := usecases.NewHistoryService(&mockRecents{}, usecases.DefaultHistoryLimit)
	d := &handler.Dependencies{
		Stops:     stops,
		Lines:     lines,
		Search:    usecases.NewSearchService(lines, stops, history),
		Favorites: usecases.NewFavoriteService(&mockFavorites{}, nil),
		History:   history,
		Profiles:  usecases.NewProfileService(&mockProfiles{profiles: map[string]domain.UserProfile{}}),
		Verifier:  auth.HeaderVerifier{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func do(t *testing.T, app *fiber.App, method, path, uid string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return apiErr.Code
}

// ---- Stop handler tests ----

func TestListStops_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops?offset=1&limit=2", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}

	var result struct {
		Data       []domain.Stop      `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 4 {
		t.Errorf("expected total 4, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 || result.Data[0].ID != "B" {
		t.Errorf("expected page [B C], got %+v", result.Data)
	}
}

func TestListStops_LinkHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stops?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
}

func TestSearchStops_Success(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops/search?q=aba", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var stops []domain.Stop
	json.Unmarshal(body, &stops)
	if len(stops) != 1 || stops[0].Name != "Abando" {
		t.Errorf("expected Abando, got %+v", stops)
	}
}

func TestSearchStops_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops/search", "", nil)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
	if c := errorCode(t, body); c != "bad_request" {
		t.Errorf("expected bad_request, got %s", c)
	}
}

func TestNearbyStops_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stops/nearby?lat=43.2614&lon=-2.9275&radius=1000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected Cache-Control public, max-age=300, got %q", cc)
	}

	var stops []domain.Stop
	json.NewDecoder(resp.Body).Decode(&stops)
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops with coordinates in range, got %d", len(stops))
	}
	if stops[0].ID != "A" || stops[0].Distance == nil {
		t.Errorf("expected nearest stop A with a distance, got %+v", stops[0])
	}
}

func TestNearbyStops_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/v1/stops/nearby", "", nil)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestNearbyStops_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/v1/stops/nearby?lat=43.26&lon=-2.93&radius=50000", "", nil)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestGetStop_Success(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops/B", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var stop domain.Stop
	json.Unmarshal(body, &stop)
	if stop.Name != "Moyua" {
		t.Errorf("expected Moyua, got %s", stop.Name)
	}
}

func TestGetStop_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops/nope", "", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
	if c := errorCode(t, body); c != "not_found" {
		t.Errorf("expected not_found, got %s", c)
	}
}

func TestStopLines_Success(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/stops/C/lines", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var lines []domain.Line
	json.Unmarshal(body, &lines)
	if len(lines) != 2 {
		t.Errorf("expected 2 lines at C, got %d", len(lines))
	}
}

// ---- Line handler tests ----

func TestListLines_Success(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/lines", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var result struct {
		Data []domain.Line `json:"data"`
	}
	json.Unmarshal(body, &result)
	if len(result.Data) != 2 || result.Data[0].Number != "24" {
		t.Errorf("expected lines in catalog order, got %+v", result.Data)
	}
}

func TestGetLine_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/v1/lines/l99", "", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

// ---- Route search tests ----

func TestRouteSearch_ByIDs(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/routes/search?from=B&to=D", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}

	var result handler.RouteSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("expected only line 24 to match, got %d segments", len(result.Segments))
	}
	seg := result.Segments[0]
	if seg.LineNumber != "24" || len(seg.Stops) != 3 {
		t.Fatalf("unexpected segment %+v", seg)
	}
	if !seg.Stops[0].Highlighted || seg.Stops[1].Highlighted || !seg.Stops[2].Highlighted {
		t.Errorf("expected endpoints highlighted, got %+v", seg.Stops)
	}
}

func TestRouteSearch_NoLineIsEmptyNotError(t *testing.T) {
	catalog := testCatalog()
	catalog.lines = catalog.lines[:1]
	app := setupApp(makeDepsWith(catalog))

	code, body := do(t, app, "GET", "/v1/routes/search?from=D&to=A", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var result handler.RouteSearchResponse
	json.Unmarshal(body, &result)
	if result.Segments == nil || len(result.Segments) != 0 {
		t.Errorf("expected an empty segment list, got %v", result.Segments)
	}
}

func TestRouteSearch_SameStopIsBadRequest(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/routes/search?from=A&to=A", "", nil)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
	if c := errorCode(t, body); c != "bad_request" {
		t.Errorf("expected bad_request, got %s", c)
	}
}

func TestRouteSearch_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/v1/routes/search", "", nil)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestRouteSearch_UpstreamFailure(t *testing.T) {
	catalog := testCatalog()
	catalog.linesFn = func(ctx context.Context) ([]domain.Line, error) {
		return nil, errors.New("connection refused")
	}
	app := setupApp(makeDepsWith(catalog))

	code, body := do(t, app, "GET", "/v1/routes/search?from=A&to=D", "", nil)
	if code != 502 {
		t.Fatalf("expected 502, got %d", code)
	}
	if c := errorCode(t, body); c != "upstream_error" {
		t.Errorf("expected upstream_error, got %s", c)
	}
}

func TestRouteSearch_ByNameRecordsHistory(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/routes/search?from_name=abando&to_name=San%20Mam%C3%A9s", "rider-1", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var result domain.SearchResult
	json.Unmarshal(body, &result)
	if result.Origin.ID != "A" || result.Destination.ID != "D" || len(result.Segments) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	code, body = do(t, app, "GET", "/v1/me/recent-searches", "rider-1", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var recent []domain.RecentSearch
	json.Unmarshal(body, &recent)
	if len(recent) != 1 || recent[0].DestinationStopName != "San Mamés" {
		t.Errorf("expected the search in history, got %+v", recent)
	}
}

func TestRouteSearch_UnknownName(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/routes/search?from_name=Nowhere&to_name=Abando", "", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if !strings.Contains(apiErr.Message, "origin stop") {
		t.Errorf("expected origin stop in message, got %q", apiErr.Message)
	}
}

// ---- Authenticated endpoints ----

func TestMe_RequiresToken(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/v1/me/profile", "/v1/me/favorites", "/v1/me/recent-searches"} {
		code, body := do(t, app, "GET", path, "", nil)
		if code != 401 {
			t.Errorf("%s: expected 401, got %d", path, code)
			continue
		}
		if c := errorCode(t, body); c != "unauthorized" {
			t.Errorf("%s: expected unauthorized, got %s", path, c)
		}
	}
}

func TestProfile_Lifecycle(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/v1/me/profile", "rider-1", nil)
	if code != 404 {
		t.Fatalf("expected 404 before creation, got %d", code)
	}

	code, _ = do(t, app, "POST", "/v1/me/profile", "rider-1", map[string]string{"email": "bad", "full_name": "Ane"})
	if code != 400 {
		t.Fatalf("expected 400 for invalid email, got %d", code)
	}

	code, _ = do(t, app, "POST", "/v1/me/profile", "rider-1", map[string]string{"email": "ane@example.com", "full_name": "Ane"})
	if code != 201 {
		t.Fatalf("expected 201, got %d", code)
	}

	code, body := do(t, app, "PUT", "/v1/me/profile", "rider-1", map[string]string{"full_name": "Ane Etxeberria"})
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var p domain.UserProfile
	json.Unmarshal(body, &p)
	if p.FullName != "Ane Etxeberria" || p.Email != "ane@example.com" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestFavorites_AddCheckConflict(t *testing.T) {
	app := setupApp(makeDeps())

	seg := domain.RouteSegment{
		LineID:     "l24",
		LineNumber: "24",
		Stops: []domain.StopMarker{
			{StopID: "A", Name: "Abando", Highlighted: true},
			{StopID: "B", Name: "Moyua", Highlighted: true},
		},
	}

	code, body := do(t, app, "POST", "/v1/me/favorites", "rider-1", seg)
	if code != 201 {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}

	code, body = do(t, app, "POST", "/v1/me/favorites", "rider-1", seg)
	if code != 409 {
		t.Fatalf("expected 409, got %d", code)
	}
	if c := errorCode(t, body); c != "conflict" {
		t.Errorf("expected conflict, got %s", c)
	}

	code, body = do(t, app, "GET", "/v1/me/favorites/check?origin=A&destination=B", "rider-1", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var check struct {
		Favorite bool `json:"favorite"`
	}
	json.Unmarshal(body, &check)
	if !check.Favorite {
		t.Error("expected favorite to be reported")
	}

	code, body = do(t, app, "GET", "/v1/me/favorites", "rider-2", nil)
	if code != 200 || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("expected an empty list for another rider, got %d %s", code, body)
	}
}

func TestFavorites_RejectsShortSegment(t *testing.T) {
	app := setupApp(makeDeps())

	seg := domain.RouteSegment{LineID: "l24", Stops: []domain.StopMarker{{StopID: "A"}}}
	code, _ := do(t, app, "POST", "/v1/me/favorites", "rider-1", seg)
	if code != 400 {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestDeleteFavorite_NotFound(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Favorites = usecases.NewFavoriteService(&mockFavorites{
			deleteFn: func(ctx context.Context, userID, id string) error {
				return fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
			},
		}, nil)
	}))

	code, _ := do(t, app, "DELETE", "/v1/me/favorites/fav-9", "rider-1", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestDeleteRecentSearch_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "DELETE", "/v1/me/recent-searches/r-1", "rider-1", nil)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

// ---- GraphQL ----

func TestGraphQL_Routes(t *testing.T) {
	app := setupApp(makeDeps())

	query := map[string]string{"query": `{ routes(from: "A", to: "C") { line_number stops { stop_id highlighted } } }`}
	code, body := do(t, app, "POST", "/graphql", "", query)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}

	var result struct {
		Data struct {
			Routes []struct {
				LineNumber string `json:"line_number"`
				Stops      []struct {
					StopID      string `json:"stop_id"`
					Highlighted bool   `json:"highlighted"`
				} `json:"stops"`
			} `json:"routes"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Data.Routes) != 1 || len(result.Data.Routes[0].Stops) != 3 {
		t.Fatalf("unexpected routes %+v", result.Data.Routes)
	}
}

// ---- System endpoints and middleware ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	code, body := do(t, app, "GET", "/v1/health", "", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(string(body), "healthy") {
		t.Errorf("expected healthy status, got %s", body)
	}
}

func TestReady_FailingCheck(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Checks = map[string]handler.Checker{
			"catalog": func(ctx context.Context) error { return nil },
			"cache":   func(ctx context.Context) error { return errors.New("dial tcp: refused") },
		}
	}))

	code, body := do(t, app, "GET", "/v1/ready", "", nil)
	if code != 503 {
		t.Fatalf("expected 503, got %d", code)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(body, &result)
	if result.Checks["catalog"] != "ok" || !strings.HasPrefix(result.Checks["cache"], "error:") {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestMeResponses_AreNotCached(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/me/favorites", nil)
	req.Header.Set("Authorization", "Bearer rider-1")
	resp, _ := app.Test(req, -1)
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-store" {
		t.Errorf("expected private, no-store, got %q", cc)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	code, _ := do(t, app, "GET", "/ws?token=rider-1", "", nil)
	if code != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", code)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFavorites_OwnerSurvivesLaterRequests(t *testing.T) {
	favs := &mockFavorites{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Favorites = usecases.NewFavoriteService(favs, nil)
	}))

	seg := domain.RouteSegment{
		LineID:     "l24",
		LineNumber: "24",
		Stops: []domain.StopMarker{
			{StopID: "A", Name: "Abando", Highlighted: true},
			{StopID: "C", Name: "Indautxu", Highlighted: true},
		},
	}
	if code, body := do(t, app, "POST", "/v1/me/favorites", "rider-1", seg); code != 201 {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}

	// Same-length tokens land on the same bytes of the reused request buffer.
	do(t, app, "GET", "/v1/lines", "zzzzz-9", nil)
	do(t, app, "GET", "/v1/me/favorites", "rider-2", nil)

	if len(favs.saved) != 1 || favs.saved[0].UserID != "rider-1" {
		t.Fatalf("expected one favorite owned by rider-1, got %+v", favs.saved)
	}
}

func TestRouteSearch_HistoryOwnerSurvivesLaterRequests(t *testing.T) {
	recents := &mockRecents{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		history := usecases.NewHistoryService(recents, usecases.DefaultHistoryLimit)
		d.History = history
		d.Search = usecases.NewSearchService(d.Lines, d.Stops, history)
	}))

	code, body := do(t, app, "GET", "/v1/routes/search?from_name=Abando&to_name=Moyua", "rider-1", nil)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	do(t, app, "GET", "/v1/routes/search?from_name=Moyua&to_name=Indautxu", "zzzzz-9", nil)

	owners := map[string]int{}
	for _, e := range recents.entries {
		owners[e.UserID]++
	}
	if owners["rider-1"] != 1 || owners["zzzzz-9"] != 1 || len(recents.entries) != 2 {
		t.Errorf("expected one search each for rider-1 and zzzzz-9, got %+v", recents.entries)
	}
}
