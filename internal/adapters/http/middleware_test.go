package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/busfinder/busfinder/internal/adapters/http"
)

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stops/A", nil), -1)
	require.NoError(t, err)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest("GET", "/v1/stops/A", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)
}

func TestETag_SkipsPrivateResponses(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/me/favorites", nil)
	req.Header.Set("Authorization", "Bearer rider-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("ETag"))
}

func TestCaching_ErrorsAreNotStored(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/stops/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestCaching_SingleLine(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/lines/l24", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=600", resp.Header.Get("Cache-Control"))
}

func TestRateLimit_UsesAPIErrorShape(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Options.RateLimit = 2
	}))

	for i := 0; i < 2; i++ {
		code, _ := do(t, app, "GET", "/v1/health", "", nil)
		require.Equal(t, fiber.StatusOK, code)
	}
	code, body := do(t, app, "GET", "/v1/health", "", nil)
	assert.Equal(t, fiber.StatusTooManyRequests, code)
	assert.Equal(t, "rate_limited", errorCode(t, body))
}

func TestDocs_ServesOpenAPIDocument(t *testing.T) {
	path := findOpenAPISpec(t)
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Options.OpenAPIPath = path
	}))

	code, body := do(t, app, "GET", "/docs/openapi.yaml", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), "BusFinder Transit API")

	code, _ = do(t, app, "GET", "/docs", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestDocs_MissingDocument(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Options.OpenAPIPath = "does/not/exist.yaml"
	}))

	code, body := do(t, app, "GET", "/docs/openapi.yaml", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "not_found", errorCode(t, body))
}
