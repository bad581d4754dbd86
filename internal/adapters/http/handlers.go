package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// ListStopsHandler returns every stop in the catalog, paginated.
func ListStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stops, err := deps.Stops.ListAll(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}

		page, pg := paginate(c, stops, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// NearbyStopsHandler returns stops within a radius of a point.
func NearbyStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 20)

		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat or lon out of range")
		}
		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		stops, err := deps.Stops.FindNearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return writeError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stops)
	}
}

// SearchStopsHandler filters stops by name.
func SearchStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if strings.TrimSpace(query) == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		stops, err := deps.Stops.Search(c.UserContext(), query, c.QueryInt("limit", 20))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(stops)
	}
}

// GetStopHandler returns a single stop by ID.
func GetStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "stop id is required")
		}
		stop, err := deps.Stops.GetByID(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(stop)
	}
}

// StopLinesHandler returns the active lines calling at a stop.
func StopLinesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := deps.Stops.GetByID(c.UserContext(), id); err != nil {
			return writeError(c, err)
		}
		lines, err := deps.Lines.ListByStop(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(lines)
	}
}

// ListLinesHandler returns the active lines, paginated.
func ListLinesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lines, err := deps.Lines.ListActive(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}

		page, pg := paginate(c, lines, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetLineHandler returns a single line by ID.
func GetLineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		line, err := deps.Lines.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(line)
	}
}

// RouteSearchResponse is returned by a search by stop IDs.
type RouteSearchResponse struct {
	OriginStopID      string                `json:"origin_stop_id"`
	DestinationStopID string                `json:"destination_stop_id"`
	Segments          []domain.RouteSegment `json:"segments"`
}

// RouteSearchHandler finds the lines travelling between two stops. Stops are
// given either by ID (from, to) or by name (from_name, to_name). Searches by
// name from a signed-in user are added to their recent searches.
func RouteSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		from, to := c.Query("from"), c.Query("to")
		fromName, toName := c.Query("from_name"), c.Query("to_name")

		var mode string
		switch {
		case from != "" || to != "":
			mode = "ids"
		case fromName != "" || toName != "":
			mode = "names"
		default:
			metrics.ObserveSearch("ids", metrics.OutcomeInvalid, 0, time.Since(start))
			return errBadRequest(c, "either from and to, or from_name and to_name, are required")
		}

		if mode == "ids" {
			segments, err := deps.Search.SearchByIDs(c.UserContext(), from, to)
			metrics.ObserveSearch(mode, searchOutcome(err, len(segments)), len(segments), time.Since(start))
			if err != nil {
				return writeError(c, err)
			}
			c.Set("Cache-Control", "public, max-age=60")
			return c.JSON(RouteSearchResponse{OriginStopID: from, DestinationStopID: to, Segments: segments})
		}

		result, err := deps.Search.SearchByName(c.UserContext(), optionalUserID(c, deps), fromName, toName)
		matched := 0
		if result != nil {
			matched = len(result.Segments)
		}
		metrics.ObserveSearch(mode, searchOutcome(err, matched), matched, time.Since(start))
		if err != nil {
			return writeError(c, err)
		}
		c.Set("Cache-Control", "private, max-age=0")
		return c.JSON(result)
	}
}

func searchOutcome(err error, matched int) string {
	var usage *domain.UsageError
	switch {
	case err == nil && matched == 0:
		return metrics.OutcomeEmpty
	case err == nil:
		return metrics.OutcomeFound
	case errors.As(err, &usage):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

// optionalUserID verifies a bearer token when one is sent. An absent or
// rejected token yields an anonymous request.
func optionalUserID(c *fiber.Ctx, deps *Dependencies) string {
	if deps.Verifier == nil {
		return ""
	}
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok {
		return ""
	}
	uid, err := deps.Verifier.VerifyToken(c.UserContext(), token)
	if err != nil {
		return ""
	}
	return utils.CopyString(uid)
}
