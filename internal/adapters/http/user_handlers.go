package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/usecases"
)

type createProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// GetProfileHandler returns the caller's profile.
func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Profiles.Get(c.UserContext(), userID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	}
}

// CreateProfileHandler registers the caller's profile.
func CreateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := deps.Profiles.Create(c.UserContext(), userID(c), req.Email, req.FullName)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// UpdateProfileHandler changes the caller's name or email.
func UpdateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.ProfileUpdate
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := deps.Profiles.Update(c.UserContext(), userID(c), req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	}
}

// ListFavoritesHandler returns the caller's saved routes, newest first.
func ListFavoritesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		favs, err := deps.Favorites.List(c.UserContext(), userID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(favs)
	}
}

// AddFavoriteHandler saves a route segment, as returned by a search.
func AddFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var seg domain.RouteSegment
		if err := c.BodyParser(&seg); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		fav, err := deps.Favorites.Add(c.UserContext(), userID(c), seg)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fav)
	}
}

// CheckFavoriteHandler reports whether the caller saved any route between two stops.
func CheckFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, destination := c.Query("origin"), c.Query("destination")
		if origin == "" || destination == "" {
			return errBadRequest(c, "origin and destination are required")
		}
		ok, err := deps.Favorites.IsFavorite(c.UserContext(), userID(c), origin, destination)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"favorite": ok})
	}
}

// DeleteFavoriteHandler removes one of the caller's saved routes.
func DeleteFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Favorites.Remove(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListRecentSearchesHandler returns the caller's latest searches.
func ListRecentSearchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recent, err := deps.History.List(c.UserContext(), userID(c), c.QueryInt("limit", 0))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(recent)
	}
}

// DeleteRecentSearchHandler removes one entry from the caller's history.
func DeleteRecentSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.History.Remove(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
