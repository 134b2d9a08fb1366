package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/safezip/zip-safety-lookup/internal/crime"
	"github.com/safezip/zip-safety-lookup/internal/geo"
	"github.com/safezip/zip-safety-lookup/internal/history"
	"github.com/safezip/zip-safety-lookup/internal/mapview"
	"github.com/safezip/zip-safety-lookup/internal/safety"
)

var validate = validator.New()

// Deps bundles everything the HTTP layer exposes.
type Deps struct {
	Session  *safety.Session
	History  *history.Store
	Markers  *mapview.Registry
	Provider crime.Provider
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	// Stateless one-shot lookup, no session state involved.
	v1.Get("/safety", func(c *fiber.Ctx) error {
		zip, err := parseZipQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := deps.Session.Lookup(c.Context(), zip)
		if err != nil {
			return errorToHTTP(err)
		}
		return c.JSON(result)
	})

	// Raw provider pass-through.
	v1.Get("/crime", func(c *fiber.Ctx) error {
		zip, err := parseZipQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stats, err := deps.Provider.FetchStats(c.Context(), zip, c.Query("state"))
		if err != nil {
			return errorToHTTP(err)
		}
		return c.JSON(stats)
	})

	v1.Get("/ping", func(c *fiber.Ctx) error {
		c.Set("X-PAGES-FUNCTION", "yes")
		c.Set("Cache-Control", "no-store")
		return c.SendString("PING OK")
	})

	registerSessionRoutes(v1, deps)
	registerHistoryRoutes(v1, deps)
}

func registerSessionRoutes(v1 fiber.Router, deps Deps) {
	v1.Post("/session/search", func(c *fiber.Ctx) error {
		zip, err := parseZipQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := deps.Session.Search(c.Context(), zip)
		if err != nil {
			return errorToHTTP(err)
		}
		return c.JSON(result)
	})

	v1.Get("/session/results", func(c *fiber.Ctx) error {
		results := deps.Session.Results()
		return c.JSON(fiber.Map{
			"mode":    deps.Session.Mode(),
			"sortBy":  deps.Session.SortBy(),
			"count":   len(results),
			"results": results,
		})
	})

	v1.Delete("/session/results/:zip", func(c *fiber.Ctx) error {
		zip := c.Params("zip")
		if !safety.ValidZip(zip) {
			return fiber.NewError(fiber.StatusBadRequest, safety.ErrInvalidZip.Error())
		}
		if err := deps.Session.Remove(zip); err != nil {
			return errorToHTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/session/mode", func(c *fiber.Ctx) error {
		var q modeQuery
		q.Mode = c.Query("mode")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "mode must be single or compare")
		}
		deps.Session.SetMode(safety.Mode(q.Mode))
		return c.JSON(fiber.Map{"mode": deps.Session.Mode()})
	})

	v1.Post("/session/sort", func(c *fiber.Ctx) error {
		var q sortQuery
		q.By = c.Query("by")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "by must be score_desc, score_asc, or zip_asc")
		}
		deps.Session.Sort(safety.SortCriterion(q.By))
		return c.JSON(fiber.Map{"sortBy": deps.Session.SortBy()})
	})

	v1.Post("/session/clear", func(c *fiber.Ctx) error {
		deps.Session.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/session/focus", func(c *fiber.Ctx) error {
		zip, err := parseZipQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Session.Focus(zip); err != nil {
			return errorToHTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/session/markers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"markers": deps.Markers.Markers(),
			"focused": deps.Markers.Focused(),
		})
	})

	v1.Get("/session/summary", func(c *fiber.Ctx) error {
		return c.JSON(deps.Session.Summary())
	})
}

func registerHistoryRoutes(v1 fiber.Router, deps Deps) {
	v1.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"history": deps.History.List()})
	})

	v1.Delete("/history", func(c *fiber.Ctx) error {
		if err := deps.History.Clear(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to clear history")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// zipQuery holds the validated zip query parameter.
type zipQuery struct {
	Zip string `validate:"required,len=5,numeric"`
}

type modeQuery struct {
	Mode string `validate:"required,oneof=single compare"`
}

type sortQuery struct {
	By string `validate:"required,oneof=score_desc score_asc zip_asc"`
}

func parseZipQuery(c *fiber.Ctx) (string, error) {
	var q zipQuery
	q.Zip = c.Query("zip")

	if err := validate.Struct(q); err != nil {
		return "", safety.ErrInvalidZip
	}
	return q.Zip, nil
}

// errorToHTTP maps the error taxonomy onto status codes. The three
// provider failure classes collapse into one user-facing message here;
// logs and metrics keep them apart.
func errorToHTTP(err error) error {
	switch {
	case errors.Is(err, safety.ErrInvalidZip):
		return fiber.NewError(fiber.StatusBadRequest, safety.ErrInvalidZip.Error())
	case errors.Is(err, safety.ErrDuplicateZip):
		return fiber.NewError(fiber.StatusConflict, safety.ErrDuplicateZip.Error())
	case errors.Is(err, safety.ErrNotInCompare):
		return fiber.NewError(fiber.StatusConflict, safety.ErrNotInCompare.Error())
	case errors.Is(err, safety.ErrNoSuchResult):
		return fiber.NewError(fiber.StatusNotFound, safety.ErrNoSuchResult.Error())
	case errors.Is(err, geo.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "ZIP lookup failed")
	case errors.Is(err, crime.ErrUnavailable),
		errors.Is(err, crime.ErrBadResponse),
		errors.Is(err, crime.ErrRejected):
		return fiber.NewError(fiber.StatusBadGateway, "couldn't load crime data for that ZIP")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "something went wrong")
	}
}
