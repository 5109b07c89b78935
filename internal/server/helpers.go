package server

import (
	"errors"
	"time"

	"healthbuddy/internal/models"
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten indicates a helper already committed the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// respond writes err with its mapped status.
func respond(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parseBody decodes the JSON body into dst. On failure it writes a 400 and
// returns errResponseWritten.
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// requireQuery returns a required query parameter, writing a 400 when absent.
func requireQuery(c *fiber.Ctx, name string) (string, error) {
	v := c.Query(name)
	if v == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(name+" is required"))
		return "", errResponseWritten
	}
	return v, nil
}

// parseDateRange reads optional startDate/endDate query parameters. Both
// RFC 3339 timestamps and plain dates are accepted.
func parseDateRange(c *fiber.Ctx) (service.DateRange, error) {
	var r service.DateRange
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"startDate", &r.Start}, {"endDate", &r.End}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid "+p.name))
			return r, errResponseWritten
		}
		*p.dst = &t
	}
	// A plain end date covers the whole day.
	if r.End != nil && len(c.Query("endDate")) == len(time.DateOnly) {
		end := r.End.Add(24*time.Hour - time.Nanosecond)
		r.End = &end
	}
	return r, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// jsonOrNull writes v, or a JSON null when v is a nil pointer.
func jsonOrNull[T any](c *fiber.Ctx, v *T) error {
	if v == nil {
		return c.Type("json").SendString("null")
	}
	return c.JSON(v)
}
