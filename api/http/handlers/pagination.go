package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/accounts/pkg/apperr"
)

// parsePage reads optional page and limit query parameters. Absent values
// are returned as zero so the use case applies its defaults.
func parsePage(c *fiber.Ctx) (page, limit int, err error) {
	if page, err = positiveQuery(c, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = positiveQuery(c, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func positiveQuery(c *fiber.Ctx, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperr.New(apperr.ErrInvalidInput, key+" must be an integer >= 1")
	}
	return n, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime reads an optional timestamp query parameter. Values without a
// zone are UTC. A bare date used as an upper bound covers the whole day.
func parseTime(c *fiber.Ctx, key string, upper bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if upper && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		t = t.UTC()
		return &t, nil
	}
	return nil, apperr.New(apperr.ErrInvalidInput, key+" must be a date or RFC 3339 timestamp")
}
