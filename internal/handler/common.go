// Package handler implements the HTTP endpoints of the seating service.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// purgeCache drops cached responses after a successful write.  Failures
// are logged only.
func purgeCache(ctx context.Context, cache CachePurger, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Purge(ctx); err != nil {
		log.Warn("purge cache failed", zap.Error(err))
	}
}

// getUserID reads the user_id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// indexToRowLabel converts a zero-based index to a row label: A..Z, AA, AB...
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// seatLabel renders a 1-based grid cell as "A1", "B12" and so on.
func seatLabel(row, col int) string {
	return indexToRowLabel(row-1) + strconv.Itoa(col)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// normaliseClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS, or "" when
// s is not a valid time of day.
func normaliseClock(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{clockLayout, clockLayoutHM} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(clockLayout)
		}
	}
	return ""
}

func queryInt(c echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil && v >= 0 {
		return v
	}
	return def
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
}

func serverError(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
