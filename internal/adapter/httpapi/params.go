package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// parseBoolParam reads a boolean query parameter. Accepted true forms are
// 1/true/yes/y/on and false forms 0/false/no/n/off, case-insensitive.
// An absent or blank parameter yields the default.
func parseBoolParam(r *http.Request, name string, defaultValue bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	if raw == "" {
		return defaultValue, nil
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, domain.NewValidationError("%s must be a boolean flag, got %q", name, raw)
}

// parseIntParam reads an integer query parameter, 0 when absent.
func parseIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("%s must be an integer, got %q", name, raw)
	}
	return value, nil
}
