package handler

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"zkbridge.service/internal/core/aggregate"
	"zkbridge.service/internal/ports/device"
)

// timezonePattern accepts IANA Area/City names or the literal UTC.
var timezonePattern = regexp.MustCompile(`^[A-Za-z]+/[A-Za-z_]+$|^UTC$`)

// parseEndpoint resolves the target terminal from the ip/port query
// parameters, falling back to the configured defaults.
func parseEndpoint(r *http.Request, defaults device.Endpoint) (device.Endpoint, error) {
	endpoint := defaults

	if ip := r.URL.Query().Get("ip"); ip != "" {
		if net.ParseIP(ip) == nil {
			return device.Endpoint{}, fmt.Errorf("ip must be a valid IP address")
		}
		endpoint.Host = ip
	}
	if raw := r.URL.Query().Get("port"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return device.Endpoint{}, fmt.Errorf("port must be a valid port number (1-65535)")
		}
		endpoint.Port = port
	}
	return endpoint, nil
}

// parseRange reads the optional fromDate/toDate query parameters. An
// inverted range is rejected here; the aggregation layer never sees one.
func parseRange(r *http.Request) (aggregate.Range, error) {
	var rng aggregate.Range

	if raw := r.URL.Query().Get("fromDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return rng, fmt.Errorf("fromDate must be a valid ISO 8601 datetime string")
		}
		rng.From = &t
	}
	if raw := r.URL.Query().Get("toDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return rng, fmt.Errorf("toDate must be a valid ISO 8601 datetime string")
		}
		rng.To = &t
	}
	if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
		return rng, fmt.Errorf("fromDate must be before or equal to toDate")
	}
	return rng, nil
}

// parseTimezone reads the optional timezone query parameter and validates it
// both syntactically and against the zone database.
func parseTimezone(r *http.Request) (string, error) {
	tz := r.URL.Query().Get("timezone")
	if tz == "" {
		return "", nil
	}
	if !timezonePattern.MatchString(tz) {
		return "", fmt.Errorf("timezone must be a valid IANA timezone (e.g., America/New_York, Europe/London, UTC)")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("timezone %q is not a known IANA timezone", tz)
	}
	return tz, nil
}

// rangeMeta echoes the applied filter bounds back to the caller.
func rangeMeta(total int, rng aggregate.Range) map[string]any {
	meta := map[string]any{"total": total}
	if rng.From != nil {
		meta["fromDate"] = rng.From.UTC().Format(time.RFC3339)
	}
	if rng.To != nil {
		meta["toDate"] = rng.To.UTC().Format(time.RFC3339)
	}
	return meta
}
