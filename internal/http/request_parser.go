// Package http serves the JSON API.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duitku/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON parses the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// pathID extracts a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryInt returns a query parameter as int, or the fallback when absent
// or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseMonthYear extracts bulan/tahun query parameters, defaulting to the
// current month.
func parseMonthYear(r *http.Request, now time.Time) (month, year int) {
	month = queryInt(r, "bulan", int(now.Month()))
	year = queryInt(r, "tahun", now.Year())
	return month, year
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// parseOptionalDate parses a date that may be empty.
func parseOptionalDate(dateStr string) (core.Date, error) {
	if strings.TrimSpace(dateStr) == "" {
		return core.Date{}, nil
	}
	return parseDate(dateStr)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
