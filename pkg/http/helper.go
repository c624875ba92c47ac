package http

import (
	"encoding/json"
	"net/http"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"strconv"
	"time"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractDate parses a required YYYY-MM-DD query parameter.
func ExtractDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, apperrors.InvalidInput("missing " + name + " parameter")
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " parameter, expected YYYY-MM-DD: " + raw)
	}
	return d, nil
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}
