package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// queryParams reads optional numeric query parameters, remembering the first
// malformed one.
type queryParams struct {
	r   *http.Request
	err error
}

func (q *queryParams) floatParam(name string, def float64) float64 {
	raw := strings.TrimSpace(q.r.URL.Query().Get(name))
	if raw == "" || q.err != nil {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.err = fmt.Errorf("invalid %s: %q is not a number", name, raw)
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		q.err = fmt.Errorf("invalid %s: %q is not a finite number", name, raw)
		return def
	}
	return v
}

func (q *queryParams) intParam(name string, def int) int {
	raw := strings.TrimSpace(q.r.URL.Query().Get(name))
	if raw == "" || q.err != nil {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.err = fmt.Errorf("invalid %s: %q is not an integer", name, raw)
		return def
	}
	return v
}

// cacheKey identifies a request by path and sorted query
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}
