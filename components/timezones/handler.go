package timezones

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// HTTPError lets guard errors pick the response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a guard error carrying a status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Result is one search hit, shaped for option pickers.
type Result struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type response struct {
	Data []Result `json:"data"`
}

// Handler serves GET and HEAD searches over the catalog as
// {"data": [{"value": ..., "label": ...}]}.
func Handler(fns ...Option) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the handler from prepared options.
func HandlerWithOptions(opts Options) http.Handler {
	opts = opts.normalized()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		catalog := opts.Catalog
		if catalog == nil {
			var err error
			if catalog, err = Default(); err != nil {
				opts.Logger.WithError(err).Error("timezones: load default catalog")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		query := r.URL.Query()
		zones := catalog.Search(query.Get(opts.SearchParam), parseLimit(query.Get(opts.LimitParam)), opts)
		results := make([]Result, 0, len(zones))
		for _, zone := range zones {
			results = append(results, Result{Value: zone, Label: zone})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if err := json.NewEncoder(w).Encode(response{Data: results}); err != nil {
			opts.Logger.WithError(err).Warn("timezones: write response")
		}
	})
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode() > 0 {
		code = httpErr.StatusCode()
	}
	http.Error(w, http.StatusText(code), code)
}

func parseLimit(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}
