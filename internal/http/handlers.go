package httpapi

import (
	"errors"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/product-catalog-service/internal/catalog"
	httpopenapi "github.com/fairyhunter13/product-catalog-service/internal/http/openapi"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
	"github.com/fairyhunter13/product-catalog-service/internal/query"
	"github.com/fairyhunter13/product-catalog-service/internal/store"
)

// App carries the dependencies shared by the HTTP handlers.
type App struct {
	Catalog *catalog.Service
	Repo    *store.Repository
	started time.Time
}

func NewApp(svc *catalog.Service, repo *store.Repository) *App {
	return &App{Catalog: svc, Repo: repo, started: time.Now()}
}

// queryValues returns the query string with names folded to lower case.
// Values of names that differ only in case are merged, in name order.
func queryValues(r *http.Request) url.Values {
	raw := r.URL.Query()
	out := make(url.Values, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		lk := strings.ToLower(k)
		out[lk] = append(out[lk], raw[k]...)
	}
	return out
}

func optionalInt(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseRequest builds a catalog.Request from the query string. Parameter
// names match case-insensitively. Malformed filters are errors; an
// undetectable highlight separator is only logged.
func ParseRequest(r *http.Request) (catalog.Request, error) {
	var req catalog.Request
	var err error
	q := queryValues(r)
	if req.Criteria.MinPrice, err = optionalInt(q, "minprice"); err != nil {
		return req, &paramError{name: "minprice", err: err}
	}
	if req.Criteria.MaxPrice, err = optionalInt(q, "maxprice"); err != nil {
		return req, &paramError{name: "maxprice", err: err}
	}
	if raw := q.Get("size"); raw != "" {
		size, err := model.ParseSize(raw)
		if err != nil {
			return req, &paramError{name: "size", err: err}
		}
		req.Criteria.Size = &size
	}

	hl, err := query.Bind("highlight", q["highlight"])
	switch {
	case err == nil:
	case query.IsBindingError(err):
		obs.BindingFallbacks.WithLabelValues("highlight").Inc()
		obs.Logger.Warn().Err(err).
			Str("request_id", obs.RequestIDFromContext(r.Context())).
			Msg("highlight_separator_fallback")
	default:
		obs.Logger.Warn().Err(err).
			Str("request_id", obs.RequestIDFromContext(r.Context())).
			Msg("highlight_parse_failed")
		hl = query.MultiValueParam{}
	}
	req.Highlight = hl
	return req, nil
}

type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string { return e.name + ": " + e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			WriteJSONError(w, http.StatusBadRequest, "invalid_"+pe.name, pe.err.Error())
			return
		}
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.Catalog.Products(r.Context(), req))
}

func (a *App) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	p, ok := a.Repo.Get(r.Context(), id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) readyHandler(w http.ResponseWriter, _ *http.Request) {
	state := a.Repo.State()
	body := map[string]any{
		"status":     state.String(),
		"uptime_sec": time.Since(a.started).Seconds(),
	}
	if state != store.StateWarm {
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *App) openapiHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

const docsPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Product Catalog API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' });
    </script>
  </body>
</html>`

func (a *App) docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
