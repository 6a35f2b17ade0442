package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
	"github.com/diewo77/go-school/internal/middleware"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/validation"
	"github.com/diewo77/go-school/view"
)

// ResourceHandler serves one school table: an HTML listing and a JSON API.
type ResourceHandler interface {
	Name() string
	Page(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// Column is one field shown in the HTML listing.
type Column[T any] struct {
	Name  string
	Value func(*T) string
}

// Resource serves the table of rows of type T.
type Resource[T any] struct {
	name     string
	table    *store.Table[T]
	columns  []Column[T]
	authz    Authorizer
	validate *validation.Validator
}

// NewResource creates the handler of table name.
func NewResource[T any](name string, table *store.Table[T], columns []Column[T], authz Authorizer, v *validation.Validator) *Resource[T] {
	return &Resource[T]{name: name, table: table, columns: columns, authz: authz, validate: v}
}

func (h *Resource[T]) Name() string { return h.name }

func (h *Resource[T]) query(r *http.Request) store.Query {
	return store.Query{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
		Search:  r.URL.Query().Get("q"),
		OwnerID: h.authz.OwnerFilter(r.Context(), h.name),
	}
}

// Page renders the HTML listing.
func (h *Resource[T]) Page(w http.ResponseWriter, r *http.Request) {
	q := h.query(r)
	page, err := h.table.List(r.Context(), q)
	if err != nil {
		slog.Error("list table", "table", h.name, "err", err)
		view.Error(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	headers := make([]string, len(h.columns))
	for i, c := range h.columns {
		headers[i] = c.Name
	}
	rows := make([][]string, len(page.Items))
	for i := range page.Items {
		cells := make([]string, len(h.columns))
		for j, c := range h.columns {
			cells[j] = c.Value(&page.Items[i])
		}
		rows[i] = cells
	}
	render(w, r, "resources/index.html", map[string]any{
		"Title":   "table." + h.name,
		"Name":    h.name,
		"Headers": headers,
		"Rows":    rows,
		"Search":  q.Search,
		"Pager": map[string]any{
			"Base":  "/" + h.name,
			"Page":  page.Page,
			"Pages": page.Pages(),
			"Total": page.Total,
			"Query": q.Search,
		},
	})
}

// List answers one page of rows as JSON.
func (h *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.table.List(r.Context(), h.query(r))
	if err != nil {
		slog.Error("list table", "table", h.name, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Resource[T]) Show(w http.ResponseWriter, r *http.Request) {
	row, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	row, ok := h.decode(w, r)
	if !ok {
		return
	}
	if !h.authz.Can(r.Context(), gate.ActionCreate, h.name, row) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.table.Create(r.Context(), row); err != nil {
		h.storeError(w, "create", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, row)
}

// Update replaces every writable field of the row.
func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r, gate.ActionUpdate); !ok {
		return
	}
	id, _ := pathID(r)
	row, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.table.Update(r.Context(), id, row); err != nil {
		h.storeError(w, "update", err)
		return
	}
	fresh, err := h.table.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, "reload", err)
		return
	}
	httpx.JSON(w, http.StatusOK, fresh)
}

func (h *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r, gate.ActionDelete); !ok {
		return
	}
	id, _ := pathID(r)
	if err := h.table.Delete(r.Context(), id); err != nil {
		h.storeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the {id} row and checks action against it.
func (h *Resource[T]) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*T, bool) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	row, err := h.table.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, "get", err)
		return nil, false
	}
	if !h.authz.Can(r.Context(), action, h.name, row) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return nil, false
	}
	return row, true
}

func (h *Resource[T]) decode(w http.ResponseWriter, r *http.Request) (*T, bool) {
	row := new(T)
	if err := json.NewDecoder(r.Body).Decode(row); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return nil, false
	}
	if v := h.validate.Struct(middleware.LangFrom(r), row); v != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return nil, false
	}
	return row, true
}

func (h *Resource[T]) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, store.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	default:
		slog.Error("table "+op, "table", h.name, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
	}
}
