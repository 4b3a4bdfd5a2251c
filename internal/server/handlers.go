package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	stockroom "github.com/fernwood/stockroom/internal"
)

// maxBody is the maximum allowed request body size (1 MB).
const maxBody = 1 << 20

// jsonCT is a pre-allocated header value slice. Direct map assignment
// (w.Header()["Content-Type"] = jsonCT) avoids the []string{v} alloc
// that Header.Set creates on every call.
var jsonCT = []string{"application/json"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header()["Content-Type"] = jsonCT
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func errorResponse(msg string) apiError {
	var e apiError
	e.Error.Message = msg
	return e
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, stockroom.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stockroom.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, stockroom.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs unexpected errors server-side and returns a sanitized
// message to the client to avoid leaking internals (e.g. SQLite errors).
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		writeJSON(w, status, errorResponse("internal error"))
		return
	}
	writeJSON(w, status, errorResponse(err.Error()))
}

// decodeJSON limits body size, decodes JSON into v, and writes a 400 on error.
// Returns true if decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// --- List query parsing ---

// parsePage reads 1-based page/limit query params, clamped by Page.Normalize.
func parsePage(r *http.Request) stockroom.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return stockroom.Page{Number: page, Limit: limit}.Normalize()
}

// parseSort reads sort/order query params. Unknown fields are resolved
// against a whitelist downstream in the storage layer.
func parseSort(r *http.Request) stockroom.SortSpec {
	q := r.URL.Query()
	return stockroom.SortSpec{
		Field: q.Get("sort"),
		Desc:  q.Get("order") == "desc",
	}
}

// parseOrderFilter extracts known fields from the filter query parameter,
// a JSON object like {"status":"paid","customer_id":"c_1"}. gjson picks the
// fields without a full unmarshal; malformed JSON simply yields an empty
// filter rather than an error.
func parseOrderFilter(r *http.Request) stockroom.OrderFilter {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return stockroom.OrderFilter{}
	}
	return stockroom.OrderFilter{
		Status:     gjson.Get(raw, "status").String(),
		CustomerID: gjson.Get(raw, "customer_id").String(),
	}
}

func parseProductFilter(r *http.Request) stockroom.ProductFilter {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return stockroom.ProductFilter{}
	}
	return stockroom.ProductFilter{
		SKU:     gjson.Get(raw, "sku").String(),
		InStock: gjson.Get(raw, "in_stock").Bool(),
	}
}

// --- List response envelope ---

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type listResponse struct {
	Data       any        `json:"data"`
	Pagination pagination `json:"pagination"`
}
