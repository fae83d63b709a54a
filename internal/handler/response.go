package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/forgo/hangman/api/internal/model"
)

// maxBodyBytes bounds decoded request bodies
const maxBodyBytes = 1 << 20

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response with pagination
type CollectionResponse struct {
	Data       interface{}       `json:"data"`
	Pagination *model.PageInfo   `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{
		Data:  data,
		Links: links,
	})
}

// WritePage writes one page of a collection. The Link header carries
// first, last, next and prev relations built from the request URL.
func WritePage(w http.ResponseWriter, r *http.Request, data interface{}, page model.PageInfo) {
	if link := linkHeader(r.URL, page); link != "" {
		w.Header().Set("Link", link)
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	WriteJSON(w, http.StatusOK, CollectionResponse{
		Data:       data,
		Pagination: &page,
	})
}

// linkHeader builds an RFC 5988 Link value for page
func linkHeader(u *url.URL, page model.PageInfo) string {
	last := max(page.TotalPages, 1)
	pageURL := func(n int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		q.Set("page_size", strconv.Itoa(page.PageSize))
		return u.Path + "?" + q.Encode()
	}

	links := []string{
		fmt.Sprintf(`<%s>; rel="first"`, pageURL(1)),
		fmt.Sprintf(`<%s>; rel="last"`, pageURL(last)),
	}
	if page.Page < last {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, pageURL(page.Page+1)))
	}
	if page.Page > 1 {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, pageURL(min(page.Page-1, last))))
	}
	return strings.Join(links, ", ")
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, r *http.Request, err *model.ProblemDetails) {
	if r != nil && err.Instance == "" {
		err.Instance = r.URL.Path
	}
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct. An empty
// body leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// queryInt reads a positive integer query parameter, returning def when
// the parameter is absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
