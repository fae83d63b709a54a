package handler

import (
	"context"
	"net/http"

	"github.com/forgo/hangman/api/internal/model"
)

// DictionaryService lists the word lists sessions can draw from
type DictionaryService interface {
	List(ctx context.Context) ([]*model.Dictionary, error)
	Get(ctx context.Context, id string) (*model.Dictionary, error)
}

// DictionaryHandler handles dictionary endpoints
type DictionaryHandler struct {
	dictionaryService DictionaryService
}

// NewDictionaryHandler creates a new dictionary handler
func NewDictionaryHandler(dictionaryService DictionaryService) *DictionaryHandler {
	return &DictionaryHandler{dictionaryService: dictionaryService}
}

// List handles GET /api/v1/dictionaries
func (h *DictionaryHandler) List(w http.ResponseWriter, r *http.Request) {
	dicts, err := h.dictionaryService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list dictionaries")
		return
	}
	if dicts == nil {
		dicts = []*model.Dictionary{}
	}

	WriteData(w, http.StatusOK, dicts, nil)
}

// Get handles GET /api/v1/dictionaries/{dictionaryId}
func (h *DictionaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	dict, err := h.dictionaryService.Get(r.Context(), r.PathValue("dictionaryId"))
	if err != nil {
		writeServiceError(w, r, err, "get dictionary")
		return
	}

	WriteData(w, http.StatusOK, dict, map[string]string{
		"self": "/api/v1/dictionaries/" + dict.ID,
	})
}
