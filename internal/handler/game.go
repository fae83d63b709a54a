package handler

import (
	"context"
	"net/http"

	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

// GameService is the game surface the game handler needs
type GameService interface {
	Create(ctx context.Context, sessionID, callerID string) (*model.Game, error)
	Get(ctx context.Context, gameID, callerID string) (*model.Game, error)
	List(ctx context.Context, sessionID, callerID string, page, pageSize int) ([]*model.Game, model.PageInfo, error)
	GuessLetter(ctx context.Context, gameID, letter, callerID string) (*model.GuessResult, error)
	GuessWord(ctx context.Context, gameID, word, callerID string) (*model.GuessResult, error)
	Abort(ctx context.Context, gameID, callerID string) (*model.Game, error)
	History(ctx context.Context, gameID, callerID string) ([]*model.Guess, error)
}

// GameHandler handles game endpoints nested under a session
type GameHandler struct {
	gameService GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func gameLinks(g *model.Game) map[string]string {
	session := "/api/v1/sessions/" + g.SessionID
	self := session + "/games/" + g.ID
	links := map[string]string{
		"self":    self,
		"session": session,
		"history": self + "/history",
	}
	if g.Status == model.GameStatusInProgress {
		links["guess"] = self + "/guess"
		links["abort"] = self + "/abort"
	}
	return links
}

// gameInSession loads the path's game and checks it belongs to the path's
// session. A game from another session is reported as not found.
func (h *GameHandler) gameInSession(r *http.Request) (*model.Game, error) {
	userID := middleware.GetUserID(r.Context())
	game, err := h.gameService.Get(r.Context(), r.PathValue("gameId"), userID)
	if err != nil {
		return nil, err
	}
	if game.SessionID != r.PathValue("sessionId") {
		return nil, service.ErrGameNotFound
	}
	return game, nil
}

// Create handles POST /api/v1/sessions/{sessionId}/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	game, err := h.gameService.Create(r.Context(), r.PathValue("sessionId"), userID)
	if err != nil {
		writeServiceError(w, r, err, "create game")
		return
	}

	links := gameLinks(game)
	w.Header().Set("Location", links["self"])
	WriteData(w, http.StatusCreated, game, links)
}

// List handles GET /api/v1/sessions/{sessionId}/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil {
		WriteError(w, r, model.NewBadRequestError(err.Error()))
		return
	}
	pageSize, err := queryInt(r, "page_size", model.DefaultPageSize)
	if err != nil {
		WriteError(w, r, model.NewBadRequestError(err.Error()))
		return
	}

	games, info, err := h.gameService.List(r.Context(), r.PathValue("sessionId"), userID, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err, "list games")
		return
	}

	WritePage(w, r, games, info)
}

// Get handles GET /api/v1/sessions/{sessionId}/games/{gameId}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameInSession(r)
	if err != nil {
		writeServiceError(w, r, err, "get game")
		return
	}

	WriteData(w, http.StatusOK, game, gameLinks(game))
}

// Guess handles POST /api/v1/sessions/{sessionId}/games/{gameId}/guess.
// The body carries exactly one of letter or word.
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.GuessRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}
	if (req.Letter == "") == (req.Word == "") {
		writeServiceError(w, r, service.ErrGuessKindAmbiguous, "guess")
		return
	}

	game, err := h.gameInSession(r)
	if err != nil {
		writeServiceError(w, r, err, "guess")
		return
	}

	var result *model.GuessResult
	if req.Letter != "" {
		result, err = h.gameService.GuessLetter(r.Context(), game.ID, req.Letter, userID)
	} else {
		result, err = h.gameService.GuessWord(r.Context(), game.ID, req.Word, userID)
	}
	if err != nil {
		writeServiceError(w, r, err, "guess")
		return
	}

	WriteData(w, http.StatusOK, result, gameLinks(result.Game))
}

// Abort handles POST /api/v1/sessions/{sessionId}/games/{gameId}/abort
func (h *GameHandler) Abort(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	game, err := h.gameInSession(r)
	if err != nil {
		writeServiceError(w, r, err, "abort game")
		return
	}

	aborted, err := h.gameService.Abort(r.Context(), game.ID, userID)
	if err != nil {
		writeServiceError(w, r, err, "abort game")
		return
	}

	WriteData(w, http.StatusOK, aborted, gameLinks(aborted))
}

// History handles GET /api/v1/sessions/{sessionId}/games/{gameId}/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	game, err := h.gameInSession(r)
	if err != nil {
		writeServiceError(w, r, err, "game history")
		return
	}

	guesses, err := h.gameService.History(r.Context(), game.ID, userID)
	if err != nil {
		writeServiceError(w, r, err, "game history")
		return
	}

	WriteData(w, http.StatusOK, guesses, gameLinks(game))
}
