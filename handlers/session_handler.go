package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pokernight/league-system/middleware"
	"github.com/pokernight/league-system/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// Status отдаёт текущую проекцию сессии. Открытая сессия создаётся, если
// её нет — это документированный побочный эффект этого эндпоинта; сама
// проекция состояния не мутирует.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.sessionService.EnsureOpenSession(r.Context(), leagueID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status, err := h.sessionService.Status(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, status, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	status, err := h.sessionService.CheckIn(r.Context(), leagueID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":          true,
		"message":          "Player checked in successfully",
		"checked_in_count": status.CheckedIn,
		"seat_assignments": status.SeatAssignments,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input struct {
		FinishPosition *int `json:"finish_position"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.sessionService.CheckOut(r.Context(), leagueID, playerID, input.FinishPosition)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":          true,
		"message":          "Player checked out successfully",
		"checked_in_count": status.CheckedIn,
		"seat_assignments": status.SeatAssignments,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	session, err := h.sessionService.Start(r.Context(), leagueID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": "Game started!",
		"game_id": session.ID,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input struct {
		Results []services.FinishResult `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Results) == 0 {
		badRequestResponse(w, r, errors.New("results must not be empty"))
		return
	}

	session, err := h.sessionService.Complete(r.Context(), leagueID, actorID, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": "Session results recorded",
		"session": session,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	session, err := h.sessionService.Reset(r.Context(), leagueID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": "Game reset successfully",
		"game_id": session.ID,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func getLeagueIDFromURL(r *http.Request) (string, error) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		return "", errors.New("missing league ID in URL path")
	}
	return leagueID, nil
}
