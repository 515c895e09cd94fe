package handlers

import (
	"net/http"

	"github.com/pokernight/league-system/middleware"
	"github.com/pokernight/league-system/services"
)

type LeagueHandler struct {
	leagueService *services.LeagueService
	rosterService services.RosterService
}

func NewLeagueHandler(leagueService *services.LeagueService, rosterService services.RosterService) *LeagueHandler {
	return &LeagueHandler{
		leagueService: leagueService,
		rosterService: rosterService,
	}
}

func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current player")
		return
	}

	var input services.CreateLeagueInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.Create(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"league": league,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.GetByID(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, league, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.leagueService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"leagues": leagues,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMembers возвращает состав лиги в порядке вступления.
func (h *LeagueHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getLeagueIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.rosterService.MembersOf(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"members": members,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Join(w http.ResponseWriter, r *http.Request) {
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

	if err := h.rosterService.Join(r.Context(), leagueID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": "Joined league successfully",
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
