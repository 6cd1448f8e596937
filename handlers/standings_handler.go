package handlers

import (
	"net/http"

	"github.com/campuscup/league-service/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(standingsService services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: standingsService}
}

func (h *StandingsHandler) GetPointsTableHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.standingsService.GetPointsTable(r.Context(), leagueID, groupRefFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"points_table": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) GetStandingHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	refID, err := requiredURLParam(r, "refID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.standingsService.GetStanding(r.Context(), leagueID, groupRefFromURL(r), refID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standing": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) ResetPointsTableHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.standingsService.ResetPointsTable(r.Context(), leagueID, groupRefFromURL(r)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
