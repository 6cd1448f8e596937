package handlers

import (
	"net/http"

	"github.com/campuscup/league-service/services"
)

type SeasonHandler struct {
	seasonService services.SeasonService
}

func NewSeasonHandler(seasonService services.SeasonService) *SeasonHandler {
	return &SeasonHandler{seasonService: seasonService}
}

func (h *SeasonHandler) CreateSportHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport, err := h.seasonService.CreateSport(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"sport": sport}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) ListSportsHandler(w http.ResponseWriter, r *http.Request) {
	sports, err := h.seasonService.ListSports(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) CreateSeasonHandler(w http.ResponseWriter, r *http.Request) {
	sportID, err := requiredURLParam(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSeasonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.CreateSeason(r.Context(), sportID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) ListSeasonsHandler(w http.ResponseWriter, r *http.Request) {
	sportID, err := requiredURLParam(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	seasons, err := h.seasonService.ListSeasons(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) GetActiveSeasonHandler(w http.ResponseWriter, r *http.Request) {
	sportID, err := requiredURLParam(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.GetActiveSeason(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) SetActiveSeasonHandler(w http.ResponseWriter, r *http.Request) {
	sportID, err := requiredURLParam(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	seasonID, err := requiredURLParam(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.seasonService.SetActiveSeason(r.Context(), sportID, seasonID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "activated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
