package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/campuscup/league-service/services"
)

type FixtureHandler struct {
	fixtureService services.FixtureService
}

func NewFixtureHandler(fixtureService services.FixtureService) *FixtureHandler {
	return &FixtureHandler{fixtureService: fixtureService}
}

func (h *FixtureHandler) CreateFixtureHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateFixtureInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.fixtureService.CreateFixture(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FixtureHandler) GetFixtureHandler(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := requiredURLParam(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.fixtureService.GetFixture(r.Context(), fixtureID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FixtureHandler) ListFixturesHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := fixtureFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.fixtureService.ListFixtures(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FixtureHandler) UpdateFixtureStatusHandler(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := requiredURLParam(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.FixtureStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.fixtureService.UpdateFixtureStatus(r.Context(), fixtureID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FixtureHandler) FinalizeResultHandler(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := requiredURLParam(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.FinalizeResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.fixtureService.FinalizeResult(r.Context(), fixtureID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func fixtureFilterFromQuery(r *http.Request) (repositories.FixtureFilter, error) {
	var filter repositories.FixtureFilter
	q := r.URL.Query()

	strParam := func(name string) *string {
		if v := q.Get(name); v != "" {
			return &v
		}
		return nil
	}

	filter.Sport = strParam("sport")
	filter.SeasonID = strParam("season_id")
	filter.LeagueID = strParam("league_id")
	filter.TeamID = strParam("team_id")

	if v := q.Get("status"); v != "" {
		status := models.FixtureStatus(v)
		filter.Status = &status
	}
	if v := q.Get("type"); v != "" {
		fixtureType := models.FixtureType(v)
		filter.Type = &fixtureType
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return filter, fmt.Errorf("invalid %s timestamp %q, expected RFC3339", name, v)
			}
			*dst = &t
		}
	}
	return filter, nil
}
