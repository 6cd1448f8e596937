package handlers

import (
	"net/http"

	"github.com/campuscup/league-service/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	importService services.ImportService
}

func NewMatchHandler(matchService services.MatchService, importService services.ImportService) *MatchHandler {
	return &MatchHandler{matchService: matchService, importService: importService}
}

func (h *MatchHandler) matchPath(r *http.Request) (leagueID, stageID, matchID string, err error) {
	if leagueID, err = requiredURLParam(r, "leagueID"); err != nil {
		return
	}
	if stageID, err = requiredURLParam(r, "stageID"); err != nil {
		return
	}
	matchID, err = requiredURLParam(r, "matchID")
	return
}

func (h *MatchHandler) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := requiredURLParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), leagueID, groupRefFromURL(r), stageID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, stageID, matchID, err := h.matchPath(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), leagueID, groupRefFromURL(r), stageID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := requiredURLParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), leagueID, groupRefFromURL(r), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateScoresHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, stageID, matchID, err := h.matchPath(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Scores []services.ScoreUpdate `json:"scores"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateScores(r.Context(), leagueID, groupRefFromURL(r), stageID, matchID, input.Scores)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) AdvanceWinnerHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WinnerID    string `json:"winner_id"`
		WinnerName  string `json:"winner_name"`
		NextMatchID string `json:"next_match_id"`
		TargetSlot  int    `json:"target_slot"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err := h.matchService.AdvanceWinner(r.Context(), input.WinnerID, input.WinnerName, input.NextMatchID, input.TargetSlot)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "advanced"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportScoresHandler accepts a text/csv body of match_number,home,away rows
// and resolves each listed match of the stage.
func (h *MatchHandler) ImportScoresHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := requiredURLParam(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.importService.ImportScoresCSV(r.Context(), leagueID, groupRefFromURL(r), stageID, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
