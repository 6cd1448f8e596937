package handlers

import (
	"net/http"

	"github.com/campuscup/league-service/services"
)

type StageHandler struct {
	stageService   services.StageService
	bracketService services.BracketService
}

func NewStageHandler(stageService services.StageService, bracketService services.BracketService) *StageHandler {
	return &StageHandler{stageService: stageService, bracketService: bracketService}
}

func (h *StageHandler) CreateStageHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.stageService.CreateStage(r.Context(), leagueID, groupRefFromURL(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) ListStagesHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stages, err := h.stageService.ListStages(r.Context(), leagueID, groupRefFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) DeleteStageHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.stageService.DeleteStageRecursive(r.Context(), leagueID, groupRefFromURL(r), stageID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *StageHandler) GenerateKnockoutHandler(w http.ResponseWriter, r *http.Request) {
	leagueID, err := requiredURLParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GenerateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GenerateKnockout(r.Context(), leagueID, groupRefFromURL(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
