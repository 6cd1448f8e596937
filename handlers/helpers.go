package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

// ungroupedSegment is the URL segment addressing the implicit General group
// of a league created without grouping.
const ungroupedSegment = "general"

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

// groupRefFromURL parses the {groupID} segment. The literal "general"
// addresses the league's implicit group; anything else is an explicit id.
func groupRefFromURL(r *http.Request) models.GroupRef {
	segment := chi.URLParam(r, "groupID")
	if segment == "" || segment == ungroupedSegment {
		return models.Ungrouped()
	}
	return models.ExplicitGroup(segment)
}

func requiredURLParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", fmt.Errorf("missing %s in URL", name)
	}
	return value, nil
}

// mapServiceErrorToHTTP translates service layer errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrLeagueNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrFixtureNotFound),
		errors.Is(err, services.ErrSeasonNotFound),
		errors.Is(err, services.ErrSportNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrDuplicateSubmission),
		errors.Is(err, services.ErrSeasonNameConflict),
		errors.Is(err, services.ErrSportNameConflict),
		errors.Is(err, services.ErrFixtureAlreadyFinal),
		errors.Is(err, services.ErrConflictRetriesExhausted):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrLeagueNameRequired),
		errors.Is(err, services.ErrSportRequired),
		errors.Is(err, services.ErrGroupNameRequired),
		errors.Is(err, services.ErrStageNameRequired),
		errors.Is(err, services.ErrStageTypeInvalid),
		errors.Is(err, services.ErrStageParentMismatch),
		errors.Is(err, services.ErrSubgroupTooDeep),
		errors.Is(err, services.ErrTooFewParticipants),
		errors.Is(err, services.ErrParticipantUnknown),
		errors.Is(err, services.ErrNegativeScore),
		errors.Is(err, services.ErrTargetSlotInvalid),
		errors.Is(err, services.ErrSameTeamFixture),
		errors.Is(err, services.ErrSeasonNameRequired),
		errors.Is(err, services.ErrSportNameRequired):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
