package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Generic not found
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrLeagueNameRequired  = errors.New("league name is required")
	ErrSportRequired       = errors.New("a sport must be selected for the league")
	ErrGroupNameRequired   = errors.New("group name is required")
	ErrStageNameRequired   = errors.New("stage name is required")
	ErrStageTypeInvalid    = errors.New("stage type must be knockout or round_robin")
	ErrStageParentMismatch = errors.New("parent stage must belong to the same league and group")
	ErrSubgroupTooDeep     = errors.New("sub-groups cannot be nested more than one level")
	ErrTooFewParticipants  = errors.New("a match requires at least two participants")
	ErrParticipantUnknown  = errors.New("score refers to a participant not in the match")
	ErrNegativeScore       = errors.New("participant scores cannot be negative")
	ErrTargetSlotInvalid   = errors.New("advancement target slot must be 0 or 1")
	ErrSameTeamFixture     = errors.New("home and away team must differ")
	ErrFixtureAlreadyFinal = errors.New("fixture result has already been finalized")
	ErrSeasonNameRequired  = errors.New("season name is required")
	ErrSportNameRequired   = errors.New("sport name is required")

	// Conflicts
	ErrDuplicateSubmission = errors.New("identical submission received moments ago")
	ErrSeasonNameConflict  = errors.New("season name is already in use for this sport")
	ErrSportNameConflict   = errors.New("sport name is already in use")

	// Entity-specific not-found (more context than the generic ErrNotFound)
	ErrLeagueNotFound  = errors.New("league not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrStageNotFound   = errors.New("stage not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrFixtureNotFound = errors.New("fixture not found")
	ErrSeasonNotFound  = errors.New("season not found")
	ErrSportNotFound   = errors.New("sport not found")

	// Conflict surfaced after transaction retries are exhausted
	ErrConflictRetriesExhausted = errors.New("the update conflicted with a concurrent change, please retry")
)
