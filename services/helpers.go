package services

import (
	"context"
	"errors"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// groupResolver turns a GroupRef into a concrete group row exactly once at
// the service boundary. Ungrouped resolves to the league's implicit General
// group; no sentinel id ever reaches the storage layer.
type groupResolver struct {
	groupRepo repositories.GroupRepository
}

func (r groupResolver) resolveGroup(ctx context.Context, leagueID string, ref models.GroupRef) (*models.Group, error) {
	var group *models.Group
	var err error
	if ref.Ungrouped() {
		group, err = r.groupRepo.GetGeneral(ctx, nil, leagueID)
	} else {
		group, err = r.groupRepo.GetByID(ctx, leagueID, ref.ID())
	}
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}
