package service

import (
	"context"
	"errors"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
)

func findUser(ctx context.Context, users repository.UserRepository, id, what string) (*models.User, error) {
	if id == "" {
		return nil, apperr.Validation(what + " id is required")
	}
	u, err := users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(what + " not found")
	}
	if err != nil {
		return nil, apperr.Storage("users.find", err)
	}
	return u, nil
}

func summaries(ctx context.Context, users repository.UserRepository, ids []string) (map[string]models.UserSummary, error) {
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Storage("users.find_many", err)
	}
	out := make(map[string]models.UserSummary, len(found))
	for _, u := range found {
		out[u.ID] = u.Summary()
	}
	return out, nil
}
