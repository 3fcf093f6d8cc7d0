package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/server/middleware"
)

type RegisterFrogInput struct {
	Body struct {
		TokenID     int64  `json:"token_id" minimum:"0" doc:"On-chain token ID"`
		Name        string `json:"name" minLength:"1" maxLength:"50" doc:"Display name"`
		Personality string `json:"personality" enum:"philosopher,comedian,poet,gossip" doc:"Reply voice"`
	}
}

type FrogOutput struct {
	Body *domain.Frog
}

type ListFrogsOutput struct {
	Body []*domain.Frog
}

type GetFrogInput struct {
	FrogRef string `path:"frogRef" doc:"Frog token ID or UUID"`
}

type UpdateFrogStatusInput struct {
	FrogRef string `path:"frogRef" doc:"Frog token ID or UUID"`
	Body    struct {
		Status string `json:"status" enum:"idle,traveling,sleeping" doc:"New status"`
	}
}

func RegisterFrogRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "register-frog",
		Method:      http.MethodPost,
		Path:        "/frogs",
		Summary:     "Register a frog for the caller's wallet",
		Tags:        []string{"Frogs"},
	}, func(ctx context.Context, input *RegisterFrogInput) (*FrogOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		now := time.Now()
		frog := &domain.Frog{
			ID:           uuid.New(),
			TokenID:      input.Body.TokenID,
			OwnerAddress: strings.ToLower(owner),
			Name:         input.Body.Name,
			Personality:  domain.Personality(input.Body.Personality),
			Status:       domain.FrogStatusIdle,
			Level:        1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.Frogs().Create(ctx, frog); err != nil {
			return nil, huma.Error500InternalServerError("failed to register frog", err)
		}

		return &FrogOutput{Body: frog}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-frogs",
		Method:      http.MethodGet,
		Path:        "/frogs",
		Summary:     "List the caller's frogs",
		Tags:        []string{"Frogs"},
	}, func(ctx context.Context, _ *struct{}) (*ListFrogsOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		frogs, err := store.Frogs().ListByOwner(ctx, owner)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list frogs", err)
		}

		return &ListFrogsOutput{Body: frogs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-frog",
		Method:      http.MethodGet,
		Path:        "/frogs/{frogRef}",
		Summary:     "Get one of the caller's frogs",
		Tags:        []string{"Frogs"},
	}, func(ctx context.Context, input *GetFrogInput) (*FrogOutput, error) {
		frog, err := ownedFrog(ctx, store, input.FrogRef)
		if err != nil {
			return nil, err
		}

		return &FrogOutput{Body: frog}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-frog-status",
		Method:      http.MethodPut,
		Path:        "/frogs/{frogRef}/status",
		Summary:     "Update a frog's activity status",
		Tags:        []string{"Frogs"},
	}, func(ctx context.Context, input *UpdateFrogStatusInput) (*FrogOutput, error) {
		frog, err := ownedFrog(ctx, store, input.FrogRef)
		if err != nil {
			return nil, err
		}

		status := domain.FrogStatus(input.Body.Status)
		if err = store.Frogs().UpdateStatus(ctx, frog.ID, status); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("frog not found")
			}
			return nil, huma.Error500InternalServerError("failed to update status", err)
		}

		frog.Status = status
		frog.UpdatedAt = time.Now()
		return &FrogOutput{Body: frog}, nil
	})
}

// ownedFrog resolves a frog reference and verifies the caller owns it.
func ownedFrog(ctx context.Context, store DataStore, ref string) (*domain.Frog, error) {
	owner, ok := middleware.OwnerAddressFromContext(ctx)
	if !ok {
		return nil, huma.Error403Forbidden("missing principal context")
	}

	frog, err := resolveFrogRef(ctx, store, ref)
	if err != nil {
		return nil, mapTurnError(err)
	}
	if !strings.EqualFold(frog.OwnerAddress, owner) {
		return nil, huma.Error403Forbidden("you do not own this frog")
	}

	return frog, nil
}
