package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/server/middleware"
)

type SendMessageInput struct {
	Body struct {
		FrogID    string     `json:"frog_id" minLength:"1" maxLength:"64" doc:"Frog token ID or UUID"`
		SessionID *uuid.UUID `json:"session_id,omitempty" doc:"Existing chat session ID"`
		Message   string     `json:"message" minLength:"1" maxLength:"2000" doc:"User message text"`
	}
}

type SendMessageOutput struct {
	Body *dialog.TurnResult
}

type GetHistoryInput struct {
	SessionID uuid.UUID `path:"sessionID" doc:"Chat session ID"`
	Limit     int       `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max messages"`
}

type GetHistoryOutput struct {
	Body struct {
		Session  *domain.ChatSession   `json:"session"`
		Messages []*domain.ChatMessage `json:"messages"`
	}
}

type ListSessionsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Max sessions"`
}

type ListSessionsOutput struct {
	Body []*domain.ChatSession
}

type CreateSessionInput struct {
	Body struct {
		FrogID string `json:"frog_id" minLength:"1" maxLength:"64" doc:"Frog token ID or UUID"`
		Title  string `json:"title,omitempty" maxLength:"100" doc:"Optional session title"`
	}
}

type CreateSessionOutput struct {
	Body *domain.ChatSession
}

// StreamDataEvent wraps the intent data payload for SSE delivery.
type StreamDataEvent struct {
	Payload any `json:"payload"`
}

func RegisterChatRoutes(api huma.API, store DataStore, orch TurnOrchestrator) {
	huma.Register(api, huma.Operation{
		OperationID: "send-chat-message",
		Method:      http.MethodPost,
		Path:        "/chat/message",
		Summary:     "Send a message to a frog and get the full reply",
		Tags:        []string{"Chat"},
	}, func(ctx context.Context, input *SendMessageInput) (*SendMessageOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		result, err := orch.ProcessTurn(ctx, dialog.TurnRequest{
			OwnerAddress: owner,
			FrogRef:      input.Body.FrogID,
			SessionID:    input.Body.SessionID,
			Text:         input.Body.Message,
		})
		if err != nil {
			return nil, mapTurnError(err)
		}

		return &SendMessageOutput{Body: result}, nil
	})

	sse.Register(api, huma.Operation{
		OperationID: "stream-chat-message",
		Method:      http.MethodPost,
		Path:        "/chat/message/stream",
		Summary:     "Send a message to a frog and stream the reply",
		Tags:        []string{"Chat"},
	}, map[string]any{
		"session": dialog.SessionEventData{},
		"intent":  domain.IntentResult{},
		"data":    StreamDataEvent{},
		"chunk":   dialog.ChunkEventData{},
		"done":    dialog.TurnResult{},
		"error":   dialog.ErrorEventData{},
	}, func(ctx context.Context, input *SendMessageInput, send sse.Sender) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			_ = send.Data(dialog.ErrorEventData{Message: "missing principal context"})
			return
		}

		events := orch.ProcessTurnStream(ctx, dialog.TurnRequest{
			OwnerAddress: owner,
			FrogRef:      input.Body.FrogID,
			SessionID:    input.Body.SessionID,
			Text:         input.Body.Message,
		})

		for ev := range events {
			if err := sendStreamEvent(send, ev); err != nil {
				log.Debug().Err(err).Msg("api: sse write failed, client likely gone")
				return
			}
		}
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-chat-history",
		Method:      http.MethodGet,
		Path:        "/chat/history/{sessionID}",
		Summary:     "List messages of a chat session, oldest first",
		Tags:        []string{"Chat"},
	}, func(ctx context.Context, input *GetHistoryInput) (*GetHistoryOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		session, err := store.Sessions().GetByOwner(ctx, input.SessionID, owner)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("chat session not found")
			}
			return nil, huma.Error500InternalServerError("failed to get chat session", err)
		}

		messages, err := store.Messages().ListBySession(ctx, session.ID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list messages", err)
		}

		out := &GetHistoryOutput{}
		out.Body.Session = session
		out.Body.Messages = messages
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-chat-sessions",
		Method:      http.MethodGet,
		Path:        "/chat/sessions",
		Summary:     "List the caller's chat sessions, most recent first",
		Tags:        []string{"Chat"},
	}, func(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		sessions, err := store.Sessions().ListByOwner(ctx, owner, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list sessions", err)
		}

		return &ListSessionsOutput{Body: sessions}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-chat-session",
		Method:      http.MethodPost,
		Path:        "/chat/session",
		Summary:     "Create a new chat session with a frog",
		Tags:        []string{"Chat"},
	}, func(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
		owner, ok := middleware.OwnerAddressFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing principal context")
		}

		frog, err := ownedFrog(ctx, store, input.Body.FrogID)
		if err != nil {
			return nil, err
		}

		session := &domain.ChatSession{
			ID:           uuid.New(),
			OwnerAddress: strings.ToLower(owner),
			FrogID:       frog.ID,
			Title:        input.Body.Title,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err = store.Sessions().Create(ctx, session); err != nil {
			return nil, huma.Error500InternalServerError("failed to create session", err)
		}

		return &CreateSessionOutput{Body: session}, nil
	})
}

// sendStreamEvent forwards one orchestrator event over SSE, translating the
// payload to its registered event type.
func sendStreamEvent(send sse.Sender, ev dialog.Event) error {
	switch ev.Type {
	case dialog.EventDone:
		if result, ok := ev.Data.(*dialog.TurnResult); ok {
			return send.Data(*result)
		}
		return send.Data(ev.Data)
	case dialog.EventData:
		return send.Data(StreamDataEvent{Payload: ev.Data})
	default:
		return send.Data(ev.Data)
	}
}

// resolveFrogRef looks up a frog by numeric token ID or UUID.
func resolveFrogRef(ctx context.Context, store DataStore, ref string) (*domain.Frog, error) {
	ref = strings.TrimSpace(ref)
	if tokenID, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.Frogs().GetByTokenID(ctx, tokenID)
	}
	if id, err := uuid.Parse(ref); err == nil {
		return store.Frogs().GetByID(ctx, id)
	}
	return nil, domain.ErrValidation
}

// mapTurnError translates dialog errors to HTTP problem responses.
func mapTurnError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest("invalid request")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("frog not found")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("you do not own this frog")
	default:
		return huma.Error500InternalServerError("failed to process message", err)
	}
}
