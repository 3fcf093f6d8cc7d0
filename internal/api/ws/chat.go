package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/server/middleware"
)

// TurnStreamer produces the event stream for one conversation turn.
// *dialog.Orchestrator satisfies this interface.
type TurnStreamer interface {
	ProcessTurnStream(ctx context.Context, req dialog.TurnRequest) <-chan dialog.Event
}

// turnFrame is one client request over the WebSocket connection.
type turnFrame struct {
	FrogID    string     `json:"frog_id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Message   string     `json:"message"`
}

// eventFrame is one streamed event written back to the client.
type eventFrame struct {
	Type dialog.EventType `json:"type"`
	Data any              `json:"data,omitempty"`
}

// Hub serves streaming chat turns over WebSocket connections.
type Hub struct {
	orch TurnStreamer
}

// NewHub creates a new WebSocket hub.
func NewHub(orch TurnStreamer) *Hub {
	return &Hub{orch: orch}
}

// ServeChat handles a WebSocket chat connection. The client sends one JSON
// turn frame at a time and receives the full event sequence for that turn
// before the next frame is read.
func (h *Hub) ServeChat(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerAddressFromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	for {
		frame, err := readTurnFrame(ctx, conn)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return
			}
			log.Debug().Err(err).Msg("websocket read")
			_ = conn.Close(websocket.StatusInvalidFramePayloadData, "invalid turn frame")
			return
		}

		events := h.orch.ProcessTurnStream(ctx, dialog.TurnRequest{
			OwnerAddress: owner,
			FrogRef:      frame.FrogID,
			SessionID:    frame.SessionID,
			Text:         frame.Message,
		})

		for ev := range events {
			if writeErr := writeEvent(ctx, conn, ev); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

func readTurnFrame(ctx context.Context, conn *websocket.Conn) (*turnFrame, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	var frame turnFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev dialog.Event) error {
	payload, err := json.Marshal(eventFrame{Type: ev.Type, Data: ev.Data})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
