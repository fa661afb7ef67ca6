package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geoquest/internal/adapters/nats"
	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/metrics"
)

// wsMessage is sent from client to server.
type wsMessage struct {
	Type   string   `json:"type"` // "position" | "answer" | "location_error"
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Answer string   `json:"answer,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// wsFrame is sent from server to client.
type wsFrame struct {
	Type       string                  `json:"type"` // "outcome" | "event" | "halted" | "error"
	Outcome    *domain.Outcome         `json:"outcome,omitempty"`
	StatusText string                  `json:"status_text,omitempty"`
	Session    *domain.SessionSnapshot `json:"session,omitempty"`
	Event      *domain.SessionEvent    `json:"event,omitempty"`
	Code       string                  `json:"code,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// WebSocketHandler returns a handler that drives one play session over a
// WebSocket. The client streams position samples and answers; every input
// gets an outcome frame back. Outcomes produced by other channels (HTTP,
// the NATS position feed) are relayed as event frames.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("id")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("session_id", sessionID, "remote", remoteAddr)
		log.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		snap, err := deps.Sessions.Get(ctx, sessionID)
		if err != nil {
			_ = writeJSON(wsError(err))
			return
		}
		_ = writeJSON(wsFrame{Type: "session", Session: &snap})

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SessionEventSubject(sessionID), func(msg *nats.Msg) {
				var ev domain.SessionEvent
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					return
				}
				if ev.Origin == domain.OriginWebSocket {
					return
				}
				_ = writeJSON(wsFrame{Type: "event", Event: &ev, StatusText: statusText(ev.Outcome)})
			})
			if err != nil {
				log.Warn("ws event relay unavailable", "error", err)
			} else {
				defer func() { _ = sub.Unsubscribe() }()
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(wsFrame{Type: "error", Code: "bad_request", Message: "invalid JSON"})
				continue
			}

			var out domain.Outcome
			switch m.Type {
			case "position":
				if m.Lat == nil || m.Lon == nil {
					_ = writeJSON(wsFrame{Type: "error", Code: "bad_request", Message: "lat and lon are required"})
					continue
				}
				out, err = deps.Sessions.IngestPosition(ctx, sessionID, *m.Lat, *m.Lon, domain.OriginWebSocket)
			case "answer":
				out, err = deps.Sessions.SubmitAnswer(ctx, sessionID, m.Answer, domain.OriginWebSocket)
			case "location_error":
				snap, err := deps.Sessions.ReportLocationError(ctx, sessionID, m.Reason)
				if err != nil {
					_ = writeJSON(wsError(err))
					continue
				}
				_ = writeJSON(wsFrame{Type: "halted", Session: &snap, StatusText: locationErrorText(m.Reason)})
				continue
			default:
				_ = writeJSON(wsFrame{Type: "error", Code: "bad_request", Message: "unknown message type: " + m.Type})
				continue
			}

			if err != nil {
				_ = writeJSON(wsError(err))
				if errors.Is(err, domain.ErrSessionNotFound) {
					break
				}
				continue
			}

			frame := wsFrame{Type: "outcome", Outcome: &out, StatusText: statusText(out)}
			if snap, err := deps.Sessions.Get(ctx, sessionID); err == nil {
				frame.Session = &snap
			}
			_ = writeJSON(frame)
		}

		log.Info("ws client disconnected")
	}
}

func wsError(err error) wsFrame {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return wsFrame{Type: "error", Code: "not_found", Message: "session not found"}
	case errors.Is(err, domain.ErrInvalidPosition):
		return wsFrame{Type: "error", Code: "bad_request", Message: err.Error()}
	case errors.Is(err, domain.ErrSessionHalted):
		return wsFrame{Type: "error", Code: "location_unavailable", Message: msgLocationUnavailable}
	default:
		return wsFrame{Type: "error", Code: "internal_error", Message: "internal error"}
	}
}
