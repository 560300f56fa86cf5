package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/matias-olea/inmobrain/internal/brain"
)

type WSHandler struct {
	agent    *brain.Agent
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(agent *brain.Agent, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		agent: agent,
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type     string                  `json:"type"`
	Payload  *brain.DashboardPayload `json:"payload,omitempty"`
	ReportID string                  `json:"report_id,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// AnalystWS serves streamed dashboard analyses and live report status.
// dashboard_analysis streams model tokens over the socket; subscribe_report
// forwards the worker's pub/sub updates for one report.
func (h *WSHandler) AnalystWS(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
			continue
		}

		switch msg.Type {
		case "dashboard_analysis":
			if msg.Payload == nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"payload required"}`))
				continue
			}
			h.streamAnalysis(ctx, wc, *msg.Payload)

		case "subscribe_report":
			if msg.ReportID == "" {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"report_id required"}`))
				continue
			}
			go h.forwardReportStatus(ctx, wc, msg.ReportID)
			_ = wc.writeJSON(map[string]any{"type": "subscribed", "report_id": msg.ReportID})

		default:
			_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
		}
	}
}

func (h *WSHandler) streamAnalysis(ctx context.Context, wc *wsConn, payload brain.DashboardPayload) {
	chunks, errs := h.agent.StreamDashboardAnalysis(ctx, payload)

	seq := int64(0)
	full := ""
	for chunk := range chunks {
		seq++
		full += chunk
		if err := wc.writeJSON(map[string]any{
			"type":  "analysis_chunk",
			"seq":   seq,
			"chunk": chunk,
		}); err != nil {
			return
		}
	}

	var streamErr error
	select {
	case streamErr = <-errs:
	default:
	}
	if streamErr != nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"analysis stream failed"}`))
		return
	}

	_ = wc.writeJSON(map[string]any{
		"type":      "analysis_complete",
		"analysis":  full,
		"timestamp": time.Now().UTC(),
	})
}

// forwardReportStatus relays worker updates until a terminal status or the
// socket closes. Payloads are forwarded as published.
func (h *WSHandler) forwardReportStatus(ctx context.Context, wc *wsConn, reportID string) {
	pubsub := h.redis.Subscribe(ctx, "report:"+reportID+":status")
	defer pubsub.Close()

	for {
		m, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return
		}
		if werr := wc.writeText([]byte(m.Payload)); werr != nil {
			return
		}

		var status struct {
			Status string `json:"status"`
		}
		if json.Unmarshal([]byte(m.Payload), &status) == nil {
			if status.Status == "completed" || status.Status == "failed" {
				return
			}
		}
	}
}
