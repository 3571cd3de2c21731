package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/hub"
	"github.com/onemedia/broadcast-service/internal/log"
	"github.com/onemedia/broadcast-service/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.BroadcastService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.BroadcastService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), originFromRequest(r), h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	h.service.HandleConnect(r.Context(), client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeJoin:
		var msg domain.JoinMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Channel == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid join message"))
			return
		}
		h.logHandlerErr(client, "join", h.service.HandleJoin(ctx, client, msg.Channel))

	case domain.MsgTypeAuth:
		var msg domain.AuthMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid auth message"))
			return
		}
		h.logHandlerErr(client, "auth", h.service.HandleAuth(ctx, client, msg.Password))

	case domain.MsgTypeAdminJoin:
		h.logHandlerErr(client, "admin_join", h.service.HandleAdminJoin(ctx, client))

	case domain.MsgTypeRedirect:
		var msg domain.RedirectMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid redirect message"))
			return
		}
		h.logHandlerErr(client, "redirect", h.service.HandleRedirect(ctx, client, msg.Channel, msg.URL))

	case domain.MsgTypeControlAd:
		var msg domain.ControlAdMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid control_ad message"))
			return
		}
		h.logHandlerErr(client, "control_ad", h.service.HandleControlAd(ctx, client, msg.Action, msg.URL))

	case domain.MsgTypeControlBanner:
		var msg domain.ControlBannerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid control_banner message"))
			return
		}
		h.logHandlerErr(client, "control_banner",
			h.service.HandleControlBanner(ctx, client, msg.Action, msg.Position, msg.Title, msg.Text))

	case domain.MsgTypeControlImage:
		var msg domain.ControlImageMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid control_image message"))
			return
		}
		h.logHandlerErr(client, "control_image",
			h.service.HandleControlImage(ctx, client, msg.Channel, msg.Action, msg.URL))

	case domain.MsgTypeAddMatch:
		var msg domain.AddMatchMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid add_match message"))
			return
		}
		h.logHandlerErr(client, "add_match", h.service.HandleAddMatch(ctx, client, msg.MatchFields))

	case domain.MsgTypeEditMatch:
		var msg domain.EditMatchMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid edit_match message"))
			return
		}
		h.logHandlerErr(client, "edit_match", h.service.HandleEditMatch(ctx, client, msg.ID, msg.MatchFields))

	case domain.MsgTypeDeleteMatch:
		var msg domain.DeleteMatchMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid delete_match message"))
			return
		}
		h.logHandlerErr(client, "delete_match", h.service.HandleDeleteMatch(ctx, client, msg.ID))

	case domain.MsgTypeGetMatches:
		h.logHandlerErr(client, "get_matches", h.service.HandleGetMatches(ctx, client))

	case domain.MsgTypeGetMatchByID, domain.MsgTypeGetMatchByNumber:
		var msg domain.GetMatchMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid match lookup message"))
			return
		}
		id := msg.ID
		if base.Type == domain.MsgTypeGetMatchByNumber {
			id = msg.Number
		}
		h.logHandlerErr(client, base.Type, h.service.HandleGetMatch(ctx, client, id))

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}

func (h *WSHandler) logHandlerErr(client *hub.Client, event string, err error) {
	if err == nil {
		return
	}
	l := log.L()
	l.Warn().Err(err).Str(log.FieldClientID, client.ID).Str("event", event).Msg("handler failed")
}

// originFromRequest extracts the best-effort client address used for
// unique-visitor counting. The left-most X-Forwarded-For entry is the
// client-nearest declared address; it is spoofable and deliberately treated
// as non-authoritative.
func originFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
