package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"poppybuddy/pkg/kiosk"
	"poppybuddy/pkg/playback"
	"poppybuddy/pkg/request"
	"poppybuddy/pkg/routes"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 2 * wsPingPeriod
	wsBuffer     = 32
)

// PlayerHandler drives the kiosk player.
type PlayerHandler struct {
	svc      *kiosk.Service
	upgrader websocket.Upgrader
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(svc *kiosk.Service) *PlayerHandler {
	return &PlayerHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// OpenRequest names the route to open.
type OpenRequest struct {
	Story     string `json:"story"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// ControlRequest is a player command. Seconds is the skip delta or the scrub position.
type ControlRequest struct {
	Action  string  `json:"action"` // toggle, play, pause, skip, scrub_start, scrub, scrub_end, close
	Seconds float64 `json:"seconds"`
}

// VolumeRequest sets the playback volume.
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

// SkipStepRequest sets the skip button step in seconds.
type SkipStepRequest struct {
	Seconds float64 `json:"seconds"`
}

// StatusResponse is the player state as seen by clients. Times are in seconds.
type StatusResponse struct {
	Active         bool    `json:"active"`
	SessionID      string  `json:"session_id,omitempty"`
	Route          string  `json:"route,omitempty"`
	PrimaryTitle   string  `json:"primary_title,omitempty"`
	SecondaryTitle string  `json:"secondary_title,omitempty"`
	Playing        bool    `json:"playing"`
	Position       float64 `json:"position"`
	Duration       float64 `json:"duration"`
	Scrubbing      bool    `json:"scrubbing"`
	Closed         bool    `json:"closed,omitempty"`
	Volume         float64 `json:"volume"`
	SkipStep       float64 `json:"skip_step"`
}

func stateFields(resp *StatusResponse, st playback.State) {
	resp.Playing = st.Playing
	resp.Position = st.Position.Seconds()
	resp.Duration = st.Duration.Seconds()
	resp.Scrubbing = st.Scrubbing
}

func (h *PlayerHandler) status(r *http.Request) StatusResponse {
	resp := StatusResponse{
		Volume:   h.svc.Volume(r.Context()),
		SkipStep: h.svc.SkipStep(r.Context()).Seconds(),
	}
	sess, ok := h.svc.Current()
	if !ok {
		return resp
	}
	resp.Active = true
	resp.SessionID = sess.ID
	resp.Route = sess.Route.Path()
	resp.PrimaryTitle = sess.Resolved.PrimaryTitle
	resp.SecondaryTitle = sess.Resolved.SecondaryTitle
	stateFields(&resp, sess.Controller.State())
	return resp
}

// HandleOpen handles POST /api/player/open
func (h *PlayerHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rp := routes.RouteParam{StoryName: req.Story, Primary: req.Primary, Secondary: req.Secondary}
	if _, err := h.svc.Open(r.Context(), rp); err != nil {
		switch {
		case errors.Is(err, kiosk.ErrUnknownRoute):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, request.ErrNotFound):
			writeError(w, http.StatusBadGateway, "audio not found on content host")
		default:
			slog.Error("Failed to open session", "route", rp.Path(), "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, h.status(r))
}

// HandleControl handles POST /api/player/control
func (h *PlayerHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Action == "close" {
		if err := h.svc.Close(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.status(r))
		return
	}

	ctrl, err := h.svc.Controller()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	pos := time.Duration(req.Seconds * float64(time.Second))
	switch req.Action {
	case "toggle":
		err = ctrl.Toggle()
	case "play":
		err = ctrl.Play()
	case "pause":
		err = ctrl.Pause()
	case "skip":
		if req.Seconds == 0 {
			err = h.svc.Skip(r.Context(), 1)
		} else {
			err = ctrl.Skip(pos)
		}
	case "scrub_start":
		err = ctrl.BeginScrub(pos)
	case "scrub":
		err = ctrl.ScrubTo(pos)
	case "scrub_end":
		err = ctrl.EndScrub(pos)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, playback.ErrClosed) || errors.Is(err, kiosk.ErrNoSession) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	slog.Debug("Player control", "action", req.Action, "seconds", req.Seconds)
	writeJSON(w, http.StatusOK, h.status(r))
}

// HandleStatus handles GET /api/player/status
func (h *PlayerHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status(r))
}

// HandleVolume handles POST /api/player/volume
func (h *PlayerHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vol, err := h.svc.SetVolume(r.Context(), req.Volume)
	if err != nil {
		slog.Error("Failed to persist volume", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "volume": vol})
}

// HandleSkipStep handles POST /api/player/skip-step
func (h *PlayerHandler) HandleSkipStep(w http.ResponseWriter, r *http.Request) {
	var req SkipStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	step, err := h.svc.SetSkipStep(r.Context(), time.Duration(req.Seconds*float64(time.Second)))
	if err != nil {
		slog.Error("Failed to persist skip step", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "skip_step": step.Seconds()})
}

// HandleEvents handles GET /api/player/events: a websocket that receives the
// current status on connect and a StatusResponse on every change.
func (h *PlayerHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := make(chan StatusResponse, wsBuffer)
	unsubscribe := h.svc.Subscribe(func(e kiosk.Event) {
		msg := StatusResponse{
			Active:    !e.Closed,
			SessionID: e.SessionID,
			Route:     e.Route.Path(),
			Closed:    e.Closed,
		}
		stateFields(&msg, e.State)
		select {
		case events <- msg:
		default:
			// Slow client; the next event carries the full state anyway.
		}
	})
	defer unsubscribe()

	// Reader: handles pongs and notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	send := func(v StatusResponse) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			slog.Debug("Websocket write failed", "error", err)
			return false
		}
		return true
	}

	if !send(h.status(r)) {
		return
	}
	for {
		select {
		case msg := <-events:
			msg.Volume = h.svc.Volume(r.Context())
			if !send(msg) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
