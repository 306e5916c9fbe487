// Package ws exposes the game entry points over a websocket.
//
// A client connects with GET /ws?player=NAME&signer=NAME&token=TOKEN and
// sends JSON messages {"type":"flap","seq":7}. The token must be a session
// token the player issued to signer; a bare signer name proves nothing over
// the network. Every message is answered with either the record after the
// operation or an error naming the rejection. The client supplies the tick
// cadence by sending "tick".
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/registry"
	"github.com/vovakirdan/flappy-core/internal/session"
)

// Message types besides the registered operation names.
const (
	TypeState      = "state"
	TypeError      = "error"
	TypeInitialize = "initialize"
)

// Error codes that are not operation failures.
const (
	CodeNoGame     = "NoGame"
	CodeGameExists = "GameExists"
	CodeUnknownOp  = "UnknownOp"
	CodeInternal   = "Internal"
)

// Service is the session API the handler drives.
type Service interface {
	Create(ctx context.Context, player string) (flappy.GameState, error)
	Do(ctx context.Context, player, op string, caller auth.Caller) (flappy.GameState, error)
	State(ctx context.Context, player string) (flappy.GameState, error)
}

// Prover checks a caller's credentials.
type Prover interface {
	Prove(ctx context.Context, c auth.Caller) (flappy.Proof, error)
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades requests and serves one player's record per connection.
type Handler struct {
	svc      Service
	prover   Prover
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler backed by svc. prover vets the
// session token of every connection.
func NewHandler(svc Service, prover Prover, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		svc:    svc,
		prover: prover,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

type clientMessage struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq,omitempty"`
}

// PipeMessage is the wire form of one obstacle slot.
type PipeMessage struct {
	X      int32 `json:"x"`
	GapY   int32 `json:"gap_y"`
	Passed bool  `json:"passed"`
	Active bool  `json:"active"`
}

// StateMessage is the wire form of a record.
type StateMessage struct {
	Type           string        `json:"type"`
	Seq            uint64        `json:"seq,omitempty"`
	Authority      string        `json:"authority"`
	Status         string        `json:"status"`
	Score          uint64        `json:"score"`
	HighScore      uint64        `json:"high_score"`
	BirdY          int32         `json:"bird_y"`
	BirdVelocity   int32         `json:"bird_velocity"`
	FrameCount     uint64        `json:"frame_count"`
	LastUpdate     int64         `json:"last_update"`
	Pipes          []PipeMessage `json:"pipes"`
	NextPipeSpawnX int32         `json:"next_pipe_spawn_x"`
	Seed           uint64        `json:"seed"`
}

// ErrorMessage reports a rejected message.
type ErrorMessage struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq,omitempty"`
	Op    string `json:"op,omitempty"`
	Error string `json:"error"`
}

// NewStateMessage converts a record to its wire form.
func NewStateMessage(seq uint64, g flappy.GameState) StateMessage {
	msg := StateMessage{
		Type:           TypeState,
		Seq:            seq,
		Authority:      g.Authority,
		Status:         g.Status.String(),
		Score:          g.Score,
		HighScore:      g.HighScore,
		BirdY:          int32(g.BirdY),
		BirdVelocity:   int32(g.BirdVelocity),
		FrameCount:     g.FrameCount,
		LastUpdate:     g.LastUpdate,
		Pipes:          make([]PipeMessage, len(g.Pipes)),
		NextPipeSpawnX: g.NextPipeSpawnX,
		Seed:           g.Seed,
	}
	for i, p := range g.Pipes {
		msg.Pipes[i] = PipeMessage{X: p.X, GapY: p.GapY, Passed: p.Passed, Active: p.Active}
	}
	return msg
}

// errorCode maps a failure to its wire name.
func errorCode(err error) string {
	if code := flappy.ErrorCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, session.ErrNoGame):
		return CodeNoGame
	case errors.Is(err, session.ErrGameExists):
		return CodeGameExists
	case errors.Is(err, registry.ErrUnknownOp):
		return CodeUnknownOp
	default:
		return CodeInternal
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	player := q.Get("player")
	if player == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}
	caller := auth.Caller{Signer: q.Get("signer"), Token: q.Get("token")}
	if caller.Token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if err := h.authorize(r.Context(), caller, player); err != nil {
		if errors.Is(err, flappy.ErrInvalidAuth) {
			http.Error(w, "token does not authorize player", http.StatusForbidden)
			return
		}
		h.logger.Error("token check failed", "player", player, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "player", player, "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("player", player, "remote", r.RemoteAddr)
	logger.Info("websocket connected")
	defer logger.Info("websocket disconnected")

	ctx := r.Context()

	state := func() (flappy.GameState, error) {
		// Tokens can expire or be revoked while the connection is open.
		if err := h.authorize(ctx, caller, player); err != nil {
			return flappy.GameState{}, err
		}
		return h.svc.State(ctx, player)
	}
	// Greet with the current record so the client can render immediately.
	if !h.reply(conn, logger, 0, "", state) {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Debug("discarding malformed message", "error", err)
			continue
		}

		var run func() (flappy.GameState, error)
		switch {
		case msg.Type == TypeState:
			run = state
		case msg.Type == TypeInitialize:
			run = func() (flappy.GameState, error) {
				if err := h.authorize(ctx, caller, player); err != nil {
					return flappy.GameState{}, err
				}
				// Never replaces a record; wiping one takes local access.
				return h.svc.Create(ctx, player)
			}
		case registry.Exists(msg.Type):
			op := msg.Type
			run = func() (flappy.GameState, error) { return h.svc.Do(ctx, player, op, caller) }
		default:
			op := msg.Type
			run = func() (flappy.GameState, error) {
				return flappy.GameState{}, fmt.Errorf("ws: %w %q", registry.ErrUnknownOp, op)
			}
		}

		if !h.reply(conn, logger, msg.Seq, msg.Type, run) {
			return
		}
	}
}

// authorize returns flappy.ErrInvalidAuth unless caller's token is live and
// scoped to player.
func (h *Handler) authorize(ctx context.Context, caller auth.Caller, player string) error {
	proof, err := h.prover.Prove(ctx, caller)
	if err != nil {
		return err
	}
	if !proof.Authorizes(player) {
		return flappy.ErrInvalidAuth
	}
	return nil
}

// reply runs fn and writes its outcome. It returns false once the
// connection can no longer be written.
func (h *Handler) reply(conn *websocket.Conn, logger *log.Logger, seq uint64, op string, fn func() (flappy.GameState, error)) bool {
	g, err := fn()

	var out any
	if err != nil {
		code := errorCode(err)
		if code == CodeInternal {
			logger.Error("operation failed", "op", op, "error", err)
		}
		out = ErrorMessage{Type: TypeError, Seq: seq, Op: op, Error: code}
	} else {
		out = NewStateMessage(seq, g)
	}

	if err := conn.WriteJSON(out); err != nil {
		logger.Debug("write failed", "error", err)
		return false
	}
	return true
}
