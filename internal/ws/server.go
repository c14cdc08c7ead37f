package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Default inbound command budget per connection.
const (
	DefaultRate  = rate.Limit(5)
	DefaultBurst = 10
)

// Server speaks the live protocol over a plain WebSocket at /ws and over
// Socket.IO at /socket.io. Both feed the same Handle.
type Server struct {
	reg      *game.Registry
	hub      *Hub
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int
}

func New(reg *game.Registry, hub *Hub, allowedOrigins []string) *Server {
	srv := &Server{reg: reg, hub: hub, limit: DefaultRate, burst: DefaultBurst}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return srv
}

func (srv *Server) SetRateLimit(limit rate.Limit, burst int) {
	srv.limit, srv.burst = limit, burst
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Mount attaches both transports to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	r.GET("/ws", srv.serveWebSocket)

	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		c := NewClient(s.ID(), socketSink{s}, srv.limit, srv.burst)
		s.SetContext(c)
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	for _, name := range []string{CmdJoin, CmdSendMessage, CmdVote} {
		io.OnEvent("/", name, func(s socketio.Conn, cmd Command) map[string]any {
			c, ok := s.Context().(*Client)
			if !ok {
				return map[string]any{"error": "connection not ready"}
			}
			cmd.Type = name
			if err := srv.Handle(c, cmd); err != nil {
				return map[string]any{"error": err.Error()}
			}
			return map[string]any{"ok": true}
		})
	}

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if c, ok := s.Context().(*Client); ok {
			srv.disconnect(c)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	return io
}

type socketSink struct {
	conn socketio.Conn
}

func (s socketSink) Write(ev game.Event) error {
	s.conn.Emit(ev.EventType(), ev)
	return nil
}

func (s socketSink) Close() error { return s.conn.Close() }

type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) Write(ev game.Event) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}

func (s wsSink) Ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s wsSink) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return s.conn.Close()
}

func (srv *Server) serveWebSocket(ctx *gin.Context) {
	conn, err := srv.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := NewClient(uuid.NewString(), wsSink{conn}, srv.limit, srv.burst)
	log.Info().Str("sid", c.ID()).Str("remote", conn.RemoteAddr().String()).Msg("websocket connected")
	srv.readPump(c, conn)
}

// readPump decodes commands until the peer goes away. Malformed frames are
// answered with an error and otherwise ignored.
func (srv *Server) readPump(c *Client, conn *websocket.Conn) {
	defer func() {
		srv.disconnect(c)
		log.Info().Str("sid", c.ID()).Msg("websocket disconnected")
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("sid", c.ID()).Msg("websocket read error")
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.Send(game.NewErrorEvent(CodeBadRequest, "malformed command"))
			continue
		}
		_ = srv.Handle(c, cmd)
	}
}
