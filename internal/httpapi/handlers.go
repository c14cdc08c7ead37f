// Package httpapi is the request/response surface for creating, joining,
// starting and inspecting rooms. The live game loop runs over internal/ws.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	reg *game.Registry
}

func New(reg *game.Registry) *Handler {
	return &Handler{reg: reg}
}

// Mount registers the /api/games routes. The :id segment of the join route
// is a room code; everywhere else it is a room id.
func (h *Handler) Mount(r gin.IRouter) {
	g := r.Group("/api/games")
	g.POST("", h.create)
	g.POST("/:id/join", h.join)
	g.POST("/:id/start", h.start)
	g.POST("/:id/advance", h.advance)
	g.GET("/:id", h.state)
}

type createRequest struct {
	RoomCode      string `json:"roomCode" binding:"required"`
	CreatedBy     string `json:"createdBy" binding:"required"`
	AIPersonality string `json:"aiPersonality"`
}

type joinRequest struct {
	Name string `json:"name" binding:"required"`
}

type playerRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomCode and createdBy are required"})
		return
	}
	room, err := h.reg.Create(req.RoomCode, req.CreatedBy, req.AIPersonality)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	room, player, err := h.reg.JoinByCode(c.Param("id"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": room, "player": player})
}

func (h *Handler) start(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId is required"})
		return
	}
	sess, err := h.reg.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	room, players, err := sess.Start(req.PlayerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": room, "players": players})
}

func (h *Handler) advance(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId is required"})
		return
	}
	sess, err := h.reg.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	room, err := sess.Advance(req.PlayerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) state(c *gin.Context) {
	st, err := h.reg.State(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, game.ErrCodeTaken):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidCode),
		errors.Is(err, game.ErrInvalidName),
		errors.Is(err, game.ErrInvalidPersonality),
		errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrInvalidPhase):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
