package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/georgeca620-star/Ai-imposter/internal/models"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discard struct{}

func (discard) Broadcast(string, game.Event) {}

type cannedResponder struct{}

func (cannedResponder) Generate(context.Context, string, ai.GameContext) string { return "hey" }

func newRouter(t *testing.T) (*gin.Engine, *game.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rules := game.DefaultRules()
	rules.TickInterval = 0
	reg := game.NewRegistry(store.NewMemory(), discard{}, cannedResponder{}, game.Options{
		Rules:     rules,
		AfterFunc: func(time.Duration, func()) {},
	})
	t.Cleanup(reg.Close)
	r := gin.New()
	New(reg).Mount(r)
	return r, reg
}

func do(t *testing.T, r http.Handler, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type joinResponse struct {
	Game   models.Room   `json:"game"`
	Player models.Player `json:"player"`
}

func TestCreateJoinStartFlow(t *testing.T) {
	r, _ := newRouter(t)

	var room models.Room
	code := do(t, r, http.MethodPost, "/api/games", gin.H{"roomCode": "party", "createdBy": "Alice", "aiPersonality": "shy"}, &room)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PARTY", room.RoomCode)
	assert.Equal(t, models.PhaseLobby, room.Status)
	assert.Equal(t, "shy", room.AIPersonality)

	var creator models.Player
	for i, name := range []string{"Alice", "Bob", "Cara", "Dan"} {
		var res joinResponse
		code := do(t, r, http.MethodPost, "/api/games/party/join", gin.H{"name": name}, &res)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, room.ID, res.Game.ID)
		assert.Equal(t, name, res.Player.Name)
		assert.True(t, res.Player.IsConnected)
		if i == 0 {
			creator = res.Player
		}
	}

	var started struct {
		Game    models.Room     `json:"game"`
		Players []models.Player `json:"players"`
	}
	code = do(t, r, http.MethodPost, "/api/games/"+room.ID+"/start", gin.H{"playerId": creator.ID}, &started)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PhaseDiscussion, started.Game.Status)
	assert.NotEmpty(t, started.Game.AIPlayerID)
	assert.NotNil(t, started.Game.DiscussionEndsAt)
	assert.Len(t, started.Players, 5)

	var st game.State
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/games/"+room.ID, nil, &st))
	if diff := cmp.Diff(started.Players, st.Players); diff != "" {
		t.Fatalf("roster mismatch (-start +state):\n%s", diff)
	}
	assert.Empty(t, st.Messages)

	var advanced models.Room
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/games/"+room.ID+"/advance", gin.H{"playerId": creator.ID}, &advanced))
	assert.Equal(t, models.PhaseVoting, advanced.Status)
}

func TestErrorStatuses(t *testing.T) {
	r, reg := newRouter(t)
	room, err := reg.Create("TAKEN", "Alice", "")
	require.NoError(t, err)
	_, bob, err := reg.JoinByCode("TAKEN", "Bob")
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing fields", http.MethodPost, "/api/games", gin.H{"roomCode": "ABCD"}, http.StatusBadRequest},
		{"bad code", http.MethodPost, "/api/games", gin.H{"roomCode": "a!", "createdBy": "Alice"}, http.StatusBadRequest},
		{"bad personality", http.MethodPost, "/api/games", gin.H{"roomCode": "ABCD", "createdBy": "Alice", "aiPersonality": "pirate"}, http.StatusBadRequest},
		{"duplicate code", http.MethodPost, "/api/games", gin.H{"roomCode": "taken", "createdBy": "Zed"}, http.StatusConflict},
		{"join unknown code", http.MethodPost, "/api/games/NOPE/join", gin.H{"name": "Bob"}, http.StatusNotFound},
		{"join without name", http.MethodPost, "/api/games/TAKEN/join", gin.H{}, http.StatusBadRequest},
		{"start without creator id", http.MethodPost, "/api/games/" + room.ID + "/start", nil, http.StatusBadRequest},
		{"start unknown room", http.MethodPost, "/api/games/missing/start", gin.H{"playerId": bob.ID}, http.StatusNotFound},
		{"start by non-creator", http.MethodPost, "/api/games/" + room.ID + "/start", gin.H{"playerId": bob.ID}, http.StatusForbidden},
		{"advance in lobby by unknown player", http.MethodPost, "/api/games/" + room.ID + "/advance", gin.H{"playerId": "ghost"}, http.StatusNotFound},
		{"state of unknown room", http.MethodGet, "/api/games/missing", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body map[string]string
			code := do(t, r, tc.method, tc.path, tc.body, &body)
			assert.Equal(t, tc.want, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStartNeedsEnoughPlayers(t *testing.T) {
	r, reg := newRouter(t)
	room, err := reg.Create("FEW1", "Alice", "")
	require.NoError(t, err)
	_, alice, err := reg.JoinByCode("few1", "Alice")
	require.NoError(t, err)

	var body map[string]string
	code := do(t, r, http.MethodPost, "/api/games/"+room.ID+"/start", gin.H{"playerId": alice.ID}, &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "players")
}

func TestJoinFullRoom(t *testing.T) {
	r, reg := newRouter(t)
	_, err := reg.Create("FULL", "P0", "")
	require.NoError(t, err)
	for i := 0; i < game.DefaultRules().MaxPlayers; i++ {
		_, _, err := reg.JoinByCode("FULL", fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}

	var body map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/games/FULL/join", gin.H{"name": "Late"}, &body))
}

func TestStatusForUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: too long", game.ErrInvalidName)))
}
