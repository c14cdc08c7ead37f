package game

import (
	"errors"
	"testing"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/models"
)

func TestCreateRoom(t *testing.T) {
	h := newHarness(t)

	room, err := h.reg.Create("ab12", "Alice", "")
	if err != nil {
		t.Fatalf("should be able to create room: %v", err)
	}
	if room.RoomCode != "AB12" || room.Status != models.PhaseLobby || room.AIPersonality != "casual" {
		t.Fatalf("unexpected room %+v", room)
	}
	if room.AIPlayerID != "" || room.DiscussionEndsAt != nil {
		t.Fatal("AI player and deadlines must be unset in the lobby")
	}
	if _, err := h.reg.Create("AB12", "Bob", "funny"); !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}

	bad := []struct {
		code, name, personality string
		want                    error
	}{
		{"a", "Alice", "", ErrInvalidCode},
		{"abc-12", "Alice", "", ErrInvalidCode},
		{"ABCDEFGHI", "Alice", "", ErrInvalidCode},
		{"GOOD1", "", "", ErrInvalidName},
		{"GOOD1", "Alice", "pirate", ErrInvalidPersonality},
	}
	for _, b := range bad {
		if _, err := h.reg.Create(b.code, b.name, b.personality); !errors.Is(err, b.want) {
			t.Fatalf("Create(%q, %q, %q): expected %v, got %v", b.code, b.name, b.personality, b.want, err)
		}
	}
	if h.reg.size() != 1 {
		t.Fatalf("failed creations must not register sessions, got %d", h.reg.size())
	}
}

func TestJoinByCode(t *testing.T) {
	h := newHarness(t)
	room, _ := h.reg.Create("JOIN1", "Alice", "shy")

	got, p, err := h.reg.JoinByCode("join1", "Alice")
	if err != nil {
		t.Fatalf("lower-case code should resolve: %v", err)
	}
	if got.ID != room.ID || p.GameID != room.ID {
		t.Fatalf("joined wrong room")
	}
	if _, _, err := h.reg.JoinByCode("NOPE", "Bob"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestSweepEvictsEndedRooms(t *testing.T) {
	h := newHarness(t)
	s, humans, bot := h.voting(t, 4)
	live, _ := h.reg.Create("LIVE1", "Zed", "")

	for _, p := range humans {
		_ = s.Vote(p.ID, bot.ID)
	}
	ttl := 10 * time.Minute
	if n := h.reg.Sweep(h.clock.Now().Add(ttl-time.Second), Retention{Ended: ttl}); n != 0 {
		t.Fatalf("nothing should be evicted before the ttl, got %d", n)
	}
	if n := h.reg.Sweep(h.clock.Now().Add(ttl), Retention{Ended: ttl}); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := h.reg.Get(s.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("evicted session should be gone, got %v", err)
	}
	if _, err := h.reg.GetByCode(s.Code); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("evicted code should be gone, got %v", err)
	}
	if _, err := h.reg.Get(live.ID); err != nil {
		t.Fatalf("live room must survive the sweep: %v", err)
	}

	st, err := h.reg.State(s.ID)
	if err != nil {
		t.Fatalf("ended room should stay readable: %v", err)
	}
	if st.Game.Status != models.PhaseEnded || len(st.Players) != 5 {
		t.Fatalf("unexpected stored state %+v", st.Game)
	}
	if _, err := h.reg.State("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	// the code is free again
	if _, err := h.reg.Create(s.Code, "Alice", ""); err != nil {
		t.Fatalf("code of an ended room should be reusable: %v", err)
	}
}

func TestSweepExpiresIdleRooms(t *testing.T) {
	h := newHarness(t)
	s, players := h.lobby(t, 2)
	ret := Retention{Ended: time.Hour, Idle: 2 * time.Hour}

	h.clock.Advance(90 * time.Minute)
	busy, err := h.reg.Create("BUSY1", "Zed", "")
	if err != nil {
		t.Fatalf("should be able to create room: %v", err)
	}
	if _, _, err := h.reg.JoinByCode("BUSY1", "Zed"); err != nil {
		t.Fatalf("should be able to join: %v", err)
	}

	if n := h.reg.Sweep(h.clock.Now(), ret); n != 0 {
		t.Fatalf("nothing is idle yet, got %d evictions", n)
	}
	h.clock.Advance(30*time.Minute + time.Second)
	if n := h.reg.Sweep(h.clock.Now(), ret); n != 1 {
		t.Fatalf("expected the abandoned lobby to be evicted, got %d", n)
	}
	if _, err := h.reg.Get(s.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("idle session should be gone, got %v", err)
	}
	if _, err := h.reg.Get(busy.ID); err != nil {
		t.Fatalf("recently used room must survive: %v", err)
	}

	st, err := h.reg.State(s.ID)
	if err != nil {
		t.Fatalf("expired room should stay readable: %v", err)
	}
	if st.Game.Status != models.PhaseEnded || len(st.Players) != len(players) {
		t.Fatalf("unexpected stored state %+v", st.Game)
	}
	changed := h.events.ofType(EventPhaseChanged)
	if len(changed) != 1 || changed[0].(PhaseChangedEvent).Game.Status != models.PhaseEnded {
		t.Fatalf("expected one phase change to ended, got %v", changed)
	}
	if len(h.events.ofType(EventGameEnded)) != 0 {
		t.Fatal("an abandoned room has no results to announce")
	}
	if _, err := s.SendMessage(players[0].ID, "anyone?"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase after expiry, got %v", err)
	}
	if _, err := h.reg.Create("game1", "Alice", ""); err != nil {
		t.Fatalf("code of an expired room should be reusable: %v", err)
	}
}

func TestSweepWithoutIdleLimitKeepsUnfinishedRooms(t *testing.T) {
	h := newHarness(t)
	s, _ := h.lobby(t, 1)
	h.clock.Advance(24 * time.Hour)
	if n := h.reg.Sweep(h.clock.Now(), Retention{Ended: time.Hour}); n != 0 {
		t.Fatalf("expected no evictions, got %d", n)
	}
	if _, err := h.reg.Get(s.ID); err != nil {
		t.Fatalf("room must stay registered: %v", err)
	}
}
