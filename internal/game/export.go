package game

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type Exporter interface {
	Export(st State, res Results) error
}

// FileExporter appends a plain-text transcript of every finished room to Path.
type FileExporter struct {
	Path string
	mu   sync.Mutex
}

func NewFileExporter(path string) *FileExporter {
	return &FileExporter{Path: path}
}

func (e *FileExporter) Export(st State, res Results) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := os.OpenFile(e.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(Transcript(st, res, time.Now())); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// Transcript renders one finished room.
func Transcript(st State, res Results, at time.Time) string {
	var sb strings.Builder
	names := make(map[string]string, len(st.Players))
	for _, p := range st.Players {
		names[p.ID] = p.Name
	}
	nameOf := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return "Unknown"
	}

	sb.WriteString(fmt.Sprintf("Room %s (%s) - personality %s\n", st.Game.RoomCode, st.Game.ID, st.Game.AIPersonality))
	sb.WriteString(fmt.Sprintf("Ended: %s\n", at.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("Players:\n")
	for _, p := range st.Players {
		tag := ""
		if p.IsAI {
			tag = " [AI]"
		}
		sb.WriteString(fmt.Sprintf("- %s%s\n", p.Name, tag))
	}

	sb.WriteString("\nChat:\n")
	for _, m := range st.Messages {
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), nameOf(m.PlayerID), m.Content))
	}

	sb.WriteString("\nVotes:\n")
	for _, p := range st.Players {
		if p.IsAI || !p.HasVoted {
			continue
		}
		target := "(skip)"
		if p.Vote != "" {
			target = nameOf(p.Vote)
		}
		sb.WriteString(fmt.Sprintf("- %s -> %s\n", p.Name, target))
	}

	winner := "Humans"
	if res.AIWins {
		winner = "AI"
	}
	sb.WriteString(fmt.Sprintf("\nAI player: %s, %d of %d votes. Winner: %s\n", res.AIPlayer.Name, res.AIVotes, res.TotalVotes, winner))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	return sb.String()
}

