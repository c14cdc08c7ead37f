package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string

	PrimaryProvider     string
	BackupProvider      string
	DefaultModel        string
	BackupModel         string
	OpenAIKey           string
	OpenAIBaseURL       string
	OllamaHost          string
	HuggingFaceKey      string
	HuggingFaceModelURL string
	AITimeout           time.Duration

	DiscussionTime time.Duration
	VotingTime     time.Duration
	MinPlayers     int
	MaxPlayers     int
	EndedRoomTTL   time.Duration
	IdleRoomTTL    time.Duration

	ExportEnabled bool
	ExportFile    string
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"LOG_LEVEL":             "info",
	"ALLOWED_ORIGINS":       "*",
	"PRIMARY_PROVIDER":      "openai",
	"BACKUP_PROVIDER":       "huggingface",
	"DEFAULT_MODEL":         "gpt-4o-mini",
	"BACKUP_MODEL":          "llama3",
	"OPENAI_API_KEY":        "",
	"OPENAI_BASE_URL":       "",
	"OLLAMA_HOST":           "http://localhost:11434",
	"HUGGINGFACE_API_KEY":   "",
	"HUGGINGFACE_MODEL_URL": "",
	"AI_TIMEOUT":            "15s",
	"DISCUSSION_TIME":       "3m",
	"VOTING_TIME":           "30s",
	"MIN_PLAYERS":           4,
	"MAX_PLAYERS":           8,
	"ENDED_ROOM_TTL":        "30m",
	"IDLE_ROOM_TTL":         "2h",
	"EXPORT_ENABLED":        false,
	"EXPORT_FILE":           "./imposter-results.txt",
}

// FromEnv reads the environment, falling back to a .env file in the working
// directory and then to built-in defaults.
func FromEnv() Config {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded, using environment only")
	}
	return load(v)
}

func load(v *viper.Viper) Config {
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	c := Config{}
	c.Port = v.GetString("PORT")
	c.LogLevel = strings.ToLower(v.GetString("LOG_LEVEL"))
	c.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	c.PrimaryProvider = strings.ToLower(v.GetString("PRIMARY_PROVIDER"))
	c.BackupProvider = strings.ToLower(v.GetString("BACKUP_PROVIDER"))
	c.DefaultModel = v.GetString("DEFAULT_MODEL")
	c.BackupModel = v.GetString("BACKUP_MODEL")
	c.OpenAIKey = v.GetString("OPENAI_API_KEY")
	c.OpenAIBaseURL = v.GetString("OPENAI_BASE_URL")
	c.OllamaHost = v.GetString("OLLAMA_HOST")
	c.HuggingFaceKey = v.GetString("HUGGINGFACE_API_KEY")
	c.HuggingFaceModelURL = v.GetString("HUGGINGFACE_MODEL_URL")
	c.AITimeout = v.GetDuration("AI_TIMEOUT")
	c.DiscussionTime = v.GetDuration("DISCUSSION_TIME")
	c.VotingTime = v.GetDuration("VOTING_TIME")
	c.MinPlayers = v.GetInt("MIN_PLAYERS")
	c.MaxPlayers = v.GetInt("MAX_PLAYERS")
	c.EndedRoomTTL = v.GetDuration("ENDED_ROOM_TTL")
	c.IdleRoomTTL = v.GetDuration("IDLE_ROOM_TTL")
	c.ExportEnabled = v.GetBool("EXPORT_ENABLED")
	c.ExportFile = v.GetString("EXPORT_FILE")

	if c.MinPlayers < 2 {
		c.MinPlayers = 2
	}
	if c.MaxPlayers < c.MinPlayers {
		log.Warn().Int("min", c.MinPlayers).Int("max", c.MaxPlayers).Msg("MAX_PLAYERS below MIN_PLAYERS, raising it")
		c.MaxPlayers = c.MinPlayers
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
