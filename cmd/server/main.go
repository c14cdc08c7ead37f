package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
	"github.com/georgeca620-star/Ai-imposter/internal/ai/huggingface"
	"github.com/georgeca620-star/Ai-imposter/internal/ai/ollama"
	"github.com/georgeca620-star/Ai-imposter/internal/ai/openai"
	"github.com/georgeca620-star/Ai-imposter/internal/config"
	"github.com/georgeca620-star/Ai-imposter/internal/game"
	"github.com/georgeca620-star/Ai-imposter/internal/httpapi"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
	"github.com/georgeca620-star/Ai-imposter/internal/ws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`AI Imposter - find the AI hiding in the chat

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables (also read from ./.env):
  PORT                   Port to listen on (default: 8080)
  LOG_LEVEL              debug, info, warn or error (default: info)
  ALLOWED_ORIGINS        Comma separated origins for CORS and WebSocket (default: *)
  PRIMARY_PROVIDER       openai, ollama or huggingface (default: openai)
  BACKUP_PROVIDER        openai, ollama, huggingface or empty (default: huggingface)
  DEFAULT_MODEL          Model for the primary provider (default: gpt-4o-mini)
  BACKUP_MODEL           Model for the backup provider (default: llama3)
  OPENAI_API_KEY         OpenAI API key
  OPENAI_BASE_URL        Custom OpenAI API base URL (optional)
  OLLAMA_HOST            Ollama host URL (default: http://localhost:11434)
  HUGGINGFACE_API_KEY    Hugging Face inference API key
  HUGGINGFACE_MODEL_URL  Hugging Face model endpoint (optional)
  AI_TIMEOUT             Per-attempt AI timeout (default: 15s)
  DISCUSSION_TIME        Discussion length (default: 3m)
  VOTING_TIME            Voting length (default: 30s)
  MIN_PLAYERS            Humans needed to start (default: 4)
  MAX_PLAYERS            Room capacity (default: 8)
  ENDED_ROOM_TTL         How long ended rooms stay live (default: 30m)
  IDLE_ROOM_TTL          Expire unfinished rooms idle this long, 0 disables (default: 2h)
  EXPORT_ENABLED         Append results of ended games to a file (default: false)
  EXPORT_FILE            Path to export game results (default: ./imposter-results.txt)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("AI Imposter %s\n", version)
		return
	}

	cfg := config.FromEnv()

	port := *portFlag
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Gin setup with custom logger (skip socket noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") || path == "/ws" {
			return
		}
		log.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// AI fallback chain
	stages := []ai.Stage{{
		Name:     cfg.PrimaryProvider,
		Provider: providerFor(cfg.PrimaryProvider, cfg),
		Model:    cfg.DefaultModel,
		Style:    ai.PromptFull,
	}}
	if cfg.BackupProvider != "" && cfg.BackupProvider != cfg.PrimaryProvider {
		style := ai.PromptFull
		if cfg.BackupProvider == "huggingface" {
			style = ai.PromptBrief
		}
		stages = append(stages, ai.Stage{
			Name:     cfg.BackupProvider,
			Provider: providerFor(cfg.BackupProvider, cfg),
			Model:    cfg.BackupModel,
			Style:    style,
		})
	}
	responder := ai.NewResponder(cfg.AITimeout, stages...)

	// Rooms
	rules := game.DefaultRules()
	rules.MinPlayers = cfg.MinPlayers
	rules.MaxPlayers = cfg.MaxPlayers
	rules.DiscussionTime = cfg.DiscussionTime
	rules.VotingTime = cfg.VotingTime
	opts := game.Options{Rules: rules}
	if cfg.ExportEnabled {
		opts.Exporter = game.NewFileExporter(cfg.ExportFile)
		log.Info().Str("file", cfg.ExportFile).Msg("exporting results")
	}
	hub := ws.NewHub()
	reg := game.NewRegistry(store.NewMemory(), hub, responder, opts)
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reg.Run(ctx, time.Minute, game.Retention{Ended: cfg.EndedRoomTTL, Idle: cfg.IdleRoomTTL})

	// Live transports + request API
	io := ws.New(reg, hub, cfg.AllowedOrigins).Mount(r)
	defer io.Close()
	httpapi.New(reg).Mount(r)

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info().Str("port", port).Str("primary", cfg.PrimaryProvider).Str("backup", cfg.BackupProvider).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func providerFor(name string, cfg config.Config) ai.Provider {
	switch name {
	case "openai":
		return openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	case "ollama":
		return ollama.New(cfg.OllamaHost)
	case "huggingface":
		return huggingface.New(cfg.HuggingFaceKey, cfg.HuggingFaceModelURL)
	}
	log.Warn().Str("provider", name).Msg("unknown AI provider, skipping")
	return nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
