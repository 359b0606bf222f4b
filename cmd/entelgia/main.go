// Command entelgia runs a dialogue session between Socrates, Athena, and
// Fixy to completion, then writes the session dump to disk. Grounded on
// perplext-LLMrecon's cobra root-command CLI pattern
// (src/bundle/cli/offline_bundle_cli.go).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/entelgia/entelgia/config"
	"github.com/entelgia/entelgia/dialogue"
	"github.com/entelgia/entelgia/dreamcycle"
	"github.com/entelgia/entelgia/llm"
	"github.com/entelgia/entelgia/memorycore"
	"github.com/entelgia/entelgia/persona"
)

// Exit codes per spec.md section 6: 0 clean completion, 1 fatal
// config/startup error, 130 user interrupt (SIGINT, matching the POSIX
// 128+SIGINT convention shells use).
const (
	exitOK          = 0
	exitStartupFail = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "entelgia",
		Short: "Run a turn-based dialogue between Socrates, Athena, and Fixy",
	}

	var topic string
	dialogueCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one dialogue session to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), log, topic)
		},
	}
	dialogueCmd.Flags().StringVar(&topic, "topic", "", "override the configured seed topic")
	root.AddCommand(dialogueCmd)

	ctx, cancel := signalContext()
	defer cancel()
	root.SetArgs(osArgsOrDefault())

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("entelgia: interrupted")
			return exitInterrupted
		}
		log.Error().Err(err).Msg("entelgia: fatal error")
		return exitStartupFail
	}
	return exitOK
}

func osArgsOrDefault() []string {
	if len(os.Args) <= 1 {
		return []string{"run"}
	}
	return os.Args[1:]
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSession(ctx context.Context, log zerolog.Logger, topicOverride string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if warning := cfg.WeakSecretWarning(); warning != "" {
		log.Warn().Msg(warning)
	}
	if topicOverride != "" {
		cfg.SeedTopic = topicOverride
	}

	adapter := llm.NewFromEnv(log)

	stm := memorycore.NewSTMStore(cfg.DataDir, cfg.STMMaxEntries, cfg.STMTrimBatch, log)
	ltm, err := memorycore.OpenLTMStore(filepath.Join(cfg.DataDir, "entelgia_memory.db"), memorycore.NewSigner([]byte(cfg.MemorySecretKey)), log)
	if err != nil {
		return fmt.Errorf("opening ltm store: %w", err)
	}
	defer ltm.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	dream := dreamcycle.NewConsolidator(dreamcycle.Config{
		PromoteImportanceThreshold: cfg.PromoteImportanceThreshold,
		PromoteEmotionThreshold:    cfg.PromoteEmotionThreshold,
		ReflectionModel:            dreamModelFor(cfg),
	}, adapter, stm, ltm, log)

	driver := dialogue.NewDriver(cfg, adapter, stm, ltm, dream, rng, log)

	session := dialogue.NewSession([]persona.ID{persona.Socrates, persona.Athena, persona.Fixy}, []string{cfg.SeedTopic})

	events := dialogue.NewEventEmitter(session.ID, 256)
	driver.WithEvents(events)
	go logEvents(log, events)

	if err := driver.Run(ctx, session); err != nil {
		return fmt.Errorf("running dialogue: %w", err)
	}
	events.Close()

	if err := dialogue.Persist(session, cfg, cfg.DataDir); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	log.Info().Str("session_id", session.ID).Int("turns", len(session.History)).Msg("entelgia: session complete")
	return nil
}

func dreamModelFor(cfg config.Config) func(id persona.ID) string {
	return func(id persona.ID) string {
		switch id {
		case persona.Socrates:
			return cfg.ModelSocrates
		case persona.Athena:
			return cfg.ModelAthena
		default:
			return cfg.ModelFixy
		}
	}
}

func logEvents(log zerolog.Logger, events *dialogue.EventEmitter) {
	for evt := range events.Events() {
		log.Debug().Str("kind", string(evt.Kind)).Interface("data", evt.Data).Msg("entelgia: event")
	}
}
