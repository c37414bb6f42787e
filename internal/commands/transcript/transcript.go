// Package transcript implements the command that reads back a chat session
// mirrored to Redis.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydrochat-core/server/internal/agent/model"
	"github.com/hydrochat-core/server/internal/agent/repo"
	"github.com/hydrochat-core/server/internal/config"
	"github.com/hydrochat-core/server/internal/console"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// ErrNoTranscript is returned when a session has no stored records.
var ErrNoTranscript = errors.New("no transcript stored for session")

type Publisher interface {
	Publish(ctx context.Context, record model.SessionRecord) error
}

// NewTranscriptCommand creates the transcript command
func NewTranscriptCommand(envFile *string) *cobra.Command {
	var (
		follow   bool
		wipe     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "transcript <session-id>",
		Short: "Print or follow a chat session mirrored to Redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			cfg.InitLogger(cmd.ErrOrStderr())
			if !cfg.Redis.Enabled() {
				return errors.New("REDIS_URL is not set; transcripts are only stored in Redis")
			}
			rdb, err := cfg.Redis.New()
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer rdb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessionID := args[0]
			transcripts := repo.NewRedisTranscriptRepository(rdb, cfg.Session.TTL)
			if wipe {
				if err := transcripts.ClearRecords(ctx, sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", sessionID)
				return nil
			}

			screen := console.New(cmd.OutOrStdout())
			shown, err := Dump(ctx, transcripts, sessionID, screen)
			if err != nil {
				return err
			}
			if !follow {
				if shown == 0 {
					return fmt.Errorf("%w %s", ErrNoTranscript, sessionID)
				}
				return nil
			}
			return Follow(ctx, transcripts, sessionID, screen, shown, interval)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing records as the session appends them")
	cmd.Flags().BoolVar(&wipe, "clear", false, "delete the stored transcript instead of printing it")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval while following")
	return cmd
}

// Dump publishes every stored record of the session in append order and
// returns how many were published.
func Dump(ctx context.Context, transcripts model.TranscriptRepository, sessionID string, out Publisher) (int, error) {
	records, err := transcripts.LoadRecords(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := out.Publish(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// Follow polls the record count and publishes records past the first seen
// until ctx ends. A shrinking list means the session was cleared or expired,
// so publishing restarts from its head.
func Follow(ctx context.Context, transcripts model.TranscriptRepository, sessionID string, out Publisher, seen int, every time.Duration) error {
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := transcripts.RecordCount(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n < seen {
			logx.Debug().Str("session_id", sessionID).Int("count", n).Msg("Transcript shrank; restarting from the head")
			seen = 0
		}
		if n == seen {
			continue
		}

		records, err := transcripts.LoadRecords(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(records) < seen {
			seen = 0
		}
		for _, rec := range records[seen:] {
			if err := out.Publish(ctx, rec); err != nil {
				return err
			}
		}
		seen = len(records)
	}
}
