package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/queue"
	"github.com/soltixdb/cosinor/internal/services"
)

func watchCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print analysis events published by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if subject != "" {
				cfg.Events.Subject = subject
			}

			sub, err := queue.NewSubscriber(cfg.Events)
			if err != nil {
				return fmt.Errorf("connect to event queue: %w", err)
			}
			defer func() { _ = sub.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchEvents(ctx, cmd, sub, cfg.Events.Subject)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Override the configured event subject")
	return cmd
}

// watchEvents prints one line per event until ctx is done
func watchEvents(ctx context.Context, cmd *cobra.Command, sub queue.Subscriber, subject string) error {
	var mu sync.Mutex
	out := cmd.OutOrStdout()
	err := sub.Subscribe(subject, func(msg queue.Message) error {
		ev, err := services.DecodeEvent(msg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping undecodable event: %v\n", err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, formatEvent(ev))
		return nil
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe(subject)
}

func formatEvent(ev *services.AnalysisEvent) string {
	ts := ev.Timestamp.Format(time.RFC3339)
	if !ev.Succeeded() {
		return fmt.Sprintf("%s %s %s n=%d FAILED %s: %s", ts, ev.RunID, ev.Analysis, ev.Samples, ev.ErrorCode, ev.Error)
	}
	line := fmt.Sprintf("%s %s %s n=%d r2=%.4f crossings=%d intervals=%d %dms",
		ts, ev.RunID, ev.Analysis, ev.Samples, ev.R2, ev.Crossings, ev.Intervals, ev.DurationMS)
	if ev.Params != nil {
		line += " " + ev.Params.String()
	}
	return line
}
