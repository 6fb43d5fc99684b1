package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/skedule/plugin/ai/session"
	"github.com/hrygo/skedule/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.agent == nil {
			return errors.New("serve needs an LLM provider, set SKEDULE_AI_API_KEY or --ai-api-key")
		}

		opts := server.Options{Agent: a.agent}
		if a.speech != nil {
			opts.Recognizer = a.speech
			opts.Synthesizer = a.speech
		}
		srv := server.NewServer(p, opts)
		cleanup := session.NewSessionCleanupJob(a.sessions, session.CleanupConfig{IdleTTL: p.SessionIdleTTL})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start(gctx)
		})
		g.Go(func() error {
			cleanup.Start(gctx)
			<-gctx.Done()
			cleanup.Stop()
			return nil
		})
		return g.Wait()
	},
}
