package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/skedule/internal/profile"
	"github.com/hrygo/skedule/plugin/ai"
	"github.com/hrygo/skedule/plugin/ai/agent"
	"github.com/hrygo/skedule/plugin/ai/agent/tools"
	"github.com/hrygo/skedule/plugin/ai/aitime"
	"github.com/hrygo/skedule/plugin/ai/session"
	"github.com/hrygo/skedule/plugin/ai/speech"
	"github.com/hrygo/skedule/store"
	"github.com/hrygo/skedule/store/db"
)

// app holds the collaborators shared by the commands.
type app struct {
	profile    *profile.Profile
	store      *store.Store
	clock      *aitime.Service
	dispatcher *tools.Dispatcher
	sessions   *session.MemoryStore

	// agent and speech are nil when no LLM provider is configured.
	agent  *agent.Agent
	speech *speech.Service
}

// newApp opens and migrates the store and wires the assistant around it.
func newApp(ctx context.Context, p *profile.Profile) (*app, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}

	clock := aitime.NewService(p.Timezone)
	a := &app{
		profile:    p,
		store:      s,
		clock:      clock,
		dispatcher: tools.NewDispatcher(s, clock),
		sessions:   session.NewMemoryStore(),
	}

	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "invalid AI configuration")
	}
	if !aiConfig.Enabled {
		slog.Warn("no LLM provider configured, only direct tool calls are available")
		return a, nil
	}

	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	a.agent = agent.NewAgent(llm, a.dispatcher, a.sessions, clock, agent.Config{})
	if aiConfig.Speech.Enabled {
		a.speech = speech.NewService(&aiConfig.LLM, aiConfig.Speech)
	}
	slog.Info("assistant ready",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
		"speech", aiConfig.Speech.Enabled)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
