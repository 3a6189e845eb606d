// Package dependency wires the voxagent services using go.uber.org/dig.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.uber.org/dig"

	"github.com/voxagent/voxagent/internal/agent"
	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/cron"
	"github.com/voxagent/voxagent/internal/heartbeat"
	"github.com/voxagent/voxagent/internal/providers"
	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/session"
	"github.com/voxagent/voxagent/internal/tools"
)

// Options adjusts how the container is built.
type Options struct {
	// Offline replaces the configured provider with the keyword matcher.
	Offline bool
	// DataDir holds cron jobs; defaults to config.DataDir().
	DataDir string
	// Provider, when set, is used instead of building one from config.
	Provider schema.LLMProvider
}

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg       *config.Config
	provider  schema.LLMProvider
	registry  *tools.Registry
	sessions  *session.Manager
	agent     *agent.Agent
	msgBus    bus.Bus
	cronSvc   *cron.Service
	heartbeat *heartbeat.Service
}

func (c *Container) Config() *config.Config        { return c.cfg }
func (c *Container) Provider() schema.LLMProvider  { return c.provider }
func (c *Container) Registry() *tools.Registry     { return c.registry }
func (c *Container) Sessions() *session.Manager    { return c.sessions }
func (c *Container) Agent() *agent.Agent           { return c.agent }
func (c *Container) MessageBus() bus.Bus           { return c.msgBus }
func (c *Container) CronService() *cron.Service    { return c.cronSvc }
func (c *Container) Heartbeat() *heartbeat.Service { return c.heartbeat }

// New builds and wires all services from cfg.
func New(cfg *config.Config, opts Options) (*Container, error) {
	if opts.DataDir == "" {
		opts.DataDir = config.DataDir()
	}

	d := dig.New()
	provides := []struct {
		ctor any
		opts []dig.ProvideOption
	}{
		{ctor: func() *config.Config { return cfg }},
		{ctor: func() Options { return opts }},
		{ctor: newProvider},
		{ctor: newMessageBus, opts: []dig.ProvideOption{dig.As(new(bus.Bus))}},
		{ctor: newCronService},
		{ctor: newRegistry},
		{ctor: newPersona},
		{ctor: newSessionManager},
		{ctor: newLoop},
		{ctor: agent.NewAgent},
		{ctor: newHeartbeat},
	}
	for _, p := range provides {
		if err := d.Provide(p.ctor, p.opts...); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.LLMProvider,
		registry *tools.Registry,
		sessions *session.Manager,
		a *agent.Agent,
		b bus.Bus,
		cronSvc *cron.Service,
		hb *heartbeat.Service,
	) {
		cronSvc.SetHandler(CronHandler(a, b))
		result = &Container{
			cfg:       cfg,
			provider:  provider,
			registry:  registry,
			sessions:  sessions,
			agent:     a,
			msgBus:    b,
			cronSvc:   cronSvc,
			heartbeat: hb,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

// ErrNoProvider is returned when no provider has credentials.
var ErrNoProvider = errors.New("no LLM provider configured")

func newProvider(cfg *config.Config, opts Options) (schema.LLMProvider, error) {
	if opts.Provider != nil {
		return opts.Provider, nil
	}
	if opts.Offline {
		return providers.New(providers.Params{ProviderName: providers.KindOffline})
	}
	params := cfg.ProviderParams()
	if params.ProviderName == "" {
		return nil, fmt.Errorf("%w: set an API key in %s or run with --offline", ErrNoProvider, config.ConfigPath())
	}
	return providers.New(params)
}

func newMessageBus() *bus.MessageBus {
	return bus.NewMessageBus(100)
}

func newCronService(opts Options) *cron.Service {
	return cron.NewService(filepath.Join(opts.DataDir, "cron", "jobs.json"))
}

func newRegistry(cfg *config.Config, cronSvc *cron.Service) (*tools.Registry, error) {
	return tools.NewRegistryBuilder().
		WithTools(tools.Builtins(tools.BuiltinOptions{
			MaxSearchResults:   cfg.Tools.Search.MaxResults,
			FetchMaxChars:      cfg.Tools.Fetch.MaxChars,
			FetchTimeout:       time.Duration(cfg.Tools.Fetch.TimeoutSeconds) * time.Second,
			AllowSystemCommand: cfg.Tools.Exec.Enabled,
			CommandTimeout:     time.Duration(cfg.Tools.Exec.TimeoutSeconds) * time.Second,
			WorkingDir:         cfg.WorkspacePath(),
			Cron:               cronSvc,
		})...).
		Build()
}

func newPersona(cfg *config.Config) agent.Persona {
	fallback := cfg.Agent.SystemPrompt
	if fallback == "" {
		fallback = agent.DefaultSystemPrompt
	}
	persona, err := agent.LoadPersona(cfg.WorkspacePath(), fallback)
	if err != nil {
		slog.Warn("Ignoring invalid persona file", "err", err)
	}
	return persona
}

func newSessionManager(cfg *config.Config, persona agent.Persona) (*session.Manager, error) {
	return session.NewManager(cfg.WorkspacePath(), session.Options{
		MaxHistory:   cfg.Agent.MaxHistory,
		SystemPrompt: persona.SystemPrompt,
	})
}

func newLoop(cfg *config.Config, opts Options, p schema.LLMProvider, reg *tools.Registry) *agent.Loop {
	settings := schema.NewAgentSettings(
		cfg.Agent.Model,
		cfg.Agent.MaxRounds,
		cfg.Agent.Temperature,
		cfg.Agent.MaxTokens,
		cfg.Agent.MaxHistory,
	)
	settings.ParallelTools = cfg.Agent.ParallelTools
	if opts.Offline {
		settings.Model = ""
	}
	return agent.NewLoop(p, reg, settings)
}

func newHeartbeat(cfg *config.Config, a *agent.Agent) *heartbeat.Service {
	interval := time.Duration(cfg.Heartbeat.IntervalMinutes) * time.Minute
	return heartbeat.NewService(cfg.WorkspacePath(), HeartbeatHandler(a), interval)
}

// CronHandler runs a fired job in its own session and, when the job asks for
// delivery, publishes the reply to the channel it was scheduled from.
func CronHandler(a *agent.Agent, b bus.Bus) cron.Handler {
	return func(ctx context.Context, job cron.Job) (string, error) {
		res := a.ProcessDirect(ctx, job.Message, job.SessionKey(), string(bus.ChannelCron), job.ID)
		if res.Err != nil {
			return res.FinalText, res.Err
		}
		if job.Target.Deliver && job.Target.Channel != "" && res.FinalText != "" {
			out := schema.OutboundMessage{
				Channel: job.Target.Channel,
				ChatID:  job.Target.ChatID,
				Content: res.FinalText,
			}
			if err := b.PublishOutbound(ctx, out); err != nil {
				return res.FinalText, fmt.Errorf("deliver reply: %w", err)
			}
		}
		return res.FinalText, nil
	}
}

// HeartbeatHandler runs heartbeat prompts on the heartbeat session.
func HeartbeatHandler(a *agent.Agent) heartbeat.Handler {
	return func(ctx context.Context, prompt string) error {
		res := a.ProcessDirect(ctx, prompt, heartbeat.SessionKey, string(bus.ChannelHeartbeat), "direct")
		return res.Err
	}
}
