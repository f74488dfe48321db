package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/time/rate"

	"github.com/samvad-hq/shiksha/internal/config"
	"github.com/samvad-hq/shiksha/internal/credential"
	"github.com/samvad-hq/shiksha/internal/logger"
	"github.com/samvad-hq/shiksha/pkg/easychair"
	"github.com/samvad-hq/shiksha/pkg/exporters"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
	"github.com/samvad-hq/shiksha/pkg/portal"
)

// Portal is the assembled client runtime: the credential store, the decorated
// request client, the portal services and the optional result exporters.
type Portal struct {
	cfg       *config.Config
	log       logger.Logger
	store     credential.Store
	registry  *prometheus.Registry
	client    httpclient.Client
	service   *portal.Service
	scraper   *easychair.Scraper
	fanout    *exporters.Fanout
	endpoints portal.Endpoints
}

// NewPortal builds the runtime from config.
func NewPortal(ctx context.Context, cfg *config.Config, log logger.Logger) (*Portal, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}
	log.DebugObj("credential store initialized", "credential_config", map[string]any{
		"type":      cfg.CredentialStore,
		"path":      cfg.CredentialPath,
		"ttl_hours": cfg.CredentialTTLHours,
		"static":    cfg.Token != "",
	})

	reg := prometheus.NewRegistry()
	metrics := httpclient.NewMetrics(reg)

	client := decorate(httpclient.NewRestyClient(httpclient.Options{
		Timeout:     cfg.HTTPTimeout,
		Credentials: store,
		Logger:      log,
	}), cfg, metrics, log)

	// EasyChair is a third party; it never sees the stored credential.
	publicClient := decorate(httpclient.NewRestyClient(httpclient.Options{
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
	}), cfg, metrics, log)

	endpoints := portal.DefaultEndpoints(cfg.APIBaseURL, cfg.AIBaseURL)
	if cfg.EndpointsFile != "" {
		endpoints, err = portal.LoadEndpoints(cfg.EndpointsFile, endpoints)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load endpoints: %w", err)
		}
	}

	fanout, err := buildExporters(ctx, cfg.ExportersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Portal{
		cfg:       cfg,
		log:       log,
		store:     store,
		registry:  reg,
		client:    client,
		service:   portal.NewService(client, store, endpoints, log),
		scraper:   easychair.NewScraper(publicClient, cfg.EasyChairURL, log),
		fanout:    fanout,
		endpoints: endpoints,
	}, nil
}

func openCredentials(cfg *config.Config) (credential.Store, error) {
	if cfg.Token != "" {
		return credential.Static(cfg.Token), nil
	}
	return credential.NewStore(cfg.CredentialStore, cfg.CredentialPath, credential.Options{TTL: cfg.CredentialTTL})
}

// decorate layers metrics, retry and rate limiting around the core client.
// Every retry attempt is counted and waits for a rate-limit token.
func decorate(core httpclient.Client, cfg *config.Config, m *httpclient.Metrics, log logger.Logger) httpclient.Client {
	var c httpclient.Client = httpclient.NewInstrumentedClient(core, m)
	if cfg.RateLimitRPS > 0 {
		c = httpclient.NewRateLimitedClient(c, rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}
	return httpclient.NewRetryClient(c, httpclient.RetryPolicy{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
	}, log)
}

func buildExporters(ctx context.Context, path string, log logger.Logger) (*exporters.Fanout, error) {
	if path == "" {
		return exporters.NewFanout(nil, log), nil
	}
	cfgs, err := exporters.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load exporters: %w", err)
	}
	enabled := cfgs.Enabled()
	built, err := exporters.DefaultBuilders().Build(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build exporters: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, e := range enabled {
		summaries = append(summaries, map[string]string{"id": e.ID, "type": e.Type})
	}
	log.InfoObj("exporters loaded", "exporters_meta", map[string]any{
		"count":     len(summaries),
		"exporters": summaries,
	})
	return exporters.NewFanout(built, log), nil
}

// Service returns the portal API callers.
func (p *Portal) Service() *portal.Service { return p.service }

// Client returns the decorated request client carrying the stored credential.
func (p *Portal) Client() httpclient.Client { return p.client }

// Scraper returns the direct EasyChair scraper.
func (p *Portal) Scraper() *easychair.Scraper { return p.scraper }

// Credentials returns the credential store.
func (p *Portal) Credentials() credential.Store { return p.store }

// Endpoints returns the resolved endpoint table.
func (p *Portal) Endpoints() portal.Endpoints { return p.endpoints }

// Export hands a generated result to the configured exporters.
func (p *Portal) Export(ctx context.Context, kind string, input, payload any) error {
	if p.fanout.Size() == 0 {
		return nil
	}
	delivered, err := p.fanout.Export(ctx, exporters.NewEvent(kind, input, payload))
	p.log.DebugObj("result exported", "export", map[string]any{
		"kind":      kind,
		"delivered": delivered,
	})
	return err
}

// Close pushes collected metrics when a pushgateway is configured and releases
// the credential store.
func (p *Portal) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.cfg.MetricsPushgateway != "" {
		pusher := push.New(p.cfg.MetricsPushgateway, p.cfg.AppName).Gatherer(p.registry)
		if err := pusher.PushContext(ctx); err != nil {
			p.log.WarnObj("metrics push failed", "error", err.Error())
		}
	}
	if err := p.store.Close(); err != nil {
		return fmt.Errorf("close credential store: %w", err)
	}
	return nil
}
