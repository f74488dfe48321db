package exporters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

type httpExporter struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	cfg     ExporterConfig
	log     Logger
}

func newHTTPExporter(_ context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("exporter %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyClient(httpclient.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})
	return newHTTPExporterWithClient(cfg, client, log), nil
}

func newHTTPExporterWithClient(cfg ExporterConfig, client httpclient.Client, log Logger) *httpExporter {
	return &httpExporter{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
		cfg:     cfg,
		log:     ensureLogger(log),
	}
}

func (h *httpExporter) ID() string   { return h.id }
func (h *httpExporter) Type() string { return TypeHTTP }

// Export posts the event as JSON. Kinds the exporter does not accept are skipped.
func (h *httpExporter) Export(ctx context.Context, evt Event) error {
	if !h.cfg.Accepts(evt.Kind) {
		return nil
	}

	resp, err := h.client.Do(ctx, httpclient.Request{
		URL:     h.url,
		Method:  h.method,
		Body:    httpclient.JSON(evt),
		Headers: h.headers,
	})
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	h.log.DebugObj("http exporter delivered event", "exporter_http_delivery", map[string]any{
		"exporter_id": h.id,
		"kind":        evt.Kind,
	})
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
