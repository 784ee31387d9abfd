package service

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"observo/internal/apperrors"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"
	"observo/internal/notify"

	"golang.org/x/sync/errgroup"
)

const (
	// FailureThreshold is the consecutive-failure count that fires an alert.
	FailureThreshold = 3

	defaultProbeInterval = 60 * time.Second
	minProbeInterval     = 10 * time.Second
	probeTimeout         = 10 * time.Second
)

// HealthProber polls the configured endpoints and alerts once when an
// endpoint reaches FailureThreshold consecutive failures. Counters live in
// memory and are discarded when Run returns.
type HealthProber struct {
	settings SettingsReader
	notifier Notifier
	client   *http.Client
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	failures map[string]int
}

func NewHealthProber(settings SettingsReader, notifier Notifier, log *logger.Logger, m *metrics.Metrics) *HealthProber {
	return &HealthProber{
		settings: settings,
		notifier: notifier,
		client:   &http.Client{Timeout: probeTimeout},
		log:      log,
		metrics:  m,
		failures: make(map[string]int),
	}
}

// Run probes on the configured interval until ctx is cancelled. The
// interval and endpoint list are re-read before every round.
func (p *HealthProber) Run(ctx context.Context) {
	p.log.Infow("health_prober_started")
	timer := time.NewTimer(p.interval(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.reset()
			p.log.Infow("health_prober_stopped")
			return
		case <-timer.C:
			p.CheckOnce(ctx)
			timer.Reset(p.interval(ctx))
		}
	}
}

type probeResult struct {
	endpoint models.Endpoint
	err      error
}

// CheckOnce runs one probe round and returns the endpoints that crossed
// the failure threshold during it.
func (p *HealthProber) CheckOnce(ctx context.Context) []models.Endpoint {
	st, err := p.settings.GetSettings(ctx)
	if err != nil {
		p.log.Warnw("probe_settings_unavailable", "error", err)
		return nil
	}
	sc, err := st.SystemCheck()
	if err != nil {
		p.log.Warnw("probe_settings_invalid", "error", err)
		return nil
	}
	if !sc.Enabled || len(sc.Endpoints) == 0 {
		p.reset()
		return nil
	}

	endpoints := uniqueEndpoints(sc.Endpoints)
	results := make([]probeResult, len(endpoints))
	var g errgroup.Group
	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = probeResult{endpoint: ep, err: p.probe(ctx, ep.URL)}
			return nil
		})
	}
	_ = g.Wait()

	var tripped []models.Endpoint
	p.mu.Lock()
	p.prune(endpoints)
	for _, r := range results {
		url := r.endpoint.URL
		if r.err == nil {
			p.failures[url] = 0
			continue
		}
		p.failures[url]++
		p.metrics.ProbeFailed(url)
		p.log.Warnw("probe_failed", "endpoint", r.endpoint.Name, "url", url,
			"consecutive", p.failures[url], "error", r.err)
		if p.failures[url] == FailureThreshold {
			tripped = append(tripped, r.endpoint)
		}
	}
	p.mu.Unlock()

	if len(tripped) == 0 {
		return nil
	}

	alerts, err := st.Alerts()
	if err != nil {
		p.log.Warnw("alert_settings_invalid", "error", err)
		return tripped
	}
	for _, ep := range tripped {
		p.log.Errorw("endpoint_down", "endpoint", ep.Name, "url", ep.URL)
		p.notifier.Dispatch(ctx, alerts, notify.SystemCheckAlert(ep, FailureThreshold))
	}
	return tripped
}

// Failures returns the current consecutive-failure count for url.
func (p *HealthProber) Failures(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures[url]
}

func (p *HealthProber) probe(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &apperrors.ProbeError{URL: url, Cause: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return &apperrors.ProbeError{URL: url, Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperrors.ProbeError{URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}

func (p *HealthProber) interval(ctx context.Context) time.Duration {
	st, err := p.settings.GetSettings(ctx)
	if err != nil {
		return defaultProbeInterval
	}
	sc, err := st.SystemCheck()
	if err != nil || !sc.Enabled {
		return defaultProbeInterval
	}
	d := time.Duration(sc.IntervalSeconds) * time.Second
	if d < minProbeInterval {
		return defaultProbeInterval
	}
	return d
}

// prune drops counters of endpoints no longer configured. Caller holds mu.
func (p *HealthProber) prune(current []models.Endpoint) {
	keep := make(map[string]struct{}, len(current))
	for _, ep := range current {
		keep[ep.URL] = struct{}{}
	}
	for url := range p.failures {
		if _, ok := keep[url]; !ok {
			delete(p.failures, url)
		}
	}
}

func (p *HealthProber) reset() {
	p.mu.Lock()
	p.failures = make(map[string]int)
	p.mu.Unlock()
}

func uniqueEndpoints(in []models.Endpoint) []models.Endpoint {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Endpoint, 0, len(in))
	for _, ep := range in {
		if ep.URL == "" {
			continue
		}
		if _, ok := seen[ep.URL]; ok {
			continue
		}
		seen[ep.URL] = struct{}{}
		out = append(out, ep)
	}
	return out
}
