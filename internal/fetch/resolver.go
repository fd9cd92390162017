package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/crawlytics/crawlytics/internal/model"
)

// Resolver defaults. Conservative values: enrichment talks to third-party
// image hosts that did not ask to be probed.
const (
	// DefaultConcurrency bounds in-flight requests.
	DefaultConcurrency = 10

	// DefaultTimeout bounds one HEAD request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the resolver to image hosts.
	DefaultUserAgent = "crawlytics/1.0"
)

// Resolver resolves image byte sizes via HTTP HEAD requests.
// Construct with NewResolver; a Resolver is safe for concurrent use.
type Resolver struct {
	client      *http.Client
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
	userAgent   string
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the HTTP client used for HEAD requests. Useful for
// tests and for routing through a proxy.
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithConcurrency bounds the number of in-flight requests. Values below one
// fall back to DefaultConcurrency.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRateLimit caps the aggregate request rate across all workers at rps
// requests per second. Zero or negative disables rate limiting.
func WithRateLimit(rps float64) ResolverOption {
	return func(r *Resolver) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) ResolverOption {
	return func(r *Resolver) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithResolverLogger sets the logger for per-fetch diagnostics.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: r.timeout}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve fetches the byte size of every reference and returns one sample
// per input, in input order.
//
// Design decision: Workers write into a pre-allocated slice indexed by input
// position, so output order matches input order without any post-run sort.
// The error return covers only context cancellation; individual fetch
// failures become OutcomeFailed samples, and their diagnostics are collected
// serially after the workers finish.
func (r *Resolver) Resolve(ctx context.Context, refs []string, diags *model.Diagnostics) ([]model.ImageSizeSample, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	samples := make([]model.ImageSizeSample, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			samples[i] = r.resolveOne(ctx, ref)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve image sizes: %w", err)
	}

	if diags != nil {
		for _, s := range samples {
			switch s.Outcome {
			case model.OutcomeFailed:
				diags.Add(model.Diagnostic{
					Kind:   model.KindFailedFetch,
					Record: s.Ref,
					Detail: "image size fetch failed",
				})
			case model.OutcomeUnknown:
				diags.Add(model.Diagnostic{
					Kind:   model.KindUnknownSize,
					Record: s.Ref,
					Detail: "no Content-Length header",
				})
			}
		}
	}

	r.logger.Info("image sizes resolved",
		"refs", len(refs),
		"failed", countOutcome(samples, model.OutcomeFailed),
		"unknown", countOutcome(samples, model.OutcomeUnknown),
	)
	return samples, nil
}

// resolveOne issues one HEAD request and classifies the outcome.
func (r *Resolver) resolveOne(ctx context.Context, ref string) model.ImageSizeSample {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, ref, nil)
	if err != nil {
		r.logger.Debug("invalid image reference", "ref", ref, "error", err)
		return failedSample(ref)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("image fetch failed", "ref", ref, "error", err)
		return failedSample(ref)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Debug("image fetch returned non-success status",
			"ref", ref,
			"status", resp.StatusCode,
		)
		return failedSample(ref)
	}

	if resp.ContentLength < 0 {
		return model.ImageSizeSample{Ref: ref, SizeBytes: 0, Outcome: model.OutcomeUnknown}
	}
	return model.ImageSizeSample{Ref: ref, SizeBytes: resp.ContentLength, Outcome: model.OutcomeResolved}
}

func failedSample(ref string) model.ImageSizeSample {
	return model.ImageSizeSample{Ref: ref, SizeBytes: model.FailedFetchSize, Outcome: model.OutcomeFailed}
}

func countOutcome(samples []model.ImageSizeSample, outcome model.FetchOutcome) int {
	n := 0
	for _, s := range samples {
		if s.Outcome == outcome {
			n++
		}
	}
	return n
}
