package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// defaultRetryDelay is the fixed pause before the single retry of a
// transient failure.
const defaultRetryDelay = time.Second

// call is one in-flight upstream request. Late arrivals with the same key
// block on done and share the first caller's outcome.
type call struct {
	done chan struct{}
	resp *Response
	err  error
}

type cacheEntry struct {
	resp    *Response
	expires time.Time
}

// Coordinator is the async boundary in front of the optimization service.
// It deduplicates identical concurrent requests onto one upstream call,
// caches successful responses for a fixed TTL, and retries transient
// failures exactly once after a fixed delay. It never cancels an upstream
// call on its own; a superseding request simply resolves independently.
type Coordinator struct {
	client     Analyzer
	ttl        time.Duration
	retryDelay time.Duration
	log        zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*call
	cache    map[string]cacheEntry
}

// NewCoordinator creates a coordinator over an Analyzer.
func NewCoordinator(client Analyzer, ttl time.Duration, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
		log:        log.With().Str("component", "analysis_coordinator").Logger(),
		inflight:   make(map[string]*call),
		cache:      make(map[string]cacheEntry),
	}
}

// Analyze resolves a request through the cache, an in-flight call with
// the same key, or a fresh upstream call, in that order. Failed calls are
// never cached.
func (c *Coordinator) Analyze(ctx context.Context, req Request) (*Response, error) {
	key, err := requestKey(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		c.log.Debug().Str("key", key[:8]).Msg("Analysis cache hit")
		return entry.resp, nil
	}
	if existing, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.log.Debug().Str("key", key[:8]).Msg("Joining in-flight analysis")
		select {
		case <-existing.done:
			return existing.resp, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.resp, cl.err = c.analyzeWithRetry(ctx, req)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.cache[key] = cacheEntry{resp: cl.resp, expires: time.Now().Add(c.ttl)}
	}
	c.mu.Unlock()

	close(cl.done)
	return cl.resp, cl.err
}

// analyzeWithRetry calls upstream, retrying a transient failure exactly
// once after the fixed delay. Permanent failures and second failures
// propagate immediately.
func (c *Coordinator) analyzeWithRetry(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.Analyze(ctx, req)
	if err == nil || !isTransient(err) {
		return resp, err
	}

	c.log.Warn().Err(err).Msg("Transient analysis failure, retrying once")
	select {
	case <-time.After(c.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.client.Analyze(ctx, req)
}

// Sweep evicts expired cache entries and returns how many were removed.
// Run periodically by the scheduler.
func (c *Coordinator) Sweep() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.cache {
		if now.After(entry.expires) {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

// CacheSize returns the number of cached responses, expired or not.
func (c *Coordinator) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// isTransient classifies failures for the retry policy: 5xx, network
// errors and timeouts are transient. Everything else, including a reply
// body that fails to decode, is permanent.
func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// keyEnvelope is the canonical form hashed into a cache key. Allocation
// buckets are flattened into sorted parallel slices so map iteration
// order cannot leak into the key.
type keyEnvelope struct {
	Buckets   []string
	Weights   []float64
	Tolerance string
	Goal      string
	Target    float64
	ESG       []float64
	Tax       []string
	Sector    []float64
	AI        bool
}

// requestKey produces the canonical cache key for a request: a msgpack
// encoding of the ordered envelope, hashed with sha256.
func requestKey(req Request) (string, error) {
	env := keyEnvelope{
		Tolerance: string(req.RiskTolerance),
		Goal:      string(req.OptimizationGoal),
		Target:    req.TargetReturn,
		AI:        req.UseAIOptimization,
	}

	env.Buckets = make([]string, 0, len(req.Allocation))
	for bucket := range req.Allocation {
		env.Buckets = append(env.Buckets, bucket)
	}
	sort.Strings(env.Buckets)
	env.Weights = make([]float64, len(env.Buckets))
	for i, bucket := range env.Buckets {
		env.Weights[i] = req.Allocation[bucket]
	}

	if esg := req.ESGPreferences; esg != nil {
		env.ESG = []float64{esg.Environmental, esg.Social, esg.Governance, esg.OverallImportance}
	}
	if tax := req.TaxPreferences; tax != nil {
		env.Tax = []string{fmt.Sprintf("%v", tax.Bracket), fmt.Sprintf("%v", tax.PreferTaxEfficient), string(tax.AccountType)}
	}
	if sector := req.SectorPreferences; sector != nil {
		env.Sector = []float64{sector.MaxSectorConcentration}
	}

	encoded, err := msgpack.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode request key: %w", err)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
