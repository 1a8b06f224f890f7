// Package profiler derives per-account fallback ownership data from a
// full inventory: tag value frequencies, coverage, and the most common
// owner/environment values used when individual resources carry no tags.
package profiler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yairfalse/omista/cache"
	"github.com/yairfalse/omista/telemetry"
	"github.com/yairfalse/omista/types"
)

const cacheCategory = "fallback"

// distributionLimit caps how many distinct values a profile keeps per
// distribution.
const distributionLimit = 10

// Profiler computes and caches account fallback profiles.
type Profiler struct {
	store   *cache.Store
	tagKeys types.TagKeys
	logger  *telemetry.Logger

	mu   sync.Mutex
	memo map[string]*types.AccountFallbackProfile
}

// NewProfiler creates a profiler using the given ownership tag keys.
func NewProfiler(store *cache.Store, tagKeys types.TagKeys) *Profiler {
	return &Profiler{
		store:   store,
		tagKeys: tagKeys,
		logger:  telemetry.NewLogger("profiler"),
		memo:    make(map[string]*types.AccountFallbackProfile),
	}
}

// GetFallbackProfile returns the account's fallback profile, computed
// from the inventory on first request and cached for the TTL after.
func (p *Profiler) GetFallbackProfile(ctx context.Context, inv *types.AccountInventory, accountID, accountName string) (*types.AccountFallbackProfile, error) {
	p.mu.Lock()
	if profile, ok := p.memo[accountID]; ok {
		p.mu.Unlock()
		return profile, nil
	}
	p.mu.Unlock()

	key := cache.Key{Category: cacheCategory, AccountID: accountID}

	var cached types.AccountFallbackProfile
	if err := p.store.Get(key, &cached); err == nil && !cached.AnalyzedAt.IsZero() {
		p.logger.LogCacheHit(ctx, cacheCategory, accountID, cached.TotalResources)
		p.remember(accountID, &cached)
		return &cached, nil
	} else if err != nil && !errors.Is(err, cache.ErrMiss) {
		p.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("fallback profile cache read failed")
	}

	profile := p.Analyze(inv, accountID, accountName)
	if err := p.store.Put(key, profile); err != nil {
		p.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("failed to cache fallback profile")
	}
	p.remember(accountID, profile)
	return profile, nil
}

func (p *Profiler) remember(accountID string, profile *types.AccountFallbackProfile) {
	p.mu.Lock()
	p.memo[accountID] = profile
	p.mu.Unlock()
}

// counter tabulates tag value frequencies, remembering first-seen order
// so the most-common pick is deterministic for deterministic input.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(value string) {
	if value == "" {
		return
	}
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

func (c *counter) total() int {
	sum := 0
	for _, n := range c.counts {
		sum += n
	}
	return sum
}

// mostCommon returns the highest-frequency value. Ties go to the value
// seen first in resource iteration order.
func (c *counter) mostCommon() *types.ValueCount {
	best := ""
	bestCount := 0
	for _, value := range c.order {
		if c.counts[value] > bestCount {
			best = value
			bestCount = c.counts[value]
		}
	}
	if best == "" {
		return nil
	}
	return &types.ValueCount{Value: best, Count: bestCount}
}

// distribution returns up to limit values sorted by descending
// frequency, first-seen order breaking ties.
func (c *counter) distribution(limit int) []types.ValueCount {
	out := make([]types.ValueCount, 0, len(c.order))
	for _, value := range c.order {
		out = append(out, types.ValueCount{Value: value, Count: c.counts[value]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Analyze scans the inventory once and tabulates ownership statistics.
func (p *Profiler) Analyze(inv *types.AccountInventory, accountID, accountName string) *types.AccountFallbackProfile {
	if accountName == "" {
		accountName = "account-" + accountID
	}

	techOwners := newCounter()
	bizOwners := newCounter()
	billing := newCounter()
	environments := newCounter()

	tagged := 0
	for i := range inv.Resources {
		tags := inv.Resources[i].EffectiveTags()
		if len(tags) == 0 {
			continue
		}
		tagged++
		techOwners.add(tags[p.tagKeys.TechnicalOwner])
		bizOwners.add(tags[p.tagKeys.BusinessOwner])
		billing.add(tags[p.tagKeys.BillingProject])
		environments.add(tags[p.tagKeys.Environment])
	}

	total := len(inv.Resources)
	coverage := 0.0
	if total > 0 {
		coverage = float64(tagged) / float64(total) * 100
	}
	envCoverage := 0.0
	if tagged > 0 {
		envCoverage = float64(environments.total()) / float64(tagged) * 100
	}

	defaultEnv := "N/A"
	if mc := environments.mostCommon(); mc != nil {
		defaultEnv = types.NormalizeEnvironment(mc.Value)
	}

	return &types.AccountFallbackProfile{
		AccountID:           accountID,
		AccountName:         accountName,
		AnalyzedAt:          time.Now(),
		TotalResources:      total,
		TaggedResources:     tagged,
		TaggingCoverage:     coverage,
		EnvironmentCoverage: envCoverage,

		DefaultTechnicalOwner: techOwners.mostCommon(),
		DefaultBusinessOwner:  bizOwners.mostCommon(),
		DefaultBillingProject: billing.mostCommon(),
		DefaultEnvironment:    defaultEnv,

		TechnicalOwnerDistribution: techOwners.distribution(distributionLimit),
		BusinessOwnerDistribution:  bizOwners.distribution(distributionLimit),
		EnvironmentDistribution:    environments.distribution(0),
		BillingDistribution:        billing.distribution(0),
	}
}
