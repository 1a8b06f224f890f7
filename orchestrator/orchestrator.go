// Package orchestrator drives a full compliance reporting run: account
// discovery, per-account compliance findings, and tag enrichment of
// every violating resource. Accounts are processed sequentially with a
// pause between them to stay inside the platform's rate limits.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/omista/cache"
	"github.com/yairfalse/omista/lacework"
	"github.com/yairfalse/omista/profiler"
	"github.com/yairfalse/omista/resolver"
	"github.com/yairfalse/omista/telemetry"
	"github.com/yairfalse/omista/types"
)

// complianceCategory is the cache directory compliance reports live under.
const complianceCategory = "compliance"

// interAccountDelay spaces out account processing. The compliance and
// inventory endpoints share one rate budget per tenant.
const interAccountDelay = 2 * time.Second

// PlatformClient is the slice of the platform client the orchestrator
// needs.
type PlatformClient interface {
	ListAWSAccounts(ctx context.Context) ([]types.Account, error)
	GetComplianceReport(ctx context.Context, accountID, reportName string) (*lacework.ComplianceReport, error)
}

// InventorySource supplies complete account inventories.
type InventorySource interface {
	GetAccountInventory(ctx context.Context, accountID string, dates types.DateRange, forceRefresh bool) (*types.AccountInventory, error)
}

// RunRequest parameterizes one reporting run.
type RunRequest struct {
	// ReportName selects the compliance report, e.g. "AWS CIS Benchmark".
	ReportName string
	Dates      types.DateRange
	// AccountFilter restricts the run to these account ids. Empty means
	// every enabled account.
	AccountFilter []string
	ForceRefresh  bool
	// SkipEnrichment leaves violating resources unresolved; no inventory
	// is fetched.
	SkipEnrichment bool
}

// RunResult is the outcome of one reporting run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	ReportName string        `json:"report_name"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`

	AccountsProcessed int      `json:"accounts_processed"`
	AccountsSkipped   int      `json:"accounts_skipped"`
	SkippedAccounts   []string `json:"skipped_accounts,omitempty"`

	Violations    []types.ComplianceViolation `json:"violations"`
	ResourceCount int                         `json:"resource_count"`
	// SourceCounts tallies resolved resources by tag source.
	SourceCounts map[types.TagSource]int `json:"source_counts"`
}

// Orchestrator coordinates a run end to end.
type Orchestrator struct {
	client   PlatformClient
	fetcher  InventorySource
	profiler *profiler.Profiler
	resolver *resolver.TagResolver
	store    *cache.Store
	logger   *telemetry.Logger
	tracer   trace.Tracer
	// sleep is injectable so tests do not wait out the account delay.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator wiring the platform client, the inventory
// fetcher, and the tag resolution pipeline together.
func New(client PlatformClient, fetcher InventorySource, prof *profiler.Profiler, res *resolver.TagResolver, store *cache.Store) *Orchestrator {
	return &Orchestrator{
		client:   client,
		fetcher:  fetcher,
		profiler: prof,
		resolver: res,
		store:    store,
		logger:   telemetry.NewLogger("orchestrator"),
		tracer:   otel.Tracer("orchestrator"),
		sleep:    sleepCtx,
	}
}

// Run executes one full reporting run. A failing account is logged and
// skipped; only empty account discovery is fatal.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run",
		trace.WithAttributes(attribute.String("report_name", req.ReportName)))
	defer span.End()

	result := &RunResult{
		RunID:        uuid.NewString(),
		ReportName:   req.ReportName,
		StartedAt:    time.Now(),
		SourceCounts: make(map[types.TagSource]int),
	}

	accounts, err := o.client.ListAWSAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing AWS accounts: %w", err)
	}
	accounts = filterAccounts(accounts, req.AccountFilter)
	if len(accounts) == 0 {
		return nil, errors.New("no enabled AWS accounts matched the run")
	}

	o.logger.WithContext(ctx).Info().
		Str("run_id", result.RunID).
		Str("report_name", req.ReportName).
		Int("accounts", len(accounts)).
		Msg("starting compliance run")

	for i, account := range accounts {
		if i > 0 {
			if err := o.sleep(ctx, interAccountDelay); err != nil {
				return nil, err
			}
		}

		violations, err := o.processAccount(ctx, account, req)
		if err != nil {
			o.logger.LogAccountSkipped(ctx, account.ID, err)
			result.AccountsSkipped++
			result.SkippedAccounts = append(result.SkippedAccounts, account.ID)
			continue
		}
		result.AccountsProcessed++
		result.Violations = append(result.Violations, violations...)
	}

	for _, violation := range result.Violations {
		result.ResourceCount += violation.ResourceCount
		for _, res := range violation.Resources {
			if res.Resolved.Source != "" {
				result.SourceCounts[res.Resolved.Source]++
			}
		}
	}

	result.Duration = time.Since(result.StartedAt)
	o.logger.WithContext(ctx).Info().
		Str("run_id", result.RunID).
		Int("violations", len(result.Violations)).
		Int("resources", result.ResourceCount).
		Int("accounts_processed", result.AccountsProcessed).
		Int("accounts_skipped", result.AccountsSkipped).
		Dur("duration", result.Duration).
		Msg("compliance run complete")
	return result, nil
}

// processAccount handles one account: compliance findings, then tag
// enrichment of each violating resource. The inventory is only fetched
// when at least one non-compliant finding exists.
func (o *Orchestrator) processAccount(ctx context.Context, account types.Account, req RunRequest) ([]types.ComplianceViolation, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.account",
		trace.WithAttributes(attribute.String("account_id", account.ID)))
	defer span.End()

	report, err := o.getComplianceReport(ctx, account.ID, req)
	if err != nil {
		return nil, fmt.Errorf("compliance report: %w", err)
	}

	findings := report.NonCompliant()
	if len(findings) == 0 {
		o.logger.WithContext(ctx).Info().
			Str("account_id", account.ID).
			Msg("no non-compliant findings")
		return nil, nil
	}

	var inv *types.AccountInventory
	var profile *types.AccountFallbackProfile
	if !req.SkipEnrichment {
		inv, err = o.fetcher.GetAccountInventory(ctx, account.ID, req.Dates, req.ForceRefresh)
		if err != nil {
			return nil, fmt.Errorf("inventory: %w", err)
		}
		profile, err = o.profiler.GetFallbackProfile(ctx, inv, account.ID, account.Alias)
		if err != nil {
			return nil, fmt.Errorf("fallback profile: %w", err)
		}
	}

	violations := make([]types.ComplianceViolation, 0, len(findings))
	for _, finding := range findings {
		resources := make([]types.EnrichedResource, 0, len(finding.Violations))
		for _, v := range finding.Violations {
			enriched := types.EnrichedResource{ARN: v.Resource, Region: v.Region}
			if !req.SkipEnrichment {
				enriched.Resolved = o.resolver.Resolve(ctx, v.Resource, inv, profile)
			}
			resources = append(resources, enriched)
		}
		violations = append(violations, types.NewComplianceViolation(
			account.ID, account.Alias,
			finding.RecID, finding.Title,
			lacework.SeverityLabel(finding.Severity), finding.Status,
			finding.InfoLink, resources))
	}
	return violations, nil
}

// getComplianceReport returns the account's compliance report, cached
// per account, report name, and date window.
func (o *Orchestrator) getComplianceReport(ctx context.Context, accountID string, req RunRequest) (*lacework.ComplianceReport, error) {
	key := cache.Key{
		Category:     complianceCategory,
		AccountID:    accountID,
		ResourceType: req.ReportName,
		Start:        req.Dates.Start,
		End:          req.Dates.End,
	}

	if !req.ForceRefresh {
		var cached lacework.ComplianceReport
		if err := o.store.Get(key, &cached); err == nil {
			o.logger.LogCacheHit(ctx, complianceCategory, accountID, len(cached.Recommendations))
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			o.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("compliance cache read failed")
		}
	}

	report, err := o.client.GetComplianceReport(ctx, accountID, req.ReportName)
	if err != nil {
		return nil, err
	}
	if err := o.store.Put(key, report); err != nil {
		o.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("failed to cache compliance report")
	}
	return report, nil
}

func filterAccounts(accounts []types.Account, filter []string) []types.Account {
	out := make([]types.Account, 0, len(accounts))
	wanted := make(map[string]bool, len(filter))
	for _, id := range filter {
		wanted[id] = true
	}
	for _, a := range accounts {
		if !a.Enabled {
			continue
		}
		if len(wanted) > 0 && !wanted[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
