// Package inventory retrieves complete per-account resource inventories
// from the platform, following pagination cursors until exhaustion, and
// keeps them in a local JSON cache.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yairfalse/omista/cache"
	"github.com/yairfalse/omista/lacework"
	"github.com/yairfalse/omista/telemetry"
	"github.com/yairfalse/omista/types"
)

// cacheCategory is the cache directory inventories live under.
const cacheCategory = "inventory"

// SearchClient is the slice of the platform client the fetcher needs.
type SearchClient interface {
	SearchInventory(ctx context.Context, req lacework.InventorySearchRequest) (*lacework.InventoryPage, error)
	SearchInventoryPage(ctx context.Context, nextPageURL string) (*lacework.InventoryPage, error)
}

// Fetcher retrieves and caches full account inventories.
type Fetcher struct {
	client SearchClient
	store  *cache.Store
	// pace throttles successive page fetches; the platform rate limit
	// wants roughly one search call per second.
	pace   *rate.Limiter
	logger *telemetry.Logger
	tracer trace.Tracer
}

// NewFetcher creates an inventory fetcher.
func NewFetcher(client SearchClient, store *cache.Store) *Fetcher {
	return &Fetcher{
		client: client,
		store:  store,
		pace:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger: telemetry.NewLogger("inventory"),
		tracer: otel.Tracer("inventory"),
	}
}

// WithPace overrides the page pacing limiter.
func (f *Fetcher) WithPace(l *rate.Limiter) *Fetcher {
	f.pace = l
	return f
}

// GetAccountInventory returns the complete inventory for one account,
// from cache when a valid entry exists, otherwise fetched fresh through
// pagination. A corrupted cache entry is deleted and a fresh fetch
// forced. A remote failure mid-pagination is fatal for this account's
// fetch; nothing partial is ever cached.
func (f *Fetcher) GetAccountInventory(ctx context.Context, accountID string, dates types.DateRange, forceRefresh bool) (*types.AccountInventory, error) {
	ctx, span := f.tracer.Start(ctx, "inventory.fetch")
	defer span.End()

	key := cache.Key{
		Category:  cacheCategory,
		AccountID: accountID,
		Start:     dates.Start,
		End:       dates.End,
	}

	if !forceRefresh {
		if inv, ok := f.loadCached(ctx, key, accountID); ok {
			return inv, nil
		}
	}

	inv, err := f.fetchPaginated(ctx, accountID, dates)
	if err != nil {
		return nil, fmt.Errorf("inventory fetch for account %s failed: %w", accountID, err)
	}

	if err := f.store.Put(key, inv); err != nil {
		// A cache write failure degrades the next run, not this one.
		f.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("failed to cache inventory")
	}
	return inv, nil
}

// loadCached returns a valid cached inventory, deleting entries that
// decode but are structurally corrupt.
func (f *Fetcher) loadCached(ctx context.Context, key cache.Key, accountID string) (*types.AccountInventory, bool) {
	var inv types.AccountInventory
	if err := f.store.Get(key, &inv); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			f.logger.WithContext(ctx).Warn().Err(err).Str("account_id", accountID).Msg("inventory cache read failed")
		}
		return nil, false
	}

	if inv.Meta.FetchedAt.IsZero() || (inv.Meta.TotalResources > 0 && len(inv.Resources) == 0) {
		f.logger.WithContext(ctx).Warn().
			Str("account_id", accountID).
			Msg("corrupted inventory cache entry, forcing refetch")
		if err := f.store.Remove(key); err != nil {
			f.logger.WithContext(ctx).Warn().Err(err).Msg("failed to remove corrupted inventory cache entry")
		}
		return nil, false
	}

	inv.BuildIndices()
	f.logger.LogCacheHit(ctx, cacheCategory, accountID, len(inv.Resources))
	return &inv, true
}

// fetchPaginated pulls every page of the account's inventory.
func (f *Fetcher) fetchPaginated(ctx context.Context, accountID string, dates types.DateRange) (*types.AccountInventory, error) {
	start := time.Now()

	page, err := f.client.SearchInventory(ctx, lacework.AccountInventorySearch(accountID, dates))
	if err != nil {
		return nil, err
	}

	resources := append([]types.ResourceRecord(nil), page.Data...)
	pageCount := 1
	apiCalls := 1
	totalRows := page.Paging.TotalRows
	f.logger.LogPageFetched(ctx, accountID, pageCount, len(page.Data), len(resources), totalRows)

	for len(resources) < totalRows && page.Paging.URLs.NextPage != "" {
		if err := f.pace.Wait(ctx); err != nil {
			return nil, err
		}
		page, err = f.client.SearchInventoryPage(ctx, page.Paging.URLs.NextPage)
		if err != nil {
			return nil, err
		}
		pageCount++
		apiCalls++
		resources = append(resources, page.Data...)
		f.logger.LogPageFetched(ctx, accountID, pageCount, len(page.Data), len(resources), totalRows)
	}

	elapsed := time.Since(start)
	f.logger.LogInventoryComplete(ctx, accountID, len(resources), pageCount, apiCalls, elapsed)

	inv := &types.AccountInventory{
		Meta: types.FetchMeta{
			AccountID:      accountID,
			TotalResources: len(resources),
			PageCount:      pageCount,
			APICalls:       apiCalls,
			FetchDuration:  elapsed,
			StartDate:      dates.Start,
			EndDate:        dates.End,
			FetchedAt:      time.Now(),
		},
		Resources: resources,
	}
	inv.BuildIndices()
	return inv, nil
}

// LookupByARN finds the inventory record for an AWS ARN by recovering
// the platform's opaque resource identifier from it.
func LookupByARN(inv *types.AccountInventory, arn string) (*types.ResourceRecord, bool) {
	parsed, ok := types.ParseARN(arn)
	if !ok {
		return nil, false
	}
	return inv.LookupByID(parsed.ResourceID)
}
