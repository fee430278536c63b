// Package market implements the Market Data Provider: a lazy, cached
// supply of OHLCV bars and quotes keyed by (symbol, timeframe). Cache
// reads are concurrent; writes are exclusive per key so a cache miss on
// a hot symbol never triggers a thundering herd of duplicate fetches.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// BarTTL and QuoteTTL bound how stale cached market data may get.
const (
	BarTTL   = 60 * time.Second
	QuoteTTL = 6 * time.Second
)

// HistoricalParams narrows a bar fetch to the caller's window.
type HistoricalParams struct {
	Limit     int
	StartTime *time.Time
	EndTime   *time.Time
}

// Source is the underlying data vendor the Provider fetches through. A
// real deployment wires an HTTP-backed implementation (see
// alpaca_equity.go); tests wire a fake.
type Source interface {
	FetchHistoricalData(ctx context.Context, symbol, timeframe string, params HistoricalParams) ([]model.PriceBar, error)
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// barKey is the full-argument-tuple cache key for a bar fetch.
type barKey struct {
	symbol    string
	timeframe string
	limit     int
	start     int64
	end       int64
}

type barEntry struct {
	bars      []model.PriceBar
	fetchedAt time.Time
}

type quoteEntry struct {
	quote     model.Quote
	fetchedAt time.Time
}

// Provider is the cached facade the Signal Manager and engine use to
// load bar history and quotes. Per-key locks (keyedMutex) serialize
// concurrent misses on the same key without blocking unrelated keys.
type Provider struct {
	source Source
	now    func() time.Time

	barMu    sync.RWMutex
	bars     map[barKey]barEntry
	barLocks keyedMutex

	quoteMu    sync.RWMutex
	quotes     map[string]quoteEntry
	quoteLocks keyedMutex
}

// NewProvider builds a Provider over the given Source.
func NewProvider(source Source) *Provider {
	return &Provider{
		source: source,
		now:    time.Now,
		bars:   map[barKey]barEntry{},
		quotes: map[string]quoteEntry{},
	}
}

func (p *Provider) barCacheKey(symbol, timeframe string, params HistoricalParams) barKey {
	k := barKey{symbol: symbol, timeframe: timeframe, limit: params.Limit}
	if params.StartTime != nil {
		k.start = params.StartTime.UnixMilli()
	}
	if params.EndTime != nil {
		k.end = params.EndTime.UnixMilli()
	}
	return k
}

// FetchHistoricalData returns cached bars when the 60s TTL has not
// elapsed, otherwise fetches through Source. A fetch failure is
// returned to the caller and never populates the cache.
func (p *Provider) FetchHistoricalData(ctx context.Context, symbol, timeframe string, params HistoricalParams) ([]model.PriceBar, error) {
	key := p.barCacheKey(symbol, timeframe, params)

	p.barMu.RLock()
	entry, ok := p.bars[key]
	p.barMu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < BarTTL {
		return entry.bars, nil
	}

	unlock := p.barLocks.Lock(fmt.Sprintf("%+v", key))
	defer unlock()

	p.barMu.RLock()
	entry, ok = p.bars[key]
	p.barMu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < BarTTL {
		return entry.bars, nil
	}

	bars, err := p.source.FetchHistoricalData(ctx, symbol, timeframe, params)
	if err != nil {
		return nil, err
	}

	p.barMu.Lock()
	p.bars[key] = barEntry{bars: bars, fetchedAt: p.now()}
	p.barMu.Unlock()
	return bars, nil
}

// FetchQuote returns a cached quote when the 6s TTL has not elapsed,
// otherwise fetches through Source. Returns (nil, nil) when the source
// has no quote for the symbol.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	p.quoteMu.RLock()
	entry, ok := p.quotes[symbol]
	p.quoteMu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < QuoteTTL {
		q := entry.quote
		return &q, nil
	}

	unlock := p.quoteLocks.Lock(symbol)
	defer unlock()

	p.quoteMu.RLock()
	entry, ok = p.quotes[symbol]
	p.quoteMu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < QuoteTTL {
		q := entry.quote
		return &q, nil
	}

	quote, err := p.source.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, nil
	}

	p.quoteMu.Lock()
	p.quotes[symbol] = quoteEntry{quote: *quote, fetchedAt: p.now()}
	p.quoteMu.Unlock()
	return quote, nil
}

// FetchQuotes fetches every symbol, tolerating individual failures by
// omitting that symbol from the result rather than failing the batch.
func (p *Provider) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	for _, sym := range symbols {
		q, err := p.FetchQuote(ctx, sym)
		if err != nil || q == nil {
			continue
		}
		out[sym] = *q
	}
	return out, nil
}

// PushQuote feeds a quote directly into the cache, bypassing Source.
// Used by the websocket subscriber for streamable symbols.
func (p *Provider) PushQuote(q model.Quote) {
	p.quoteMu.Lock()
	p.quotes[q.Symbol] = quoteEntry{quote: q, fetchedAt: p.now()}
	p.quoteMu.Unlock()
}
