package broker

import (
	"context"

	"github.com/synapsestrike/tradeengine/model"
)

// futuresVenueClient is the narrow capability each pluggable futures
// exchange client implements. FuturesAdapter wraps one of these so the
// Router always sees a single FUTURES adapter no matter which venue is
// configured.
type futuresVenueClient interface {
	venueName() string
	supportedSymbols() []string
	getAccount(ctx context.Context) (model.AggregatedAccount, error)
	getPositions(ctx context.Context) ([]model.Position, error)
	placeOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error)
	cancelOrder(ctx context.Context, brokerOrderID string) error
	getOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error)
}

// FuturesAdapter is the single FUTURES-routed Broker. Its venue is
// selected at construction time (config.FuturesVenue) so exactly one
// concrete exchange client is live per process, but any of the three
// venue clients below can serve it.
type FuturesAdapter struct {
	venue futuresVenueClient
}

// NewFuturesAdapter wraps the selected venue client.
func NewFuturesAdapter(venue futuresVenueClient) *FuturesAdapter {
	return &FuturesAdapter{venue: venue}
}

func (f *FuturesAdapter) Authenticate(ctx context.Context) error { return nil }

func (f *FuturesAdapter) GetAccount(ctx context.Context) (model.AggregatedAccount, error) {
	return f.venue.getAccount(ctx)
}

func (f *FuturesAdapter) GetPositions(ctx context.Context) ([]model.Position, error) {
	return f.venue.getPositions(ctx)
}

func (f *FuturesAdapter) PlaceOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	return f.venue.placeOrder(ctx, order)
}

func (f *FuturesAdapter) CancelOrder(ctx context.Context, brokerOrderID string) error {
	return f.venue.cancelOrder(ctx, brokerOrderID)
}

func (f *FuturesAdapter) GetOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error) {
	return f.venue.getOrderStatus(ctx, brokerOrderID)
}

func (f *FuturesAdapter) GetBrokerType() string           { return f.venue.venueName() }
func (f *FuturesAdapter) GetAssetClass() model.AssetClass { return model.Futures }
func (f *FuturesAdapter) GetSupportedSymbols() []string   { return f.venue.supportedSymbols() }
