// Package broker presents a single interface over the two external
// broker protocols (futures-routed and equity-routed) and a Router that
// dispatches by asset class. Each adapter translates to and from its
// native JSON vocabulary and normalizes status into the common
// alphabet the rest of the engine understands.
package broker

import (
	"context"
	"errors"

	"github.com/synapsestrike/tradeengine/model"
)

// UnifiedOrder is what the Risk Manager hands to a broker after a
// signal clears the risk chain.
type UnifiedOrder struct {
	ClientOrderID string
	Symbol        string
	AssetClass    model.AssetClass
	Side          model.Side
	Quantity      float64
	OrderType     model.OrderType
	LimitPrice    *float64
	StopPrice     *float64
	SignalID      *string
}

// OrderResult is a normalized broker response to placeOrder.
type OrderResult struct {
	BrokerOrderID  string
	Status         model.OrderStatus
	FilledQuantity float64
	AvgFillPrice   *float64
}

// OrderRejectedError signals the decision should be recorded but never
// retried.
type OrderRejectedError struct {
	Broker string
	Reason string
}

func (e *OrderRejectedError) Error() string {
	return "broker: order rejected by " + e.Broker + ": " + e.Reason
}

// ErrUnsupportedSymbol is returned when no adapter claims a symbol.
var ErrUnsupportedSymbol = errors.New("broker: no adapter supports this symbol")

// Broker is the capability every concrete adapter implements.
type Broker interface {
	Authenticate(ctx context.Context) error
	GetAccount(ctx context.Context) (model.AggregatedAccount, error)
	GetPositions(ctx context.Context) ([]model.Position, error)
	PlaceOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error)
	CancelOrder(ctx context.Context, brokerOrderID string) error
	GetOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error)
	GetBrokerType() string
	GetAssetClass() model.AssetClass
	GetSupportedSymbols() []string
}
