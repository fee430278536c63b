package broker

import (
	"context"
	"strconv"

	bybit "github.com/bybit-exchange/bybit.go.api"

	"github.com/synapsestrike/tradeengine/model"
)

// bybitFuturesVenue is a selectable FUTURES venue (config.FuturesVenue
// = "bybit") for operators who route futures through Bybit's
// derivatives API instead of Binance.
type bybitFuturesVenue struct {
	client *bybit.Client
}

// NewBybitFuturesVenue builds the Bybit venue client.
func NewBybitFuturesVenue(apiKey, apiSecret string) futuresVenueClient {
	client := bybit.NewBybitHttpClient(apiKey, apiSecret, bybit.WithBaseURL(bybit.MAINNET))
	return &bybitFuturesVenue{client: client}
}

func (v *bybitFuturesVenue) venueName() string         { return "bybit_futures" }
func (v *bybitFuturesVenue) supportedSymbols() []string { return []string{"BTCUSDT", "ETHUSDT"} }

func (v *bybitFuturesVenue) getAccount(ctx context.Context) (model.AggregatedAccount, error) {
	var out model.AggregatedAccount
	err := withRetry(ctx, func() error {
		resp, err := v.client.NewUtaBybitServiceWithParams(map[string]interface{}{
			"accountType": "UNIFIED",
		}).GetWalletBalance(ctx)
		if err != nil {
			return err
		}
		equity := bybitFloatField(resp.Result, "totalEquity")
		available := bybitFloatField(resp.Result, "totalAvailableBalance")
		out = model.AggregatedAccount{TotalEquity: equity, TotalCash: equity, TotalBuyingPower: available}
		return nil
	})
	return out, err
}

func (v *bybitFuturesVenue) getPositions(ctx context.Context) ([]model.Position, error) {
	var out []model.Position
	err := withRetry(ctx, func() error {
		resp, err := v.client.NewUtaBybitServiceWithParams(map[string]interface{}{
			"category": "linear",
		}).GetPositionInfo(ctx)
		if err != nil {
			return err
		}
		out = bybitPositionsFromResponse(resp.Result)
		return nil
	})
	return out, err
}

func (v *bybitFuturesVenue) placeOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		params := map[string]interface{}{
			"category":    "linear",
			"symbol":      order.Symbol,
			"side":        bybitSide(order.Side),
			"orderType":   bybitOrderType(order.OrderType),
			"qty":         strconv.FormatFloat(order.Quantity, 'f', -1, 64),
			"orderLinkId": order.ClientOrderID,
		}
		if order.LimitPrice != nil {
			params["price"] = strconv.FormatFloat(*order.LimitPrice, 'f', -1, 64)
		}
		resp, err := v.client.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
		if err != nil {
			return err
		}
		if resp.RetCode != 0 {
			return &OrderRejectedError{Broker: "bybit_futures", Reason: resp.RetMsg}
		}
		out = OrderResult{BrokerOrderID: bybitStringField(resp.Result, "orderId"), Status: model.OrderPending}
		return nil
	})
	return out, err
}

func (v *bybitFuturesVenue) cancelOrder(ctx context.Context, brokerOrderID string) error {
	return withRetry(ctx, func() error {
		_, err := v.client.NewUtaBybitServiceWithParams(map[string]interface{}{
			"category": "linear",
			"orderId":  brokerOrderID,
		}).CancelOrder(ctx)
		return err
	})
}

func (v *bybitFuturesVenue) getOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		resp, err := v.client.NewUtaBybitServiceWithParams(map[string]interface{}{
			"category": "linear",
			"orderId":  brokerOrderID,
		}).GetOrderHistory(ctx)
		if err != nil {
			return err
		}
		out = OrderResult{
			BrokerOrderID:  brokerOrderID,
			Status:         NormalizeBybitStatus(bybitStringField(resp.Result, "orderStatus")),
			FilledQuantity: bybitFloatField(resp.Result, "cumExecQty"),
		}
		return nil
	})
	return out, err
}

// NormalizeBybitStatus maps Bybit's native order status into the
// common alphabet. Idempotent via the default pass-through branch.
func NormalizeBybitStatus(native string) model.OrderStatus {
	switch native {
	case "Created", "New":
		return model.OrderPending
	case "PartiallyFilled":
		return model.OrderPartiallyFilled
	case "Filled":
		return model.OrderFilled
	case "Cancelled", "PendingCancel":
		return model.OrderCancelled
	case "Rejected":
		return model.OrderRejected
	case "Deactivated":
		return model.OrderExpired
	default:
		return model.OrderStatus(native)
	}
}

func bybitSide(s model.Side) string {
	if s == model.Sell {
		return "Sell"
	}
	return "Buy"
}

func bybitOrderType(t model.OrderType) string {
	if t == model.OrderLimit {
		return "Limit"
	}
	return "Market"
}

// bybitFloatField and bybitStringField pull a numeric/string leaf out
// of the SDK's loosely-typed response map, tolerating Bybit's
// string-encoded numerics.
func bybitFloatField(resp interface{}, key string) float64 {
	m, ok := resp.(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := m[key].(type) {
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case float64:
		return v
	default:
		return 0
	}
}

func bybitStringField(resp interface{}, key string) string {
	m, ok := resp.(map[string]interface{})
	if !ok {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func bybitPositionsFromResponse(resp interface{}) []model.Position {
	m, ok := resp.(map[string]interface{})
	if !ok {
		return nil
	}
	list, ok := m["list"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]model.Position, 0, len(list))
	for _, raw := range list {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		qty := bybitFloatField(item, "size")
		if qty == 0 {
			continue
		}
		side := model.PositionLong
		if s, _ := item["side"].(string); s == "Sell" {
			side = model.PositionShort
		}
		out = append(out, model.Position{
			Symbol: bybitStringField(item, "symbol"), AssetClass: model.Futures, Broker: "bybit_futures",
			Side: side, Quantity: qty, EntryPrice: bybitFloatField(item, "avgPrice"),
			CurrentPrice: bybitFloatField(item, "markPrice"), UnrealizedPnl: bybitFloatField(item, "unrealisedPnl"),
		})
	}
	return out
}
