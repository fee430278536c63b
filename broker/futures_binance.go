package broker

import (
	"context"
	"fmt"
	"strconv"

	futures "github.com/adshao/go-binance/v2/futures"

	"github.com/synapsestrike/tradeengine/model"
)

// binanceFuturesVenue is the default FUTURES venue, wrapping
// go-binance/v2/futures.
type binanceFuturesVenue struct {
	client *futures.Client
}

// NewBinanceFuturesVenue builds the default futures venue client.
func NewBinanceFuturesVenue(apiKey, apiSecret string) futuresVenueClient {
	return &binanceFuturesVenue{client: futures.NewClient(apiKey, apiSecret)}
}

func (v *binanceFuturesVenue) venueName() string { return "binance_futures" }

func (v *binanceFuturesVenue) supportedSymbols() []string {
	return []string{"BTCUSDT", "ETHUSDT", "ESU26", "MESU26", "NQU26", "MNQU26"}
}

func (v *binanceFuturesVenue) getAccount(ctx context.Context) (model.AggregatedAccount, error) {
	var out model.AggregatedAccount
	err := withRetry(ctx, func() error {
		acc, err := v.client.NewGetAccountService().Do(ctx)
		if err != nil {
			return classifyBinanceErr(err)
		}
		equity, _ := strconv.ParseFloat(acc.TotalWalletBalance, 64)
		available, _ := strconv.ParseFloat(acc.AvailableBalance, 64)
		out = model.AggregatedAccount{TotalEquity: equity, TotalCash: equity, TotalBuyingPower: available}
		return nil
	})
	return out, err
}

func (v *binanceFuturesVenue) getPositions(ctx context.Context) ([]model.Position, error) {
	var out []model.Position
	err := withRetry(ctx, func() error {
		positions, err := v.client.NewGetPositionRiskService().Do(ctx)
		if err != nil {
			return classifyBinanceErr(err)
		}
		out = out[:0]
		for _, p := range positions {
			qty, _ := strconv.ParseFloat(p.PositionAmt, 64)
			if qty == 0 {
				continue
			}
			entry, _ := strconv.ParseFloat(p.EntryPrice, 64)
			mark, _ := strconv.ParseFloat(p.MarkPrice, 64)
			pnl, _ := strconv.ParseFloat(p.UnRealizedProfit, 64)
			side := model.PositionLong
			absQty := qty
			if qty < 0 {
				side = model.PositionShort
				absQty = -qty
			}
			out = append(out, model.Position{
				Symbol: p.Symbol, AssetClass: model.Futures, Broker: "binance_futures", Side: side,
				Quantity: absQty, EntryPrice: entry, CurrentPrice: mark,
				MarketValue: absQty * mark, UnrealizedPnl: pnl,
			})
		}
		return nil
	})
	return out, err
}

func (v *binanceFuturesVenue) placeOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		side := futures.SideTypeBuy
		if order.Side == model.Sell {
			side = futures.SideTypeSell
		}
		svc := v.client.NewCreateOrderService().
			Symbol(order.Symbol).
			Side(side).
			Type(orderTypeToBinance(order.OrderType)).
			Quantity(strconv.FormatFloat(order.Quantity, 'f', -1, 64)).
			NewClientOrderID(order.ClientOrderID)
		if order.LimitPrice != nil {
			svc = svc.Price(strconv.FormatFloat(*order.LimitPrice, 'f', -1, 64)).TimeInForce(futures.TimeInForceTypeGTC)
		}
		if order.StopPrice != nil {
			svc = svc.StopPrice(strconv.FormatFloat(*order.StopPrice, 'f', -1, 64))
		}
		resp, err := svc.Do(ctx)
		if err != nil {
			return classifyBinanceErr(err)
		}
		filled, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
		var avg *float64
		if resp.AvgPrice != "" {
			a, parseErr := strconv.ParseFloat(resp.AvgPrice, 64)
			if parseErr == nil {
				avg = &a
			}
		}
		out = OrderResult{
			BrokerOrderID: strconv.FormatInt(resp.OrderID, 10),
			Status:        NormalizeBinanceStatus(string(resp.Status)),
			FilledQuantity: filled, AvgFillPrice: avg,
		}
		return nil
	})
	return out, err
}

func (v *binanceFuturesVenue) cancelOrder(ctx context.Context, brokerOrderID string) error {
	return withRetry(ctx, func() error {
		id, _ := strconv.ParseInt(brokerOrderID, 10, 64)
		_, err := v.client.NewCancelOrderService().OrderID(id).Do(ctx)
		if err != nil {
			return classifyBinanceErr(err)
		}
		return nil
	})
}

func (v *binanceFuturesVenue) getOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		id, _ := strconv.ParseInt(brokerOrderID, 10, 64)
		resp, err := v.client.NewGetOrderService().OrderID(id).Do(ctx)
		if err != nil {
			return classifyBinanceErr(err)
		}
		filled, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
		out = OrderResult{
			BrokerOrderID: strconv.FormatInt(resp.OrderID, 10),
			Status:        NormalizeBinanceStatus(string(resp.Status)),
			FilledQuantity: filled,
		}
		return nil
	})
	return out, err
}

func orderTypeToBinance(t model.OrderType) futures.OrderType {
	switch t {
	case model.OrderLimit:
		return futures.OrderTypeLimit
	case model.OrderStop:
		return futures.OrderTypeStop
	default:
		return futures.OrderTypeMarket
	}
}

// NormalizeBinanceStatus maps Binance futures order status into the
// common alphabet. Idempotent via the default pass-through branch.
func NormalizeBinanceStatus(native string) model.OrderStatus {
	switch native {
	case "NEW":
		return model.OrderPending
	case "PARTIALLY_FILLED":
		return model.OrderPartiallyFilled
	case "FILLED":
		return model.OrderFilled
	case "CANCELED", "PENDING_CANCEL":
		return model.OrderCancelled
	case "REJECTED":
		return model.OrderRejected
	case "EXPIRED":
		return model.OrderExpired
	default:
		return model.OrderStatus(native)
	}
}

// classifyBinanceErr wraps venue errors so withRetry's classification
// can tell apart a rejection from a transient failure. Binance's SDK
// surfaces both as generic errors; a -2010/-1013 class code means the
// exchange rejected the order outright.
func classifyBinanceErr(err error) error {
	if apiErr, ok := err.(*futures.APIError); ok {
		switch {
		case apiErr.Code == -2010 || apiErr.Code == -1013:
			return &OrderRejectedError{Broker: "binance_futures", Reason: apiErr.Message}
		case apiErr.Code == -1003:
			return &retryableHTTPError{StatusCode: 429, Body: apiErr.Message}
		default:
			return &retryableHTTPError{StatusCode: 500, Body: fmt.Sprintf("%d: %s", apiErr.Code, apiErr.Message)}
		}
	}
	return err
}
