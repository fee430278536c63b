package broker

import (
	"context"
	"crypto/ecdsa"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/synapsestrike/tradeengine/model"
)

// hyperliquidFuturesVenue is a selectable FUTURES venue
// (config.FuturesVenue = "hyperliquid") for on-chain perpetuals.
// Orders are EIP-712-signed with an ECDSA key via go-ethereum/crypto,
// Hyperliquid's native auth mechanism.
type hyperliquidFuturesVenue struct {
	client *hyperliquid.Client
	signer *ecdsa.PrivateKey
}

// NewHyperliquidFuturesVenue builds the venue client from a hex-encoded
// ECDSA private key.
func NewHyperliquidFuturesVenue(privateKeyHex string, mainnet bool) (futuresVenueClient, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, err
	}
	baseURL := hyperliquid.TestnetURL
	if mainnet {
		baseURL = hyperliquid.MainnetURL
	}
	client := hyperliquid.NewClient(baseURL)
	return &hyperliquidFuturesVenue{client: client, signer: key}, nil
}

func (v *hyperliquidFuturesVenue) venueName() string { return "hyperliquid_futures" }
func (v *hyperliquidFuturesVenue) supportedSymbols() []string {
	return []string{"BTC-PERP", "ETH-PERP"}
}

func (v *hyperliquidFuturesVenue) getAccount(ctx context.Context) (model.AggregatedAccount, error) {
	var out model.AggregatedAccount
	err := withRetry(ctx, func() error {
		state, err := v.client.UserState(ctx, crypto.PubkeyToAddress(v.signer.PublicKey).Hex())
		if err != nil {
			return err
		}
		equity, _ := strconv.ParseFloat(state.MarginSummary.AccountValue, 64)
		withdrawable, _ := strconv.ParseFloat(state.Withdrawable, 64)
		out = model.AggregatedAccount{TotalEquity: equity, TotalCash: withdrawable, TotalBuyingPower: withdrawable}
		return nil
	})
	return out, err
}

func (v *hyperliquidFuturesVenue) getPositions(ctx context.Context) ([]model.Position, error) {
	var out []model.Position
	err := withRetry(ctx, func() error {
		state, err := v.client.UserState(ctx, crypto.PubkeyToAddress(v.signer.PublicKey).Hex())
		if err != nil {
			return err
		}
		for _, p := range state.AssetPositions {
			qty, _ := strconv.ParseFloat(p.Position.Szi, 64)
			if qty == 0 {
				continue
			}
			entry, _ := strconv.ParseFloat(p.Position.EntryPx, 64)
			pnl, _ := strconv.ParseFloat(p.Position.UnrealizedPnl, 64)
			side := model.PositionLong
			absQty := qty
			if qty < 0 {
				side = model.PositionShort
				absQty = -qty
			}
			out = append(out, model.Position{
				Symbol: p.Position.Coin, AssetClass: model.Futures, Broker: "hyperliquid_futures",
				Side: side, Quantity: absQty, EntryPrice: entry, UnrealizedPnl: pnl,
			})
		}
		return nil
	})
	return out, err
}

func (v *hyperliquidFuturesVenue) placeOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		req := hyperliquid.OrderRequest{
			Coin: order.Symbol, IsBuy: order.Side == model.Buy,
			Size: order.Quantity, ReduceOnly: false,
			OrderType: hyperliquidOrderType(order.OrderType),
		}
		if order.LimitPrice != nil {
			req.LimitPrice = *order.LimitPrice
		}
		resp, err := v.client.PlaceOrder(ctx, v.signer, req)
		if err != nil {
			return err
		}
		if resp.Status == "error" {
			return &OrderRejectedError{Broker: "hyperliquid_futures", Reason: resp.Error}
		}
		out = OrderResult{BrokerOrderID: strconv.FormatUint(resp.OrderID, 10), Status: model.OrderPending}
		return nil
	})
	return out, err
}

func (v *hyperliquidFuturesVenue) cancelOrder(ctx context.Context, brokerOrderID string) error {
	return withRetry(ctx, func() error {
		id, _ := strconv.ParseUint(brokerOrderID, 10, 64)
		return v.client.CancelOrder(ctx, v.signer, id)
	})
}

func (v *hyperliquidFuturesVenue) getOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error) {
	var out OrderResult
	err := withRetry(ctx, func() error {
		id, _ := strconv.ParseUint(brokerOrderID, 10, 64)
		status, err := v.client.OrderStatus(ctx, v.signer, id)
		if err != nil {
			return err
		}
		out = OrderResult{
			BrokerOrderID: brokerOrderID, Status: NormalizeHyperliquidStatus(status.Status),
			FilledQuantity: status.FilledSize,
		}
		return nil
	})
	return out, err
}

// NormalizeHyperliquidStatus maps Hyperliquid's native status into the
// common alphabet. Idempotent via the default pass-through branch.
func NormalizeHyperliquidStatus(native string) model.OrderStatus {
	switch native {
	case "open":
		return model.OrderOpen
	case "filled":
		return model.OrderFilled
	case "partiallyFilled":
		return model.OrderPartiallyFilled
	case "canceled":
		return model.OrderCancelled
	case "rejected":
		return model.OrderRejected
	default:
		return model.OrderStatus(native)
	}
}

func hyperliquidOrderType(t model.OrderType) string {
	if t == model.OrderLimit {
		return "limit"
	}
	return "market"
}
