package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/synapsestrike/tradeengine/model"
)

// EquityAlpacaAdapter routes EQUITY orders through Alpaca's trading
// API: key/secret headers, a paper/live base URL switch, and jittered
// retries on transient failures.
type EquityAlpacaAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter

	mu          sync.Mutex
	bearerToken string
	refreshFn   func(ctx context.Context) (string, time.Time, error)
	tokens      TokenStore
}

// TokenStore persists a broker's bearer token across restarts so a
// fresh process can resume without an immediate re-auth round trip.
// store.CredentialRepo satisfies it.
type TokenStore interface {
	Put(broker string, token []byte, now int64) error
	Get(broker string) ([]byte, error)
}

// NewEquityAlpacaAdapter builds an equity adapter. isPaper selects the
// paper-trading base URL.
func NewEquityAlpacaAdapter(apiKey, apiSecret string, isPaper bool) *EquityAlpacaAdapter {
	baseURL := "https://api.alpaca.markets"
	if isPaper {
		baseURL = "https://paper-api.alpaca.markets"
	}
	return &EquityAlpacaAdapter{
		apiKey: apiKey, apiSecret: apiSecret, baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (a *EquityAlpacaAdapter) GetBrokerType() string           { return "alpaca" }
func (a *EquityAlpacaAdapter) GetAssetClass() model.AssetClass { return model.Equity }
func (a *EquityAlpacaAdapter) GetSupportedSymbols() []string   { return nil } // any non-futures symbol

// Authenticate is a no-op for Alpaca's key/secret scheme; present to
// satisfy the Broker interface and to support a future bearer-token
// venue without reshaping callers.
func (a *EquityAlpacaAdapter) Authenticate(ctx context.Context) error { return nil }

// SetTokenStore attaches encrypted-at-rest token persistence, seeding
// the in-memory bearer token from any previously stored value.
func (a *EquityAlpacaAdapter) SetTokenStore(ts TokenStore) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = ts
	if a.bearerToken == "" {
		if stored, err := ts.Get(a.GetBrokerType()); err == nil && len(stored) > 0 {
			a.bearerToken = string(stored)
		}
	}
}

// maybeRefreshBearer proactively refreshes a bearer token before it
// expires, using the JWT's own expiry claim rather than waiting for a
// reactive 401.
func (a *EquityAlpacaAdapter) maybeRefreshBearer(ctx context.Context) error {
	if a.refreshFn == nil {
		return nil
	}
	a.mu.Lock()
	token := a.bearerToken
	a.mu.Unlock()
	if token != "" {
		parser := jwt.NewParser()
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				if time.Until(exp.Time) > 30*time.Second {
					return nil
				}
			}
		}
	}
	newToken, _, err := a.refreshFn(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.bearerToken = newToken
	tokens := a.tokens
	a.mu.Unlock()
	if tokens != nil {
		if err := tokens.Put(a.GetBrokerType(), []byte(newToken), time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("broker: persisting refreshed token: %w", err)
		}
	}
	return nil
}

func (a *EquityAlpacaAdapter) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := a.maybeRefreshBearer(ctx); err != nil {
		return nil, err
	}

	var result []byte
	err := withRetry(ctx, func() error {
		var reqBody io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("APCA-API-KEY-ID", a.apiKey)
		req.Header.Set("APCA-API-SECRET-KEY", a.apiSecret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if refreshErr := a.maybeRefreshBearer(ctx); refreshErr != nil {
				return &retryableHTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
			}
			return &retryableHTTPError{StatusCode: http.StatusInternalServerError, Body: "reauth required"}
		}
		if resp.StatusCode == 422 || (resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429) {
			return &OrderRejectedError{Broker: "alpaca", Reason: string(respBody)}
		}
		if resp.StatusCode >= 400 {
			return &retryableHTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		result = respBody
		return nil
	})
	return result, err
}

type alpacaAccountResponse struct {
	Equity           string `json:"equity"`
	Cash             string `json:"cash"`
	BuyingPower      string `json:"buying_power"`
	PatternDayTrader bool   `json:"pattern_day_trader"`
	DaytradeCount    int    `json:"daytrade_count"`
}

// GetAccount fetches the equity account snapshot.
func (a *EquityAlpacaAdapter) GetAccount(ctx context.Context) (model.AggregatedAccount, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/v2/account", nil)
	if err != nil {
		return model.AggregatedAccount{}, err
	}
	var resp alpacaAccountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.AggregatedAccount{}, fmt.Errorf("broker: decoding alpaca account: %w", err)
	}
	equity, _ := strconv.ParseFloat(resp.Equity, 64)
	cash, _ := strconv.ParseFloat(resp.Cash, 64)
	buyingPower, _ := strconv.ParseFloat(resp.BuyingPower, 64)
	return model.AggregatedAccount{
		TotalEquity: equity, TotalCash: cash, TotalBuyingPower: buyingPower,
		PDTSubject: resp.PatternDayTrader, DayTradesUsed: resp.DaytradeCount, DayTradesLimit: 4,
	}, nil
}

type alpacaPosition struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

// GetPositions fetches open equity positions.
func (a *EquityAlpacaAdapter) GetPositions(ctx context.Context) ([]model.Position, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/v2/positions", nil)
	if err != nil {
		return nil, err
	}
	var resp []alpacaPosition
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("broker: decoding alpaca positions: %w", err)
	}
	out := make([]model.Position, 0, len(resp))
	for _, p := range resp {
		qty, _ := strconv.ParseFloat(p.Qty, 64)
		entry, _ := strconv.ParseFloat(p.AvgEntryPrice, 64)
		current, _ := strconv.ParseFloat(p.CurrentPrice, 64)
		marketValue, _ := strconv.ParseFloat(p.MarketValue, 64)
		pnl, _ := strconv.ParseFloat(p.UnrealizedPL, 64)
		side := model.PositionLong
		if p.Side == "short" {
			side = model.PositionShort
		}
		out = append(out, model.Position{
			Symbol: p.Symbol, AssetClass: model.Equity, Broker: "alpaca", Side: side,
			Quantity: qty, EntryPrice: entry, CurrentPrice: current,
			MarketValue: marketValue, UnrealizedPnl: pnl, UpdatedAt: time.Now(),
		})
	}
	return out, nil
}

type alpacaOrderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	LimitPrice    string `json:"limit_price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
	ClientOrderID string `json:"client_order_id"`
}

type alpacaOrderResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FilledQty      string `json:"filled_qty"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

// PlaceOrder submits a UnifiedOrder to Alpaca.
func (a *EquityAlpacaAdapter) PlaceOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	req := alpacaOrderRequest{
		Symbol: order.Symbol, Qty: strconv.FormatFloat(order.Quantity, 'f', -1, 64),
		Side: sideToAlpaca(order.Side), Type: orderTypeToAlpaca(order.OrderType),
		TimeInForce: "day", ClientOrderID: order.ClientOrderID,
	}
	if order.LimitPrice != nil {
		req.LimitPrice = strconv.FormatFloat(*order.LimitPrice, 'f', -1, 64)
	}
	if order.StopPrice != nil {
		req.StopPrice = strconv.FormatFloat(*order.StopPrice, 'f', -1, 64)
	}

	body, err := a.doRequest(ctx, http.MethodPost, "/v2/orders", req)
	if err != nil {
		return OrderResult{}, err
	}
	return parseAlpacaOrderResponse(body)
}

// CancelOrder cancels a working Alpaca order.
func (a *EquityAlpacaAdapter) CancelOrder(ctx context.Context, brokerOrderID string) error {
	_, err := a.doRequest(ctx, http.MethodDelete, "/v2/orders/"+brokerOrderID, nil)
	return err
}

// GetOrderStatus fetches and normalizes an order's current status.
func (a *EquityAlpacaAdapter) GetOrderStatus(ctx context.Context, brokerOrderID string) (OrderResult, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/v2/orders/"+brokerOrderID, nil)
	if err != nil {
		return OrderResult{}, err
	}
	return parseAlpacaOrderResponse(body)
}

func parseAlpacaOrderResponse(body []byte) (OrderResult, error) {
	var resp alpacaOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return OrderResult{}, fmt.Errorf("broker: decoding alpaca order: %w", err)
	}
	filled, _ := strconv.ParseFloat(resp.FilledQty, 64)
	var avg *float64
	if resp.FilledAvgPrice != "" {
		v, err := strconv.ParseFloat(resp.FilledAvgPrice, 64)
		if err == nil {
			avg = &v
		}
	}
	return OrderResult{
		BrokerOrderID: resp.ID, Status: NormalizeAlpacaStatus(resp.Status),
		FilledQuantity: filled, AvgFillPrice: avg,
	}, nil
}

// NormalizeAlpacaStatus maps Alpaca's native order-status vocabulary
// into the common alphabet. Idempotent: an already-normalized value
// passes through unchanged via the default branch.
func NormalizeAlpacaStatus(native string) model.OrderStatus {
	switch native {
	case "new", "accepted", "pending_new":
		return model.OrderPending
	case "accepted_for_bidding", "held":
		return model.OrderOpen
	case "filled":
		return model.OrderFilled
	case "partially_filled":
		return model.OrderPartiallyFilled
	case "canceled", "pending_cancel":
		return model.OrderCancelled
	case "rejected":
		return model.OrderRejected
	case "expired":
		return model.OrderExpired
	default:
		return model.OrderStatus(native)
	}
}

func sideToAlpaca(side model.Side) string {
	if side == model.Sell {
		return "sell"
	}
	return "buy"
}

func orderTypeToAlpaca(t model.OrderType) string {
	switch t {
	case model.OrderLimit:
		return "limit"
	case model.OrderStop:
		return "stop"
	default:
		return "market"
	}
}
