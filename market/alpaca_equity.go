package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// Alpaca Data API constants.
const (
	alpacaDataBaseURL = "https://data.alpaca.markets"
	alpacaMaxBarLimit = 10000
)

// AlpacaSource fetches equity bars and quotes from Alpaca's market-data
// API. An explicit struct rather than package globals, so lifetime
// follows whoever constructs it.
type AlpacaSource struct {
	APIKey    string
	APISecret string
	BaseURL   string
	client    *http.Client
}

// NewAlpacaSource builds an equity Source against Alpaca's data API.
func NewAlpacaSource(apiKey, apiSecret string) *AlpacaSource {
	return &AlpacaSource{
		APIKey: apiKey, APISecret: apiSecret,
		BaseURL: alpacaDataBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *AlpacaSource) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", a.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.APISecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market: alpaca request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("market: reading alpaca response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("market: alpaca error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func mapTimeframeToAlpaca(tf string) string {
	switch strings.ToLower(tf) {
	case "1m", "1min":
		return "1Min"
	case "5m", "5min":
		return "5Min"
	case "15m", "15min":
		return "15Min"
	case "30m", "30min":
		return "30Min"
	case "1h", "1hour":
		return "1Hour"
	case "4h", "4hour":
		return "4Hour"
	case "1d", "1day":
		return "1Day"
	default:
		return "5Min"
	}
}

type alpacaBar struct {
	Timestamp string  `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type alpacaBarsResponse struct {
	Bars          []alpacaBar `json:"bars"`
	NextPageToken string      `json:"next_page_token"`
}

// FetchHistoricalData implements Source against Alpaca's v2 stocks bars
// endpoint.
func (a *AlpacaSource) FetchHistoricalData(ctx context.Context, symbol, timeframe string, params HistoricalParams) ([]model.PriceBar, error) {
	limit := params.Limit
	if limit <= 0 || limit > alpacaMaxBarLimit {
		limit = 200
	}
	path := fmt.Sprintf("/v2/stocks/%s/bars?timeframe=%s&limit=%d", symbol, mapTimeframeToAlpaca(timeframe), limit)
	if params.StartTime != nil {
		path += "&start=" + params.StartTime.UTC().Format(time.RFC3339)
	}
	if params.EndTime != nil {
		path += "&end=" + params.EndTime.UTC().Format(time.RFC3339)
	}

	body, err := a.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var parsed alpacaBarsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("market: decoding alpaca bars: %w", err)
	}

	bars := make([]model.PriceBar, 0, len(parsed.Bars))
	for _, b := range parsed.Bars {
		ts, err := time.Parse(time.RFC3339, b.Timestamp)
		if err != nil {
			continue
		}
		bars = append(bars, model.PriceBar{
			Timestamp: ts, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	return bars, nil
}

type alpacaQuoteResponse struct {
	Quote struct {
		AskPrice json.Number `json:"ap"`
		BidPrice json.Number `json:"bp"`
		Size     json.Number `json:"as"`
		Time     string      `json:"t"`
	} `json:"quote"`
}

// FetchQuote implements Source against Alpaca's latest-quote endpoint,
// tolerating its string-encoded numerics.
func (a *AlpacaSource) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	body, err := a.doRequest(ctx, fmt.Sprintf("/v2/stocks/%s/quotes/latest", symbol))
	if err != nil {
		return nil, err
	}
	var parsed alpacaQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("market: decoding alpaca quote: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, parsed.Quote.Time)
	if err != nil {
		ts = time.Now()
	}

	ask := parseOptionalFloat(parsed.Quote.AskPrice)
	bid := parseOptionalFloat(parsed.Quote.BidPrice)
	return &model.Quote{Symbol: symbol, Bid: bid, Ask: ask, Timestamp: ts}, nil
}

func parseOptionalFloat(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}
