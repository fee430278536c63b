package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	futures "github.com/adshao/go-binance/v2/futures"

	"github.com/synapsestrike/tradeengine/model"
)

// BinanceFuturesSource fetches futures bars and quotes through
// go-binance/v2/futures.
type BinanceFuturesSource struct {
	client *futures.Client
}

// NewBinanceFuturesSource builds a futures Source; an empty key/secret
// is valid for public market-data endpoints.
func NewBinanceFuturesSource(apiKey, apiSecret string) *BinanceFuturesSource {
	return &BinanceFuturesSource{client: futures.NewClient(apiKey, apiSecret)}
}

func binanceInterval(tf string) string {
	switch tf {
	case "1m", "5m", "15m", "30m", "1h", "4h", "1d":
		return tf
	default:
		return "5m"
	}
}

// FetchHistoricalData implements Source over Binance USD-M futures
// klines.
func (s *BinanceFuturesSource) FetchHistoricalData(ctx context.Context, symbol, timeframe string, params HistoricalParams) ([]model.PriceBar, error) {
	limit := params.Limit
	if limit <= 0 || limit > 1500 {
		limit = 200
	}
	svc := s.client.NewKlinesService().Symbol(symbol).Interval(binanceInterval(timeframe)).Limit(limit)
	if params.StartTime != nil {
		svc = svc.StartTime(params.StartTime.UnixMilli())
	}
	if params.EndTime != nil {
		svc = svc.EndTime(params.EndTime.UnixMilli())
	}
	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("market: binance klines: %w", err)
	}

	bars := make([]model.PriceBar, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		close, _ := strconv.ParseFloat(k.Close, 64)
		vol, _ := strconv.ParseFloat(k.Volume, 64)
		bars = append(bars, model.PriceBar{
			Timestamp: time.UnixMilli(k.OpenTime), Open: open, High: high, Low: low, Close: close, Volume: vol,
		})
	}
	return bars, nil
}

// FetchQuote implements Source over Binance's book-ticker endpoint.
func (s *BinanceFuturesSource) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	tickers, err := s.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("market: binance book ticker: %w", err)
	}
	if len(tickers) == 0 {
		return nil, nil
	}
	t := tickers[0]
	bid, _ := strconv.ParseFloat(t.BidPrice, 64)
	ask, _ := strconv.ParseFloat(t.AskPrice, 64)
	return &model.Quote{Symbol: symbol, Bid: &bid, Ask: &ask, Timestamp: time.Now()}, nil
}
