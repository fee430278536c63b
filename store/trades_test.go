package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/store"
)

func TestTradeRepo_CreateIsIdempotentOnClientOrderID(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewTradeRepo(db)
	now := time.Now()

	order := model.Order{
		ID: "ord-1", Symbol: "MNQ", AssetClass: model.Futures, Broker: "binance-futures",
		ClientOrderID: "client-1", Side: model.Buy, Quantity: 2, OrderType: model.OrderMarket,
		Status: model.OrderPending, CreatedAt: now, UpdatedAt: now,
	}

	first, err := repo.Create(order)
	require.NoError(t, err)
	require.Equal(t, "ord-1", first.ID)

	retry := order
	retry.ID = "ord-2"
	second, err := repo.Create(retry)
	require.NoError(t, err)
	require.Equal(t, "ord-1", second.ID, "retried client order id must resolve to the original row")
}

func TestTradeRepo_UpdateStatusAppendsHistory(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewTradeRepo(db)
	now := time.Now()

	order := model.Order{
		ID: "ord-3", Symbol: "MNQ", AssetClass: model.Futures, Broker: "binance-futures",
		ClientOrderID: "client-3", Side: model.Buy, Quantity: 2, OrderType: model.OrderMarket,
		Status: model.OrderPending, CreatedAt: now, UpdatedAt: now,
	}
	_, err := repo.Create(order)
	require.NoError(t, err)

	fillPrice := 15010.0
	filledAt := now.Add(time.Second)
	require.NoError(t, repo.UpdateStatus("ord-3", model.OrderFilled, 2, &fillPrice, &filledAt, filledAt))

	got, err := repo.Get("ord-3")
	require.NoError(t, err)
	require.Equal(t, model.OrderFilled, got.Status)
	require.Equal(t, 2.0, got.FilledQuantity)
	require.NotNil(t, got.AvgFillPrice)
	require.Equal(t, fillPrice, *got.AvgFillPrice)
}

func TestTradeRepo_BySymbolOrdersDescending(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewTradeRepo(db)
	base := time.Now()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(model.Order{
			ID: "ord-" + string(rune('a'+i)), Symbol: "MNQ", AssetClass: model.Futures, Broker: "binance-futures",
			ClientOrderID: "client-" + string(rune('a'+i)), Side: model.Buy, Quantity: 1, OrderType: model.OrderMarket,
			Status: model.OrderFilled, CreatedAt: base.Add(time.Duration(i) * time.Minute), UpdatedAt: base,
		})
		require.NoError(t, err)
	}

	out, err := repo.BySymbol("MNQ", 10)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.True(t, out[0].CreatedAt.After(out[1].CreatedAt))
	require.True(t, out[1].CreatedAt.After(out[2].CreatedAt))
}

func TestPositionRepo_UpsertAndDelete(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewPositionRepo(db)
	now := time.Now()

	pos := model.Position{
		Symbol: "MNQ", Broker: "binance-futures", AssetClass: model.Futures, Side: model.PositionLong,
		Quantity: 1, EntryPrice: 15000, CurrentPrice: 15100, MarketValue: 15100, UnrealizedPnl: 100, UpdatedAt: now,
	}
	require.NoError(t, repo.Upsert(pos))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 15100.0, all[0].CurrentPrice)

	pos.CurrentPrice = 15200
	require.NoError(t, repo.Upsert(pos))
	all, err = repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert on the same (symbol, broker) must replace, not duplicate")
	require.Equal(t, 15200.0, all[0].CurrentPrice)

	require.NoError(t, repo.Delete("MNQ", "binance-futures"))
	all, err = repo.All()
	require.NoError(t, err)
	require.Len(t, all, 0)
}
