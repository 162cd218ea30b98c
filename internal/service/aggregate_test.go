package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func watchedWallet(chain types.ChainID, value, change float64, risk types.RiskLevel) *models.WatchedWallet {
	return &models.WatchedWallet{
		WalletAddress:  "0x" + string(chain),
		Blockchain:     chain,
		RiskLevel:      risk,
		PortfolioValue: floatPtr(value),
		DailyChange:    floatPtr(change),
		IsActive:       true,
	}
}

func TestAggregate_Empty(t *testing.T) {
	view := Aggregate(nil)

	assert.Equal(t, 0, view.TotalWallets)
	assert.Zero(t, view.TotalValue)
	assert.Zero(t, view.AvgHealthScore)
	assert.NotNil(t, view.TopMovers)
	assert.Empty(t, view.TopMovers)
	assert.NotNil(t, view.ValueByChain)
	assert.Empty(t, view.ValueByChain)
}

func TestAggregate_MissingFieldsCoerceToZero(t *testing.T) {
	nan := math.NaN()
	entries := []*models.WatchedWallet{
		{Blockchain: types.ChainEthereum, RiskLevel: types.RiskLow},
		{Blockchain: types.ChainSolana, RiskLevel: types.RiskLow, PortfolioValue: &nan},
		{
			Blockchain:     types.ChainEthereum,
			RiskLevel:      types.RiskLow,
			PortfolioValue: floatPtr(100),
			OverallScore:   intPtr(90),
			DefiProtocols:  intPtr(4),
		},
	}

	view := Aggregate(entries)

	assert.Equal(t, 3, view.TotalWallets)
	assert.Equal(t, 100.0, view.TotalValue, "nil and NaN values count as zero")
	assert.Equal(t, 4, view.ActiveProtocols)
	assert.InDelta(t, 30.0, view.AvgHealthScore, 1e-9, "missing scores average as zero")
	assert.False(t, math.IsNaN(view.TotalValue))
}

func TestAggregate_RiskBuckets(t *testing.T) {
	entries := []*models.WatchedWallet{
		watchedWallet(types.ChainEthereum, 10, 0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 10, 0, types.RiskLow),
		watchedWallet(types.ChainSolana, 10, 0, types.RiskMedium),
		watchedWallet(types.ChainBitcoin, 10, 0, types.RiskHigh),
		watchedWallet(types.ChainPolygon, 10, 0, types.RiskLevel("unknown")),
	}

	view := Aggregate(entries)

	assert.Equal(t, 2, view.RiskBuckets.Low)
	assert.Equal(t, 1, view.RiskBuckets.Medium)
	assert.Equal(t, 1, view.RiskBuckets.High)
	assert.Equal(t, 4, view.RiskBuckets.Total, "unrecognized risk levels stay out of every bucket")
	assert.Equal(t, 5, view.TotalWallets)
}

func TestAggregate_Movers(t *testing.T) {
	entries := []*models.WatchedWallet{
		watchedWallet(types.ChainEthereum, 1, 5.0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, -3.0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, 12.5, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, 0.5, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, -8.0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, 2.0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, 9.0, types.RiskLow),
	}

	view := Aggregate(entries)

	require.Len(t, view.TopMovers, 5)
	require.Len(t, view.BottomMovers, 5)

	assert.Equal(t, 12.5, *view.TopMovers[0].DailyChange)
	assert.Equal(t, 9.0, *view.TopMovers[1].DailyChange)

	// Bottom list is reversed: least negative first, worst last
	assert.Equal(t, 2.0, *view.BottomMovers[4].DailyChange)
	assert.Equal(t, -8.0, *view.BottomMovers[0].DailyChange)
}

func TestAggregate_MoversFewerThanFive(t *testing.T) {
	entries := []*models.WatchedWallet{
		watchedWallet(types.ChainEthereum, 1, 3.0, types.RiskLow),
		watchedWallet(types.ChainEthereum, 1, -1.0, types.RiskLow),
	}

	view := Aggregate(entries)

	assert.Len(t, view.TopMovers, 2)
	assert.Len(t, view.BottomMovers, 2)
	assert.Equal(t, 3.0, *view.TopMovers[0].DailyChange)
	assert.Equal(t, -1.0, *view.BottomMovers[0].DailyChange)
}

func TestAggregate_MoversStableOnTies(t *testing.T) {
	a := watchedWallet(types.ChainEthereum, 1, 2.0, types.RiskLow)
	a.Nickname = "first"
	b := watchedWallet(types.ChainEthereum, 1, 2.0, types.RiskLow)
	b.Nickname = "second"

	view := Aggregate([]*models.WatchedWallet{a, b})

	assert.Equal(t, "first", view.TopMovers[0].Nickname, "equal daily changes keep input order")
	assert.Equal(t, "second", view.TopMovers[1].Nickname)
}

func TestValueByChain_Percentages(t *testing.T) {
	entries := []*models.WatchedWallet{
		watchedWallet(types.ChainEthereum, 750, 0, types.RiskLow),
		watchedWallet(types.ChainSolana, 250, 0, types.RiskLow),
		watchedWallet(types.ChainBitcoin, 0, 0, types.RiskLow),
	}

	view := Aggregate(entries)
	require.Len(t, view.ValueByChain, 3)

	eth := view.ValueByChain[0]
	assert.Equal(t, types.ChainEthereum, eth.Chain)
	assert.InDelta(t, 75.0, eth.ActualPercentage, 1e-9)
	assert.InDelta(t, 75.0, eth.DisplayPercentage, 1e-9)

	btc := view.ValueByChain[2]
	assert.Equal(t, types.ChainBitcoin, btc.Chain)
	assert.Zero(t, btc.ActualPercentage)
	assert.Equal(t, displayFloorPct, btc.DisplayPercentage, "zero-value chains get the display floor")
}

func TestValueByChain_AllZeroNoFloor(t *testing.T) {
	entries := []*models.WatchedWallet{
		watchedWallet(types.ChainEthereum, 0, 0, types.RiskLow),
		watchedWallet(types.ChainSolana, 0, 0, types.RiskLow),
	}

	view := Aggregate(entries)
	require.Len(t, view.ValueByChain, 2)
	for _, cv := range view.ValueByChain {
		assert.Zero(t, cv.ActualPercentage)
		assert.Zero(t, cv.DisplayPercentage, "a zero total portfolio gets no floor")
	}
}

func TestSafeFloat(t *testing.T) {
	nan := math.NaN()
	assert.Zero(t, SafeFloat(nil))
	assert.Zero(t, SafeFloat(&nan))
	assert.Equal(t, 1.5, SafeFloat(floatPtr(1.5)))
}

func TestSafeInt(t *testing.T) {
	assert.Zero(t, SafeInt(nil))
	assert.Equal(t, 7, SafeInt(intPtr(7)))
}
