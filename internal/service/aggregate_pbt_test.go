package service

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

func genWatchedWallet() gopter.Gen {
	chains := []types.ChainID{
		types.ChainEthereum, types.ChainSolana, types.ChainBitcoin,
		types.ChainPolygon, types.ChainArbitrum,
	}
	risks := []types.RiskLevel{types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskLevel("bogus")}

	return gopter.CombineGens(
		gen.IntRange(0, 4),
		gen.IntRange(0, 3),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-100, 100),
		gen.Bool(),
	).Map(func(vals []interface{}) *models.WatchedWallet {
		w := &models.WatchedWallet{
			Blockchain: chains[vals[0].(int)],
			RiskLevel:  risks[vals[1].(int)],
			IsActive:   true,
		}
		if vals[4].(bool) {
			value := math.Abs(vals[2].(float64))
			change := vals[3].(float64)
			w.PortfolioValue = &value
			w.DailyChange = &change
		}
		return w
	})
}

func TestAggregateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	entriesGen := gen.SliceOf(genWatchedWallet())

	properties.Property("risk buckets never exceed the wallet count", prop.ForAll(
		func(entries []*models.WatchedWallet) bool {
			view := Aggregate(entries)
			sum := view.RiskBuckets.Low + view.RiskBuckets.Medium + view.RiskBuckets.High
			return sum == view.RiskBuckets.Total && sum <= view.TotalWallets
		},
		entriesGen,
	))

	properties.Property("movers hold at most five entries each", prop.ForAll(
		func(entries []*models.WatchedWallet) bool {
			view := Aggregate(entries)
			limit := len(entries)
			if limit > moversCount {
				limit = moversCount
			}
			return len(view.TopMovers) == limit && len(view.BottomMovers) == limit
		},
		entriesGen,
	))

	properties.Property("top movers are sorted by descending daily change", prop.ForAll(
		func(entries []*models.WatchedWallet) bool {
			view := Aggregate(entries)
			for i := 1; i < len(view.TopMovers); i++ {
				if SafeFloat(view.TopMovers[i-1].DailyChange) < SafeFloat(view.TopMovers[i].DailyChange) {
					return false
				}
			}
			return true
		},
		entriesGen,
	))

	properties.Property("aggregates never produce NaN", prop.ForAll(
		func(entries []*models.WatchedWallet) bool {
			view := Aggregate(entries)
			return !math.IsNaN(view.TotalValue) &&
				!math.IsNaN(view.AvgHealthScore) &&
				!math.IsNaN(view.AvgSmartMoneyScore)
		},
		entriesGen,
	))

	properties.Property("actual chain percentages sum to 100 for nonzero totals", prop.ForAll(
		func(entries []*models.WatchedWallet) bool {
			view := Aggregate(entries)
			if view.TotalValue == 0 {
				return true
			}
			var sum float64
			for _, cv := range view.ValueByChain {
				sum += cv.ActualPercentage
			}
			return math.Abs(sum-100) < 1e-6
		},
		entriesGen,
	))

	properties.TestingRun(t)
}
