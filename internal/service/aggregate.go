package service

import (
	"math"
	"sort"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// moversCount is how many entries each movers list holds. With fewer than
// 2*moversCount entries the two lists may overlap; the source behavior is
// kept and no deduplication is applied.
const moversCount = 5

// displayFloorPct is the minimum display percentage for a chain whose summed
// value is zero. It affects only the visual share, never the reported
// (actual) percentage.
const displayFloorPct = 2.0

// SafeFloat coerces a missing or NaN numeric field to 0. Every aggregation
// that touches a numeric field goes through this, so malformed entries
// degrade to zero contributions instead of poisoning totals.
func SafeFloat(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

// SafeInt coerces a missing integer field to 0
func SafeInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// RiskBuckets partitions entries by risk level. Entries with unrecognized
// risk values are excluded from all buckets and from Total.
type RiskBuckets struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Total  int `json:"total"`
}

// ChainValue is the portfolio value summed for one chain.
// ActualPercentage is the chain's true share of the total;
// DisplayPercentage applies a small floor so zero-value chains remain
// visible in charts.
type ChainValue struct {
	Chain             types.ChainID `json:"chain"`
	Value             float64       `json:"value"`
	ActualPercentage  float64       `json:"actualPercentage"`
	DisplayPercentage float64       `json:"displayPercentage"`
}

// AggregateView holds portfolio-level aggregates over a user's watchlist
type AggregateView struct {
	TotalWallets        int                     `json:"totalWallets"`
	TotalValue          float64                 `json:"totalValue"`
	AvgHealthScore      float64                 `json:"avgHealthScore"`
	ActiveProtocols     int                     `json:"activeProtocols"`
	TotalProfitLoss30d  float64                 `json:"totalProfitLoss30d"`
	TotalGasFees30d     float64                 `json:"totalGasFees30d"`
	AvgSmartMoneyScore  float64                 `json:"avgSmartMoneyScore"`
	AvgNFTActivityScore float64                 `json:"avgNftActivityScore"`
	RiskBuckets         RiskBuckets             `json:"riskBuckets"`
	TopMovers           []*models.WatchedWallet `json:"topMovers"`
	BottomMovers        []*models.WatchedWallet `json:"bottomMovers"`
	ValueByChain        []ChainValue            `json:"valueByChain"`
}

// Aggregate computes portfolio-level aggregates for an already user-scoped
// entry collection. It is a pure function: no I/O, no failure path. An empty
// collection yields all-zero aggregates.
func Aggregate(entries []*models.WatchedWallet) *AggregateView {
	view := &AggregateView{
		TopMovers:    []*models.WatchedWallet{},
		BottomMovers: []*models.WatchedWallet{},
		ValueByChain: []ChainValue{},
	}

	if len(entries) == 0 {
		return view
	}

	view.TotalWallets = len(entries)

	var scoreSum, smartSum, nftSum float64
	for _, e := range entries {
		view.TotalValue += SafeFloat(e.PortfolioValue)
		view.ActiveProtocols += SafeInt(e.DefiProtocols)
		view.TotalProfitLoss30d += SafeFloat(e.ProfitLoss30d)
		view.TotalGasFees30d += SafeFloat(e.GasFees30d)
		scoreSum += float64(SafeInt(e.OverallScore))
		smartSum += SafeFloat(e.SmartMoneyScore)
		nftSum += SafeFloat(e.NFTActivityScore)

		switch e.RiskLevel {
		case types.RiskLow:
			view.RiskBuckets.Low++
		case types.RiskMedium:
			view.RiskBuckets.Medium++
		case types.RiskHigh:
			view.RiskBuckets.High++
		}
	}
	view.RiskBuckets.Total = view.RiskBuckets.Low + view.RiskBuckets.Medium + view.RiskBuckets.High

	count := float64(len(entries))
	view.AvgHealthScore = scoreSum / count
	view.AvgSmartMoneyScore = smartSum / count
	view.AvgNFTActivityScore = nftSum / count

	view.TopMovers, view.BottomMovers = movers(entries)
	view.ValueByChain = valueByChain(entries)

	return view
}

// movers returns the top and bottom performers by daily change. The sort is
// stable so ties keep input order; the bottom list is reversed so the least
// negative entry comes first.
func movers(entries []*models.WatchedWallet) (top, bottom []*models.WatchedWallet) {
	sorted := make([]*models.WatchedWallet, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return SafeFloat(sorted[i].DailyChange) > SafeFloat(sorted[j].DailyChange)
	})

	n := len(sorted)
	topEnd := moversCount
	if topEnd > n {
		topEnd = n
	}
	top = append([]*models.WatchedWallet{}, sorted[:topEnd]...)

	bottomStart := n - moversCount
	if bottomStart < 0 {
		bottomStart = 0
	}
	tail := sorted[bottomStart:]
	bottom = make([]*models.WatchedWallet, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		bottom = append(bottom, tail[i])
	}

	return top, bottom
}

// valueByChain sums portfolio value per chain and derives both the actual
// share and the floored display share. Chains are listed by descending value.
func valueByChain(entries []*models.WatchedWallet) []ChainValue {
	sums := make(map[types.ChainID]float64)
	order := []types.ChainID{}

	for _, e := range entries {
		if _, seen := sums[e.Blockchain]; !seen {
			order = append(order, e.Blockchain)
		}
		sums[e.Blockchain] += SafeFloat(e.PortfolioValue)
	}

	var total float64
	for _, v := range sums {
		total += v
	}

	result := make([]ChainValue, 0, len(order))
	for _, chain := range order {
		value := sums[chain]
		cv := ChainValue{Chain: chain, Value: value}
		if total > 0 {
			cv.ActualPercentage = value / total * 100
			cv.DisplayPercentage = cv.ActualPercentage
			if value == 0 {
				cv.DisplayPercentage = displayFloorPct
			}
		}
		result = append(result, cv)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Value > result[j].Value
	})

	return result
}
