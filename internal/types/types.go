// Package types provides common type definitions for the wallet watchdog system.
package types

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainSolana represents the Solana network
	ChainSolana ChainID = "solana"
	// ChainBitcoin represents the Bitcoin network
	ChainBitcoin ChainID = "bitcoin"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "polygon"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "arbitrum"
)

// SupportedChains lists every chain the analyzer accepts, in display order.
var SupportedChains = []ChainID{
	ChainEthereum,
	ChainSolana,
	ChainBitcoin,
	ChainPolygon,
	ChainArbitrum,
}

// IsValidChain reports whether the given chain identifier is supported
func IsValidChain(chain ChainID) bool {
	for _, c := range SupportedChains {
		if c == chain {
			return true
		}
	}
	return false
}

// ParseChainID normalizes a raw chain string, falling back to ethereum for
// unrecognized values. Bulk CSV imports rely on this fallback.
func ParseChainID(raw string) ChainID {
	chain := ChainID(raw)
	if IsValidChain(chain) {
		return chain
	}
	return ChainEthereum
}

// OwnershipTag classifies why a wallet is being tracked
type OwnershipTag string

const (
	// TagMyWallet marks a wallet owned by the user
	TagMyWallet OwnershipTag = "my_wallet"
	// TagResearchTarget marks a wallet tracked for research
	TagResearchTarget OwnershipTag = "research_target"
	// TagCompetitor marks a competitor's wallet
	TagCompetitor OwnershipTag = "competitor"
	// TagWhaleTracker marks a high-value wallet under observation
	TagWhaleTracker OwnershipTag = "whale_tracker"
	// TagDefiDegen marks a wallet with heavy DeFi activity
	TagDefiDegen OwnershipTag = "defi_degen"
	// TagNFTCollector marks a wallet with heavy NFT activity
	TagNFTCollector OwnershipTag = "nft_collector"
	// TagSmartMoney marks a wallet with a strong trading record
	TagSmartMoney OwnershipTag = "smart_money"
)

// ValidOwnershipTags lists every accepted ownership tag.
var ValidOwnershipTags = []OwnershipTag{
	TagMyWallet,
	TagResearchTarget,
	TagCompetitor,
	TagWhaleTracker,
	TagDefiDegen,
	TagNFTCollector,
	TagSmartMoney,
}

// IsValidOwnershipTag reports whether the given tag is recognized
func IsValidOwnershipTag(tag OwnershipTag) bool {
	for _, t := range ValidOwnershipTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseOwnershipTag normalizes a raw tag string, falling back to
// research_target for unrecognized values.
func ParseOwnershipTag(raw string) OwnershipTag {
	tag := OwnershipTag(raw)
	if IsValidOwnershipTag(tag) {
		return tag
	}
	return TagResearchTarget
}

// RiskLevel represents a wallet's derived risk classification
type RiskLevel string

const (
	// RiskLow represents a low-risk wallet
	RiskLow RiskLevel = "low"
	// RiskMedium represents a medium-risk wallet
	RiskMedium RiskLevel = "medium"
	// RiskHigh represents a high-risk wallet
	RiskHigh RiskLevel = "high"
)

// IsValidRiskLevel reports whether the given risk level is recognized.
// Entries with unrecognized risk levels are excluded from risk bucketing.
func IsValidRiskLevel(level RiskLevel) bool {
	return level == RiskLow || level == RiskMedium || level == RiskHigh
}

// PlanID represents a subscription plan tier
type PlanID string

const (
	// PlanFree is the default tier: limited reports, no watchlist
	PlanFree PlanID = "free"
	// PlanStarter is the entry paid tier
	PlanStarter PlanID = "starter"
	// PlanBuilder is the mid paid tier
	PlanBuilder PlanID = "builder"
	// PlanOperator is the upper-mid paid tier
	PlanOperator PlanID = "operator"
	// PlanPower is the high paid tier
	PlanPower PlanID = "power"
	// PlanEnterprise is the top paid tier
	PlanEnterprise PlanID = "enterprise"
)

// HealthBand buckets overall health scores for watchlist filtering
type HealthBand string

const (
	// HealthGood covers scores of 80 and above
	HealthGood HealthBand = "good"
	// HealthOkay covers scores from 70 to 79
	HealthOkay HealthBand = "okay"
	// HealthPoor covers scores below 70
	HealthPoor HealthBand = "poor"
	// HealthAll disables health filtering
	HealthAll HealthBand = "all"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
