package registry

// AssetClass buckets assets for loan sizing and confidence scoring.
type AssetClass int

const (
	ClassStable AssetClass = iota
	ClassSOLLike
	ClassETHLike
	ClassBTCLike
	ClassOther
)

func (c AssetClass) String() string {
	switch c {
	case ClassStable:
		return "stable"
	case ClassSOLLike:
		return "sol"
	case ClassETHLike:
		return "eth"
	case ClassBTCLike:
		return "btc"
	default:
		return "other"
	}
}

var assetClasses = map[string]AssetClass{
	"USDC":    ClassStable,
	"USDT":    ClassStable,
	"DAI":     ClassStable,
	"USDH":    ClassStable,
	"SOL":     ClassSOLLike,
	"WSOL":    ClassSOLLike,
	"MSOL":    ClassSOLLike,
	"JITOSOL": ClassSOLLike,
	"ETH":     ClassETHLike,
	"WETH":    ClassETHLike,
	"BTC":     ClassBTCLike,
	"WBTC":    ClassBTCLike,
}

// Default loan sizes per asset class, in units of the borrowed asset.
var defaultLoanSizes = map[AssetClass]float64{
	ClassStable:  10000,
	ClassSOLLike: 250,
	ClassETHLike: 25,
	ClassBTCLike: 2,
	ClassOther:   1000,
}

// ClassOf returns the asset class for a given asset identifier.
func ClassOf(asset string) AssetClass {
	if c, ok := assetClasses[asset]; ok {
		return c
	}
	return ClassOther
}

// DefaultLoanSize returns the default flash-loan size for an asset, before
// capping at the selected provider's maximum.
func DefaultLoanSize(asset string) float64 {
	return defaultLoanSizes[ClassOf(asset)]
}

// IsMajorAsset reports whether the asset belongs to one of the recognized
// high-liquidity classes.
func IsMajorAsset(asset string) bool {
	return ClassOf(asset) != ClassOther
}
