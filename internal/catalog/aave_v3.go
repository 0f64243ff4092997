package catalog

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// aaveV3PoolABIJSON holds the event fragment of the Aave V3 Pool ABI.
const aaveV3PoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "backer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"}
    ],
    "name": "BackUnbacked",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "onBehalfOf", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "enum DataTypes.InterestRateMode", "name": "interestRateMode", "type": "uint8"},
      {"indexed": false, "internalType": "uint256", "name": "borrowRate", "type": "uint256"},
      {"indexed": true, "internalType": "uint16", "name": "referralCode", "type": "uint16"}
    ],
    "name": "Borrow",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "target", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "initiator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "enum DataTypes.InterestRateMode", "name": "interestRateMode", "type": "uint8"},
      {"indexed": false, "internalType": "uint256", "name": "premium", "type": "uint256"},
      {"indexed": true, "internalType": "uint16", "name": "referralCode", "type": "uint16"}
    ],
    "name": "FlashLoan",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "totalDebt", "type": "uint256"}
    ],
    "name": "IsolationModeTotalDebtUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "collateralAsset", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "debtAsset", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "debtToCover", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "liquidatedCollateralAmount", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "liquidator", "type": "address"},
      {"indexed": false, "internalType": "bool", "name": "receiveAToken", "type": "bool"}
    ],
    "name": "LiquidationCall",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "onBehalfOf", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": true, "internalType": "uint16", "name": "referralCode", "type": "uint16"}
    ],
    "name": "MintUnbacked",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountMinted", "type": "uint256"}
    ],
    "name": "MintedToTreasury",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "repayer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "bool", "name": "useATokens", "type": "bool"}
    ],
    "name": "Repay",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "liquidityRate", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "stableBorrowRate", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "variableBorrowRate", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "liquidityIndex", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "variableBorrowIndex", "type": "uint256"}
    ],
    "name": "ReserveDataUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "ReserveUsedAsCollateralDisabled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "ReserveUsedAsCollateralEnabled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "onBehalfOf", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": true, "internalType": "uint16", "name": "referralCode", "type": "uint16"}
    ],
    "name": "Supply",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": false, "internalType": "uint8", "name": "categoryId", "type": "uint8"}
    ],
    "name": "UserEModeSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "reserve", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "Withdraw",
    "type": "event"
  }
]`

var (
	aaveV3PoolABIOnce sync.Once
	aaveV3PoolABI     abi.ABI
	aaveV3PoolABIErr  error
)

func loadAaveV3PoolABI() (abi.ABI, error) {
	aaveV3PoolABIOnce.Do(func() {
		aaveV3PoolABI, aaveV3PoolABIErr = abi.JSON(strings.NewReader(aaveV3PoolABIJSON))
	})
	return aaveV3PoolABI, aaveV3PoolABIErr
}

// aaveV3ActiveUserFields lists the address fields that identify the
// participants of each pool event.
var aaveV3ActiveUserFields = map[string][]string{
	"Borrow":                          {"onBehalfOf", "user"},
	"Supply":                          {"onBehalfOf", "user"},
	"Repay":                           {"user", "repayer"},
	"Withdraw":                        {"user", "to"},
	"LiquidationCall":                 {"user", "liquidator"},
	"FlashLoan":                       {"initiator", "target"},
	"UserEModeSet":                    {"user"},
	"ReserveUsedAsCollateralEnabled":  {"user"},
	"ReserveUsedAsCollateralDisabled": {"user"},
	"BackUnbacked":                    {"backer"},
	"MintUnbacked":                    {"onBehalfOf", "user"},
}

// AaveV3Pool returns the catalog of the 14 Aave V3 Pool events.
func AaveV3Pool() (*Catalog, error) {
	parsed, err := loadAaveV3PoolABI()
	if err != nil {
		return nil, err
	}
	cat, err := fromABI(parsed)
	if err != nil {
		return nil, err
	}
	cat.ActiveUserFields = DefaultActiveUserFields()
	return cat, nil
}

// DefaultActiveUserFields returns a copy of the Aave V3 participant fields.
func DefaultActiveUserFields() map[string][]string {
	out := make(map[string][]string, len(aaveV3ActiveUserFields))
	for kind, fields := range aaveV3ActiveUserFields {
		out[kind] = append([]string(nil), fields...)
	}
	return out
}
