package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal read-only ABIs for the platform contracts. The full ABIs ship with
// the frontend bundle; the mirror only ever issues these view calls.

const referralABIJSON = `[
  {"type":"function","name":"isMember","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getReferralInfo","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[
     {"name":"referrer","type":"address"},
     {"name":"directCount","type":"uint256"},
     {"name":"totalEarned","type":"uint256"},
     {"name":"level","type":"uint256"}]}
]`

const factoryABIJSON = `[
  {"type":"function","name":"getAllPools","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"address[]"}]}
]`

const poolABIJSON = `[
  {"type":"function","name":"getPoolInfo","stateMutability":"view",
   "inputs":[],
   "outputs":[
     {"name":"creator","type":"address"},
     {"name":"size","type":"uint256"},
     {"name":"contribution","type":"uint256"},
     {"name":"roundDuration","type":"uint256"},
     {"name":"startTime","type":"uint256"},
     {"name":"currentRound","type":"uint256"},
     {"name":"active","type":"bool"}]},
  {"type":"function","name":"getMembers","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"address[]"}]}
]`

const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint8"}]}
]`

var (
	referralABI = mustParseABI(referralABIJSON)
	factoryABI  = mustParseABI(factoryABIJSON)
	poolABI     = mustParseABI(poolABIJSON)
	erc20ABI    = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: bad embedded ABI: " + err.Error())
	}
	return parsed
}
