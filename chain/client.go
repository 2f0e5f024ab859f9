package chain

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ReferralInfo is the referral contract's view of one account.
type ReferralInfo struct {
	Referrer    common.Address
	DirectCount int
	TotalEarned float64 // token units
	Level       int
}

// PoolInfo is the aggregate state of one MUKANDO pool contract.
type PoolInfo struct {
	Creator       common.Address
	Size          int
	Contribution  float64 // per-round amount in token units
	RoundDuration int64   // seconds
	StartTime     int64   // unix epoch
	CurrentRound  int
	Active        bool
}

// Client wraps read calls to the three platform contracts plus the payment
// token behind typed helpers. All methods honor ctx; a hung RPC is cancelable
// by the caller.
type Client struct {
	eth      *ethclient.Client
	referral common.Address
	factory  common.Address
	token    common.Address

	mu             sync.Mutex
	decimals       uint8
	decimalsLoaded bool
}

// NewClient dials the RPC endpoint. Dialing is lazy; the first contract read
// surfaces connectivity errors.
func NewClient(rpcURL, referralAddr, factoryAddr, tokenAddr string) (*Client, error) {
	for name, a := range map[string]string{
		"referral": referralAddr,
		"factory":  factoryAddr,
		"token":    tokenAddr,
	} {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("invalid %s contract address %q", name, a)
		}
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %q: %w", rpcURL, err)
	}

	return &Client{
		eth:      eth,
		referral: common.HexToAddress(referralAddr),
		factory:  common.HexToAddress(factoryAddr),
		token:    common.HexToAddress(tokenAddr),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// IsMember reports whether the address has joined the referral tree.
func (c *Client) IsMember(ctx context.Context, addr common.Address) (bool, error) {
	vals, err := c.call(ctx, c.referral, referralABI, "isMember", addr)
	if err != nil {
		return false, err
	}
	return vals[0].(bool), nil
}

// ReferralInfo reads the inviter edge and payment totals for an address.
func (c *Client) ReferralInfo(ctx context.Context, addr common.Address) (ReferralInfo, error) {
	vals, err := c.call(ctx, c.referral, referralABI, "getReferralInfo", addr)
	if err != nil {
		return ReferralInfo{}, err
	}

	earned, err := c.tokenUnits(ctx, vals[2].(*big.Int))
	if err != nil {
		return ReferralInfo{}, err
	}

	return ReferralInfo{
		Referrer:    vals[0].(common.Address),
		DirectCount: int(vals[1].(*big.Int).Int64()),
		TotalEarned: earned,
		Level:       int(vals[3].(*big.Int).Int64()),
	}, nil
}

// AllPools enumerates every pool the factory has deployed.
func (c *Client) AllPools(ctx context.Context) ([]common.Address, error) {
	vals, err := c.call(ctx, c.factory, factoryABI, "getAllPools")
	if err != nil {
		return nil, err
	}
	return vals[0].([]common.Address), nil
}

// PoolInfo reads the aggregate parameters and rotation position of one pool.
func (c *Client) PoolInfo(ctx context.Context, pool common.Address) (PoolInfo, error) {
	vals, err := c.call(ctx, pool, poolABI, "getPoolInfo")
	if err != nil {
		return PoolInfo{}, err
	}

	contribution, err := c.tokenUnits(ctx, vals[2].(*big.Int))
	if err != nil {
		return PoolInfo{}, err
	}

	return PoolInfo{
		Creator:       vals[0].(common.Address),
		Size:          int(vals[1].(*big.Int).Int64()),
		Contribution:  contribution,
		RoundDuration: vals[3].(*big.Int).Int64(),
		StartTime:     vals[4].(*big.Int).Int64(),
		CurrentRound:  int(vals[5].(*big.Int).Int64()),
		Active:        vals[6].(bool),
	}, nil
}

// PoolMembers returns the pool's member list; index order is payout order.
func (c *Client) PoolMembers(ctx context.Context, pool common.Address) ([]common.Address, error) {
	vals, err := c.call(ctx, pool, poolABI, "getMembers")
	if err != nil {
		return nil, err
	}
	return vals[0].([]common.Address), nil
}

// TokenBalance reads the payment-token balance of an address in token units.
func (c *Client) TokenBalance(ctx context.Context, addr common.Address) (float64, error) {
	vals, err := c.call(ctx, c.token, erc20ABI, "balanceOf", addr)
	if err != nil {
		return 0, err
	}
	return c.tokenUnits(ctx, vals[0].(*big.Int))
}

func (c *Client) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s on %s: %w", method, to.Hex(), err)
	}

	vals, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return vals, nil
}

// tokenUnits scales a raw uint256 amount by the token's decimals. Decimals are
// fetched once and cached; a failed fetch is retried on the next call.
func (c *Client) tokenUnits(ctx context.Context, raw *big.Int) (float64, error) {
	dec, err := c.tokenDecimals(ctx)
	if err != nil {
		return 0, err
	}
	scaled, _ := new(big.Float).Quo(
		new(big.Float).SetInt(raw),
		big.NewFloat(math.Pow10(int(dec))),
	).Float64()
	return scaled, nil
}

func (c *Client) tokenDecimals(ctx context.Context) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.decimalsLoaded {
		return c.decimals, nil
	}

	vals, err := c.call(ctx, c.token, erc20ABI, "decimals")
	if err != nil {
		return 0, fmt.Errorf("token decimals: %w", err)
	}

	c.decimals = vals[0].(uint8)
	c.decimalsLoaded = true
	return c.decimals, nil
}
