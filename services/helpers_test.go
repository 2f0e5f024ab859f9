package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mcmanyika/cashround-sub000/chain"
	"github.com/mcmanyika/cashround-sub000/database"
	"github.com/mcmanyika/cashround-sub000/handlers"
	"github.com/mcmanyika/cashround-sub000/services"
	"github.com/mcmanyika/cashround-sub000/utils"
)

const (
	userAddr    = "0x1111111111111111111111111111111111111111"
	creatorAddr = "0x2222222222222222222222222222222222222222"
	poolAddrA   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	poolAddrB   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// fakeChain is an in-memory ChainReader.
type fakeChain struct {
	members     map[common.Address]bool
	referrals   map[common.Address]chain.ReferralInfo
	pools       []common.Address
	poolInfos   map[common.Address]chain.PoolInfo
	poolMembers map[common.Address][]common.Address
	balances    map[common.Address]float64
	failPools   map[common.Address]bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		members:     map[common.Address]bool{},
		referrals:   map[common.Address]chain.ReferralInfo{},
		poolInfos:   map[common.Address]chain.PoolInfo{},
		poolMembers: map[common.Address][]common.Address{},
		balances:    map[common.Address]float64{},
		failPools:   map[common.Address]bool{},
	}
}

func (f *fakeChain) IsMember(_ context.Context, addr common.Address) (bool, error) {
	return f.members[addr], nil
}

func (f *fakeChain) ReferralInfo(_ context.Context, addr common.Address) (chain.ReferralInfo, error) {
	return f.referrals[addr], nil
}

func (f *fakeChain) AllPools(_ context.Context) ([]common.Address, error) {
	return f.pools, nil
}

func (f *fakeChain) PoolInfo(_ context.Context, pool common.Address) (chain.PoolInfo, error) {
	if f.failPools[pool] {
		return chain.PoolInfo{}, fmt.Errorf("rpc timeout")
	}
	return f.poolInfos[pool], nil
}

func (f *fakeChain) PoolMembers(_ context.Context, pool common.Address) ([]common.Address, error) {
	return f.poolMembers[pool], nil
}

func (f *fakeChain) TokenBalance(_ context.Context, addr common.Address) (float64, error) {
	return f.balances[addr], nil
}

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	chain *fakeChain
	sync  *services.SyncService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	fc := newFakeChain()
	syncService := services.NewSyncService(db, fc)
	price := &services.PriceClient{Fallback: 2.0, TTL: time.Minute, HTTPClient: utils.HTTPClient}

	app := fiber.New()
	guard := func(c *fiber.Ctx) error { return c.Next() }
	api := app.Group("/api")
	handlers.SetupUserRoutes(api, services.NewUserService(db), guard)
	handlers.SetupPoolRoutes(api, services.NewPoolService(db, syncService), guard)
	handlers.SetupActivityRoutes(api, syncService, services.NewAnalyticsService(db, price), guard)
	handlers.SetupSyncRoutes(api, syncService, price, guard)

	return &testEnv{app: app, db: db, chain: fc, sync: syncService}
}

func ledgerInput(address string, round int, amount float64, txHash *string) services.LedgerInput {
	return services.LedgerInput{Address: address, Round: round, Amount: amount, TxHash: txHash}
}
