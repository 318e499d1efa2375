package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

/**
 * Chain client that never touches the network
 * @description
 * - Predicts the addresses a real run would produce from the deployer account and nonce
 * - Every module consumes two nonces: implementation first, then the proxy
 * - Records every request so callers can inspect the resolved initializer arguments
 */
type DryRun struct {
	mu       sync.Mutex
	account  common.Address
	nonce    uint64
	clock    func() time.Time
	requests []CreateRequest
}

func NewDryRun(account string, nonce uint64) (*DryRun, error) {
	addr := common.Address{}
	if account != "" {
		var err error
		if addr, err = ParseAddress(account); err != nil {
			return nil, err
		}
	}
	return &DryRun{account: addr, nonce: nonce, clock: time.Now}, nil
}

// WithClock replaces the wall clock used by Now and receipts.
func (d *DryRun) WithClock(clock func() time.Time) *DryRun {
	d.clock = clock
	return d
}

func (d *DryRun) CreateUpgradeableModule(ctx context.Context, req CreateRequest) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if req.Factory == "" {
		return Receipt{}, fmt.Errorf("factory is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	impl := crypto.CreateAddress(d.account, d.nonce)
	proxy := crypto.CreateAddress(d.account, d.nonce+1)
	d.nonce += 2
	d.requests = append(d.requests, req)

	return Receipt{
		Address:        proxy.Hex(),
		Implementation: impl.Hex(),
		Timestamp:      d.clock().Unix(),
	}, nil
}

func (d *DryRun) CurrentAccount(ctx context.Context) (string, error) {
	return d.account.Hex(), nil
}

func (d *DryRun) Now(ctx context.Context) (int64, error) {
	return d.clock().Unix(), nil
}

func (d *DryRun) Requests() []CreateRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]CreateRequest, len(d.requests))
	copy(out, d.requests)
	return out
}
