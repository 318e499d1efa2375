package chain

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jilai-deployer/internal/models"
)

func TestDryRunAddresses(t *testing.T) {
	account := "0x00000000000000000000000000000000000000aa"
	d, err := NewDryRun(account, 7)
	require.NoError(t, err)
	d.WithClock(func() time.Time { return time.Unix(1000000, 0) })

	ctx := context.Background()
	got, err := d.CurrentAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(account).Hex(), got)

	now, err := d.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), now)

	first, err := d.CreateUpgradeableModule(ctx, CreateRequest{Module: "JilaiToken", Factory: "JilaiToken", Kind: models.ProxyUUPS})
	require.NoError(t, err)
	second, err := d.CreateUpgradeableModule(ctx, CreateRequest{Module: "JilaiAirdrop", Factory: "JilaiAirdrop", Kind: models.ProxyUUPS})
	require.NoError(t, err)

	acct := common.HexToAddress(account)
	assert.Equal(t, crypto.CreateAddress(acct, 7).Hex(), first.Implementation)
	assert.Equal(t, crypto.CreateAddress(acct, 8).Hex(), first.Address)
	assert.Equal(t, crypto.CreateAddress(acct, 10).Hex(), second.Address)
	assert.Equal(t, int64(1000000), first.Timestamp)
	assert.Len(t, d.Requests(), 2)
}

func TestDryRunRejects(t *testing.T) {
	_, err := NewDryRun("nope", 0)
	assert.Error(t, err)

	d, err := NewDryRun("", 0)
	require.NoError(t, err)
	_, err = d.CreateUpgradeableModule(context.Background(), CreateRequest{Module: "x"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.CreateUpgradeableModule(ctx, CreateRequest{Module: "x", Factory: "X"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Requests())
}

func TestParsePrivateKey(t *testing.T) {
	// well-known hardhat account #0
	key := "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	_, addr, err := ParsePrivateKey(key)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr.Hex())

	_, _, err = ParsePrivateKey("")
	assert.Error(t, err)
	_, _, err = ParsePrivateKey("0x1234")
	assert.Error(t, err)
}
