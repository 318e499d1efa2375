package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jilai-deployer/internal/chain"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/state"
)

// fakeClient hands out sequential addresses and fails on request.
type fakeClient struct {
	mu       sync.Mutex
	now      int64
	account  string
	failOn   string
	named    map[string]string
	failErr  error
	nowCalls int
	created  []chain.CreateRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{now: 1000000, account: "0x00000000000000000000000000000000000000aa"}
}

func (f *fakeClient) CreateUpgradeableModule(ctx context.Context, req chain.CreateRequest) (chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Module == f.failOn {
		if f.failErr != nil {
			return chain.Receipt{}, f.failErr
		}
		return chain.Receipt{}, errors.New("execution reverted")
	}
	f.created = append(f.created, req)
	n := len(f.created)
	addr := fmt.Sprintf("0x%040d", n)
	if a, ok := f.named[req.Module]; ok {
		addr = a
	}
	return chain.Receipt{
		Address:   addr,
		TxHash:    "0xtx" + strconv.Itoa(n),
		Timestamp: f.now,
	}, nil
}

func (f *fakeClient) CurrentAccount(ctx context.Context) (string, error) {
	return f.account, nil
}

func (f *fakeClient) Now(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowCalls++
	return f.now, nil
}

func (f *fakeClient) createdNames() []string {
	names := make([]string, len(f.created))
	for i, r := range f.created {
		names[i] = r.Module
	}
	return names
}

func jilaiPlan(t *testing.T) *models.DeploymentPlan {
	t.Helper()
	cfg := config.AppConfig{Modules: config.DefaultModules()}
	specs, err := cfg.ModuleSpecs()
	require.NoError(t, err)
	plan, err := ResolvePlan(specs)
	require.NoError(t, err)
	return plan
}

func TestExecuteWiresEarlierAddresses(t *testing.T) {
	specs := []models.ModuleSpec{
		{Name: "A"},
		{Name: "B"},
		{Name: "C"},
		{
			Name:      "D",
			DependsOn: []string{"A", "B", "C"},
			Args:      []models.ArgSlot{models.AddressOf("A"), models.AddressOf("B"), models.AddressOf("C")},
		},
	}
	plan, err := ResolvePlan(specs)
	require.NoError(t, err)

	client := newFakeClient()
	var out bytes.Buffer
	results, err := NewOrchestrator(client, WithProgress(&out)).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, m := range results {
		assert.Equal(t, i+1, m.Position)
		assert.NotEmpty(t, m.Address)
	}
	assert.Equal(t, []string{results[0].Address, results[1].Address, results[2].Address}, results[3].Args)
	assert.Equal(t, results[3].Args, client.created[3].Args)
	assert.Contains(t, out.String(), "D deployed to: "+results[3].Address+"\n")
}

func TestExecuteJilaiSuite(t *testing.T) {
	client := newFakeClient()
	var out bytes.Buffer
	results, err := NewOrchestrator(client, WithProgress(&out)).Execute(context.Background(), jilaiPlan(t))
	require.NoError(t, err)
	require.Len(t, results, 4)

	run := &models.Run{Modules: results}
	token, _ := run.Address("JilaiToken")
	vesting, _ := run.Address("JilaiVesting")

	var crowdsale models.DeployedModule
	for _, m := range results {
		if m.Name == "JilaiCrowdSale" {
			crowdsale = m
		}
		if m.Name == "JilaiVesting" {
			assert.Equal(t, []string{token}, m.Args)
		}
		if m.Name == "JilaiToken" {
			assert.Equal(t, []string{"2000000000000000000000000000"}, m.Args)
		}
	}
	require.Len(t, crowdsale.Args, 5)
	assert.Equal(t, []string{token, vesting, config.DefaultPriceFeed}, crowdsale.Args[:3])
	assert.Equal(t, "1000240", crowdsale.Args[3])
	assert.Equal(t, "8776240", crowdsale.Args[4])

	// one now() per module carrying timestamp slots
	assert.Equal(t, 1, client.nowCalls)

	for _, req := range client.created {
		assert.Equal(t, models.ProxyUUPS, req.Kind)
		assert.Equal(t, "initialize", req.Initializer)
	}
	assert.Equal(t, 4, bytes.Count(out.Bytes(), []byte(" deployed to: ")))
}

func TestExecuteCrowdsaleReceivesTokenAndVesting(t *testing.T) {
	const priceFeed = "0x694AA1769357215DE4FAC081bf1f309aDC325306"
	plan, err := ResolvePlan([]models.ModuleSpec{
		{Name: "Crowdsale", DependsOn: []string{"Token", "Vesting"}, Args: []models.ArgSlot{
			models.AddressOf("Token"), models.AddressOf("Vesting"), models.Literal(priceFeed),
		}},
		{Name: "Vesting", DependsOn: []string{"Token"}, Args: []models.ArgSlot{models.AddressOf("Token")}},
		{Name: "Token"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Token", "Vesting", "Crowdsale"}, plan.Names())

	client := newFakeClient()
	client.named = map[string]string{"Token": "A", "Vesting": "B"}
	_, err = NewOrchestrator(client).Execute(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, client.created, 3)
	assert.Equal(t, []string{"A"}, client.created[1].Args)
	assert.Equal(t, []string{"A", "B", priceFeed}, client.created[2].Args)
	assert.Zero(t, client.nowCalls)
}

func TestExecuteHaltsOnFailure(t *testing.T) {
	client := newFakeClient()
	client.failOn = "JilaiVesting"

	var notified []string
	plan := jilaiPlan(t)
	results, err := NewOrchestrator(client,
		WithProgress(&bytes.Buffer{}),
		OnDeployed(func(m models.DeployedModule) { notified = append(notified, m.Name) }),
	).Execute(context.Background(), plan)

	var failed *models.DeploymentFailedError
	require.True(t, errors.As(err, &failed))
	k := plan.Index("JilaiVesting") + 1
	assert.Equal(t, "JilaiVesting", failed.Module)
	assert.Equal(t, k, failed.Position)
	assert.Equal(t, 4, failed.Total)
	assert.Len(t, results, k-1)
	assert.Len(t, failed.Deployed, k-1)
	assert.Equal(t, notified, client.createdNames())
	assert.NotContains(t, client.createdNames(), "JilaiCrowdSale")

	var clientErr *models.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, "create", clientErr.Op)
	assert.Contains(t, err.Error(), "execution reverted")
	assert.Len(t, failed.ResumeAddresses(), k-1)
}

func TestExecuteResumeSkipsRecordedModules(t *testing.T) {
	plan := jilaiPlan(t)

	first := newFakeClient()
	first.failOn = "JilaiCrowdSale"
	_, err := NewOrchestrator(first, WithProgress(&bytes.Buffer{})).Execute(context.Background(), plan)
	var failed *models.DeploymentFailedError
	require.True(t, errors.As(err, &failed))

	resume := state.New("sepolia")
	for name, addr := range failed.ResumeAddresses() {
		resume.Modules[name] = addr
	}

	second := newFakeClient()
	var out bytes.Buffer
	results, err := NewOrchestrator(second, WithProgress(&out), WithResume(resume)).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"JilaiCrowdSale"}, second.createdNames())

	for _, m := range results {
		if m.Name == "JilaiCrowdSale" {
			assert.False(t, m.Resumed)
			assert.Equal(t, resume.Modules["JilaiToken"], m.Args[0])
			assert.Equal(t, resume.Modules["JilaiVesting"], m.Args[1])
			continue
		}
		assert.True(t, m.Resumed, m.Name)
		assert.Equal(t, resume.Modules[m.Name], m.Address)
	}
	assert.Contains(t, out.String(), "JilaiToken already deployed at: "+resume.Modules["JilaiToken"])
}

func TestExecuteExternalModules(t *testing.T) {
	specs := []models.ModuleSpec{
		{Name: "sale", DependsOn: []string{"token"}, Args: []models.ArgSlot{models.AddressOf("token"), models.Account()}},
	}
	plan, err := ResolvePlan(specs, WithExternal("token"))
	require.NoError(t, err)

	client := newFakeClient()
	_, err = NewOrchestrator(client, WithProgress(&bytes.Buffer{})).Execute(context.Background(), plan)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	assert.Empty(t, client.created)

	resume := state.New("sepolia")
	resume.Modules["token"] = "0x1111111111111111111111111111111111111111"
	results, err := NewOrchestrator(client, WithProgress(&bytes.Buffer{}), WithResume(resume)).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{resume.Modules["token"], client.account}, results[0].Args)
}

func TestExecuteStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newFakeClient()
	results, err := NewOrchestrator(client, WithProgress(&bytes.Buffer{})).Execute(ctx, jilaiPlan(t))
	assert.Empty(t, results)
	assert.Empty(t, client.created)
	var failed *models.DeploymentFailedError
	require.True(t, errors.As(err, &failed))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecuteWithDryRunClient(t *testing.T) {
	client, err := chain.NewDryRun("0x00000000000000000000000000000000000000aa", 0)
	require.NoError(t, err)

	results, err := NewOrchestrator(client, WithProgress(&bytes.Buffer{})).Execute(context.Background(), jilaiPlan(t))
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := map[string]bool{}
	for _, m := range results {
		assert.False(t, seen[m.Address], "duplicate address %s", m.Address)
		seen[m.Address] = true
	}
	assert.Len(t, client.Requests(), 4)
}
