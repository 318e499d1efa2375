package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
)

/**
 * Ethereum chain client configuration
 * @property {string} rpcURL - JSON-RPC endpoint
 * @property {int64} chainID - Expected chain id, 0 to take the node's
 * @property {string} privateKey - Deployer key, hex
 * @property {string} artifacts - Hardhat artifacts directory
 * @property {string} uupsProxy - Proxy artifact used for uups modules
 * @property {string} transparentProxy - Proxy artifact used for transparent modules
 * @property {string} proxyOwner - Owner of transparent proxies, defaults to the deployer
 */
type EthereumConfig struct {
	RPCURL           string
	ChainID          int64
	PrivateKey       string
	Artifacts        string
	UUPSProxy        string
	TransparentProxy string
	ProxyOwner       string
}

// Ethereum creates upgradeable modules over JSON-RPC with go-ethereum.
type Ethereum struct {
	cfg       EthereumConfig
	client    *ethclient.Client
	key       *ecdsa.PrivateKey
	account   common.Address
	owner     common.Address
	chainID   *big.Int
	artifacts *ArtifactStore
	clock     func() time.Time
}

/**
 * Connect to an Ethereum node
 * @param {context.Context} ctx - Context for the dial and chain id lookup
 * @param {EthereumConfig} cfg - Client configuration
 * @returns {*Ethereum} Connected client, Close it when done
 * @throws
 * - Invalid private key or proxy owner
 * - Dial failure
 * - Chain id mismatch between configuration and node
 */
func DialEthereum(ctx context.Context, cfg EthereumConfig) (*Ethereum, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	key, account, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	owner := account
	if cfg.ProxyOwner != "" {
		if owner, err = ParseAddress(cfg.ProxyOwner); err != nil {
			return nil, fmt.Errorf("proxy owner: %w", err)
		}
	}
	if cfg.UUPSProxy == "" {
		cfg.UUPSProxy = "ERC1967Proxy"
	}
	if cfg.TransparentProxy == "" {
		cfg.TransparentProxy = "TransparentUpgradeableProxy"
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if cfg.ChainID != 0 && remote.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainID, remote)
	}
	logger.Infof("Connected to chain %s as %s", remote, account.Hex())

	return &Ethereum{
		cfg:       cfg,
		client:    client,
		key:       key,
		account:   account,
		owner:     owner,
		chainID:   remote,
		artifacts: NewArtifactStore(cfg.Artifacts),
		clock:     time.Now,
	}, nil
}

func (e *Ethereum) Close() {
	e.client.Close()
}

func (e *Ethereum) CurrentAccount(ctx context.Context) (string, error) {
	return e.account.Hex(), nil
}

// Balance returns the deployer balance in wei and its pending nonce.
func (e *Ethereum) Balance(ctx context.Context) (*big.Int, uint64, error) {
	balance, err := e.client.BalanceAt(ctx, e.account, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("balance of %s: %w", e.account.Hex(), err)
	}
	nonce, err := e.client.PendingNonceAt(ctx, e.account)
	if err != nil {
		return nil, 0, fmt.Errorf("nonce of %s: %w", e.account.Hex(), err)
	}
	return balance, nonce, nil
}

func (e *Ethereum) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

// Now returns the later of the wall clock and the latest block time.
func (e *Ethereum) Now(ctx context.Context) (int64, error) {
	now := e.clock().Unix()
	header, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	if t := int64(header.Time); t > now {
		return t, nil
	}
	return now, nil
}

/**
 * Create an upgradeable proxy module
 * @param {context.Context} ctx - Context for transaction submission and receipt waits
 * @param {CreateRequest} req - Factory, resolved initializer arguments, initializer name and proxy kind
 * @returns {Receipt} Proxy address, implementation address, proxy transaction and block time
 * @description
 * - Loads the implementation artifact and encodes the initializer call
 * - Deploys the implementation, then the proxy pointing at it with the encoded call
 * - The proxy constructor runs the initializer, so it is invoked exactly once
 */
func (e *Ethereum) CreateUpgradeableModule(ctx context.Context, req CreateRequest) (Receipt, error) {
	impl, err := e.artifacts.Load(req.Factory)
	if err != nil {
		return Receipt{}, err
	}
	method, ok := impl.ABI.Methods[req.Initializer]
	if !ok {
		return Receipt{}, fmt.Errorf("%s has no initializer %q", impl.Name, req.Initializer)
	}
	args, err := CoerceArgs(method.Inputs, req.Args)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s.%s: %w", impl.Name, req.Initializer, err)
	}
	initData, err := impl.ABI.Pack(req.Initializer, args...)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode %s init: %w", impl.Name, err)
	}

	var proxyName string
	switch req.Kind {
	case models.ProxyUUPS, "":
		proxyName = e.cfg.UUPSProxy
	case models.ProxyTransparent:
		proxyName = e.cfg.TransparentProxy
	default:
		return Receipt{}, fmt.Errorf("unsupported proxy kind %q", req.Kind)
	}
	proxy, err := e.artifacts.Load(proxyName)
	if err != nil {
		return Receipt{}, err
	}

	implAddr, _, err := e.deploy(ctx, impl)
	if err != nil {
		return Receipt{}, err
	}
	logger.Debugf("%s implementation deployed to %s", impl.Name, implAddr.Hex())

	var params []interface{}
	if req.Kind == models.ProxyTransparent {
		params = []interface{}{implAddr, e.owner, initData}
	} else {
		params = []interface{}{implAddr, initData}
	}
	proxyAddr, tx, err := e.deploy(ctx, proxy, params...)
	if err != nil {
		return Receipt{}, err
	}

	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("wait %s proxy: %w", impl.Name, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("%s proxy deployment failed: %s", impl.Name, receipt.TxHash.Hex())
	}
	header, err := e.client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return Receipt{}, fmt.Errorf("block %s header: %w", receipt.BlockNumber, err)
	}

	return Receipt{
		Address:        proxyAddr.Hex(),
		Implementation: implAddr.Hex(),
		TxHash:         receipt.TxHash.Hex(),
		BlockNumber:    receipt.BlockNumber.Uint64(),
		Timestamp:      int64(header.Time),
	}, nil
}

func (e *Ethereum) deploy(ctx context.Context, a *Artifact, params ...interface{}) (common.Address, *types.Transaction, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx

	addr, tx, _, err := bind.DeployContract(opts, a.ABI, a.Bytecode, e.client, params...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploy %s: %w", a.Name, err)
	}
	logger.Debugf("%s creation submitted: %s", a.Name, tx.Hash().Hex())
	if _, err := bind.WaitDeployed(ctx, e.client, tx); err != nil {
		return common.Address{}, nil, fmt.Errorf("wait %s deployment: %w", a.Name, err)
	}
	return addr, tx, nil
}
