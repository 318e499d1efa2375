package deploy

import (
	"context"
	"fmt"

	"jilai-deployer/internal/chain"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/logger"
)

/**
 * Create the chain client for a run
 * @param {context.Context} ctx - Context for dialing the node
 * @param {*config.ChainConfig} cfg - Chain configuration
 * @param {bool} dryRun - Simulate creations instead of sending transactions
 * @returns {chain.Client} Client used by the orchestrator
 * @returns {func()} Releases the client
 * @description
 * - Dry runs use chain.account, or the address of chain.private_key when no account is set
 */
func newChainClient(ctx context.Context, cfg *config.ChainConfig, dryRun bool) (chain.Client, func(), error) {
	if dryRun {
		account := cfg.Account
		if account == "" && cfg.PrivateKey != "" {
			_, addr, err := chain.ParsePrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, nil, err
			}
			account = addr.Hex()
		}
		if account == "" {
			logger.Warn("No account configured, dry run deploys from the zero address")
		}
		client, err := chain.NewDryRun(account, 0)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}

	if cfg.PrivateKey == "" {
		return nil, nil, fmt.Errorf("private key is required, set PRIVATE_KEY or chain.private_key")
	}
	client, err := chain.DialEthereum(ctx, chain.EthereumConfig{
		RPCURL:           cfg.RPCURL,
		ChainID:          cfg.ChainID,
		PrivateKey:       cfg.PrivateKey,
		Artifacts:        cfg.Artifacts,
		UUPSProxy:        cfg.UUPSProxy,
		TransparentProxy: cfg.TransparentProxy,
		ProxyOwner:       cfg.ProxyOwner,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
