package account

import (
	"context"
	"fmt"
	"math/big"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/chain"
	"jilai-deployer/internal/config"

	"github.com/spf13/cobra"
)

var withBalance bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "显示部署账户",
	Long:  "显示 PRIVATE_KEY 对应的部署地址, 加 --balance 时连接节点查询余额和 nonce",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showAccount(cmd.Context(), &config.Config.Chain)
	},
}

func showAccount(ctx context.Context, cfg *config.ChainConfig) error {
	if cfg.PrivateKey == "" {
		if cfg.Account == "" {
			return fmt.Errorf("no account configured, set PRIVATE_KEY or chain.account")
		}
		addr, err := chain.ParseAddress(cfg.Account)
		if err != nil {
			return err
		}
		fmt.Printf("Account: %s (no private key, dry runs only)\n", addr.Hex())
		return nil
	}

	_, addr, err := chain.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return err
	}
	fmt.Printf("Account: %s\n", addr.Hex())
	if !withBalance {
		return nil
	}

	client, err := chain.DialEthereum(ctx, chain.EthereumConfig{
		RPCURL:     cfg.RPCURL,
		ChainID:    cfg.ChainID,
		PrivateKey: cfg.PrivateKey,
		Artifacts:  cfg.Artifacts,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	balance, nonce, err := client.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Network: %s (chain id %s)\n", cfg.Network, client.ChainID())
	fmt.Printf("Balance: %s ETH\n", formatEther(balance))
	fmt.Printf("Nonce:   %d\n", nonce)
	return nil
}

func formatEther(wei *big.Int) string {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	return f.Text('f', 6)
}

func init() {
	accountCmd.Flags().BoolVarP(&withBalance, "balance", "b", false, "查询余额和 nonce")
	root.RootCmd.AddCommand(accountCmd)
}
