package chain

import (
	"context"

	"jilai-deployer/internal/models"
)

// CreateRequest asks the chain client to create one upgradeable module.
type CreateRequest struct {
	Module      string           `json:"module"`
	Factory     string           `json:"factory"`
	Args        []string         `json:"args"`
	Initializer string           `json:"initializer"`
	Kind        models.ProxyKind `json:"kind"`
}

// Receipt 模块创建确认结果
type Receipt struct {
	Address        string `json:"address"`
	Implementation string `json:"implementation,omitempty"`
	TxHash         string `json:"txHash,omitempty"`
	BlockNumber    uint64 `json:"blockNumber,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

/**
 * Chain client collaborator
 * @description
 * - CreateUpgradeableModule blocks until the proxy creation is confirmed or fails
 * - The created proxy delegates to a fresh implementation and runs the initializer exactly once
 * - CurrentAccount returns the identity signing creation requests
 * - Now returns the reference time (unix seconds) used for time-window arguments
 */
type Client interface {
	CreateUpgradeableModule(ctx context.Context, req CreateRequest) (Receipt, error)
	CurrentAccount(ctx context.Context) (string, error)
	Now(ctx context.Context) (int64, error)
}

var (
	_ Client = (*Ethereum)(nil)
	_ Client = (*DryRun)(nil)
)
