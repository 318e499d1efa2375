package config

import "jilai-deployer/internal/models"

// ETH/USD price feed on Sepolia
const DefaultPriceFeed = "0x694AA1769357215DE4FAC081bf1f309aDC325306"

// DefaultModules is the Jilai suite: token, airdrop, vesting and crowdsale, all UUPS.
func DefaultModules() []ModuleConfig {
	return []ModuleConfig{
		{
			Name: "JilaiToken",
			Kind: string(models.ProxyUUPS),
			Args: []ArgConfig{
				{Units: "2000000000", Decimals: 18},
			},
		},
		{
			Name: "JilaiAirdrop",
			Kind: string(models.ProxyUUPS),
		},
		{
			Name:      "JilaiVesting",
			Kind:      string(models.ProxyUUPS),
			DependsOn: []string{"JilaiToken"},
			Args: []ArgConfig{
				{Ref: "JilaiToken"},
			},
		},
		{
			Name:      "JilaiCrowdSale",
			Kind:      string(models.ProxyUUPS),
			DependsOn: []string{"JilaiToken", "JilaiVesting"},
			Args: []ArgConfig{
				{Ref: "JilaiToken"},
				{Ref: "JilaiVesting"},
				{Value: DefaultPriceFeed},
				// 开售/结束时间，需与合约 initialize 的参数列表一致
				{Timestamp: []models.DurationSpec{{Unit: "minutes", Value: 4}}},
				{Timestamp: []models.DurationSpec{{Unit: "minutes", Value: 4}, {Unit: "days", Value: 90}}},
			},
		},
	}
}
