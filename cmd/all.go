package cmd

import (
	_ "jilai-deployer/cmd/account"
	_ "jilai-deployer/cmd/calc"
	_ "jilai-deployer/cmd/deploy"
	_ "jilai-deployer/cmd/plan"
	_ "jilai-deployer/cmd/root"
	_ "jilai-deployer/cmd/runs"
	_ "jilai-deployer/cmd/server"
)
