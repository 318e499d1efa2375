package env

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var Verbose bool = false

// (default: %USERPROFILE%/.jilai-deployer on Windows, $HOME/.jilai-deployer on Linux)
var DeployerDir string = GetDeployerDir()

/**
 * Get deployer home directory path
 * @returns {string} Returns deployer directory path
 */
func GetDeployerDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".jilai-deployer")
}

/**
 * Load .env.local and .env from the working directory
 * @returns {error} Returns error if a present file cannot be parsed
 * @description
 * - Variables already set in the process environment win over the files
 * - Missing files are ignored
 * - Typical content: RPC, PRIVATE_KEY
 */
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// 构建时通过 -ldflags 注入
var Version string = "dev"
