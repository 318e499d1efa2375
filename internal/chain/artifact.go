package chain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a compiled contract as emitted by hardhat (artifacts/**/<Name>.sol/<Name>.json).
type Artifact struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte
}

type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// ArtifactStore 从编译产物目录读取合约ABI与字节码
type ArtifactStore struct {
	root  string
	mu    sync.Mutex
	cache map[string]*Artifact
}

func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{root: root, cache: make(map[string]*Artifact)}
}

/**
 * Load a compiled contract by name
 * @param {string} name - Contract name, e.g. "JilaiToken"
 * @returns {*Artifact} Parsed ABI and creation bytecode
 * @returns {error} ErrArtifactNotFound, parse errors, or unusable bytecode
 * @description
 * - Searches the artifact root recursively for <name>.json, skipping build-info and debug files
 * - Rejects abstract contracts (empty bytecode) and bytecode that still needs library linking
 */
func (s *ArtifactStore) Load(name string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.cache[name]; ok {
		return a, nil
	}

	path, err := s.find(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	a, err := parseArtifact(name, data)
	if err != nil {
		return nil, err
	}
	a.Path = path
	s.cache[name] = a
	return a, nil
}

func (s *ArtifactStore) find(name string) (string, error) {
	want := name + ".json"
	var found string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan artifacts in %s: %w", s.root, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s under %s", ErrArtifactNotFound, name, s.root)
	}
	return found, nil
}

func parseArtifact(name string, data []byte) (*Artifact, error) {
	var raw artifactFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal artifact %s: %w", name, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi of %s: %w", name, err)
	}
	if strings.Contains(raw.Bytecode, "__$") {
		return nil, fmt.Errorf("artifact %s requires library linking", name)
	}
	code := common.FromHex(raw.Bytecode)
	if len(code) == 0 {
		return nil, fmt.Errorf("artifact %s has no bytecode", name)
	}
	if raw.ContractName != "" {
		name = raw.ContractName
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}
