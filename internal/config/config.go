// Package config resolves the per-environment chain constants the keeper
// runs against.
package config

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/archon-research/keeper/internal/pkg/env"
)

//go:embed environments.yaml
var defaultEnvironments []byte

// Environment holds the contract addresses and endpoints of one deployment.
type Environment struct {
	Name          string `yaml:"-"`
	ChainID       int64  `yaml:"chainId"`
	Router        string `yaml:"router"`
	Pyth          string `yaml:"pyth"`
	Multicall     string `yaml:"multicall"`
	GraphEndpoint string `yaml:"graphEndpoint"`
	GasPriceWei   int64  `yaml:"gasPriceWei"`
	GasLimit      uint64 `yaml:"gasLimit"`
}

// RouterAddress returns the settlement router.
func (e Environment) RouterAddress() common.Address {
	return common.HexToAddress(e.Router)
}

// PythAddress returns the price feed contract that charges update fees.
func (e Environment) PythAddress() common.Address {
	return common.HexToAddress(e.Pyth)
}

// MulticallAddress returns the Multicall3 deployment.
func (e Environment) MulticallAddress() common.Address {
	return common.HexToAddress(e.Multicall)
}

func (e Environment) validate() error {
	if e.ChainID <= 0 {
		return fmt.Errorf("environment %s: chainId must be positive", e.Name)
	}
	for field, addr := range map[string]string{"router": e.Router, "pyth": e.Pyth, "multicall": e.Multicall} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("environment %s: %s address %q is invalid", e.Name, field, addr)
		}
	}
	if e.GraphEndpoint == "" {
		return fmt.Errorf("environment %s: graphEndpoint must not be empty", e.Name)
	}
	return nil
}

// Parse decodes an environments document.
func Parse(data []byte) (map[string]Environment, error) {
	var envs map[string]Environment
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}
	for name, e := range envs {
		e.Name = name
		envs[name] = e
	}
	return envs, nil
}

// Load returns the named environment from the embedded table with ROUTER,
// PYTH, MULTICALL, GRAPH_ENDPOINT and CHAIN_ID overrides applied.
func Load(name string) (Environment, error) {
	envs, err := Parse(defaultEnvironments)
	if err != nil {
		return Environment{}, err
	}
	return resolve(envs, name)
}

func resolve(envs map[string]Environment, name string) (Environment, error) {
	e, ok := envs[name]
	if !ok {
		names := make([]string, 0, len(envs))
		for n := range envs {
			names = append(names, n)
		}
		sort.Strings(names)
		return Environment{}, fmt.Errorf("unknown environment %q (known: %v)", name, names)
	}

	e.Router = env.Get("ROUTER", e.Router)
	e.Pyth = env.Get("PYTH", e.Pyth)
	e.Multicall = env.Get("MULTICALL", e.Multicall)
	e.GraphEndpoint = env.Get("GRAPH_ENDPOINT", e.GraphEndpoint)
	chainID, err := env.GetInt("CHAIN_ID", int(e.ChainID))
	if err != nil {
		return Environment{}, err
	}
	e.ChainID = int64(chainID)

	if err := e.validate(); err != nil {
		return Environment{}, err
	}
	return e, nil
}
