// Package chain identifies the EVM-compatible networks sieve can connect to
// and the per-chain RPC endpoints used to reach them.
package chain

import "fmt"

// Chain names a network sieve can ingest data from.
type Chain int

const (
	Ethereum Chain = iota
	Optimism
	Base
)

func (c Chain) String() string {
	switch c {
	case Ethereum:
		return "ethereum"
	case Optimism:
		return "optimism"
	case Base:
		return "base"
	default:
		return fmt.Sprintf("chain(%d)", int(c))
	}
}

// Config holds the per-chain connection parameters used to reach a node.
// An empty RPCURL disables ingestion for the chain: the gateway skips it
// rather than failing the whole connect call.
type Config struct {
	Chain  Chain
	RPCURL string
	WSURL  string
	Peers  []string
}

// ConfigBuilder assembles a Config with a small fluent API, mirroring the
// rest of sieve's builder surface.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder starts a Config for the given chain.
func NewConfigBuilder(c Chain) *ConfigBuilder {
	return &ConfigBuilder{cfg: Config{Chain: c}}
}

func (b *ConfigBuilder) RPC(url string) *ConfigBuilder {
	b.cfg.RPCURL = url
	return b
}

func (b *ConfigBuilder) WS(url string) *ConfigBuilder {
	b.cfg.WSURL = url
	return b
}

func (b *ConfigBuilder) BootstrapPeers(peers ...string) *ConfigBuilder {
	b.cfg.Peers = append(b.cfg.Peers, peers...)
	return b
}

// Build returns the assembled Config. Unlike the reference implementation
// this never panics on a missing URL: Config.RPCURL == "" simply means the
// chain is disabled when passed to Sieve.Connect.
func (b *ConfigBuilder) Build() Config {
	return b.cfg
}
