// Package config parses the bootstrap file a deployment uses to seed a
// manager, its rate limiter buckets and its aggregator's transceiver
// wiring in one pass, instead of issuing each RegisterPeer,
// SetRateLimit/SetRateDuration and AddTransceiver call by hand.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Bootstrap is the top-level bootstrap file shape.
type Bootstrap struct {
	Manager      ManagerConfig       `toml:"manager"`
	Peers        []PeerConfig        `toml:"peer"`
	Buckets      []BucketConfig      `toml:"bucket"`
	Transceivers []TransceiverConfig `toml:"transceiver"`
}

// ManagerConfig seeds Manager.Initialise.
type ManagerConfig struct {
	LocalChain    uint16 `toml:"local_chain"`
	LocalDecimals uint8  `toml:"local_decimals"`
	HandlerID     string `toml:"handler_id"`
	Admin         string `toml:"admin"`
}

// PeerConfig seeds one Manager.RegisterPeer call.
type PeerConfig struct {
	Chain    uint16 `toml:"chain"`
	Contract string `toml:"contract"`
	Decimals uint8  `toml:"decimals"`
}

// BucketConfig sets the rate limit and duration of one of the unlimited
// buckets Initialise and RegisterPeer already bootstrap; it does not
// create new buckets. Direction is either "outbound" or "inbound"; Chain
// is only meaningful for inbound.
type BucketConfig struct {
	Direction    string `toml:"direction"`
	Chain        uint16 `toml:"chain"`
	RateLimit    uint64 `toml:"rate_limit"`
	RateDuration uint64 `toml:"rate_duration"`
}

// TransceiverConfig seeds one Aggregator.AddTransceiver call.
type TransceiverConfig struct {
	TransceiverID string `toml:"transceiver_id"`
}

// Load parses a TOML bootstrap file's contents.
func Load(data []byte) (*Bootstrap, error) {
	var b Bootstrap
	if _, err := toml.Decode(string(data), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Address32 decodes a hex-encoded 32-byte address field, accepting an
// optional "0x" prefix.
func Address32(s string) ([32]byte, error) {
	var out [32]byte
	s = trimHexPrefix(s)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("config: address %q is not 32 bytes", s)
	}
	copy(out[:], raw)
	return out, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
