package owl

import (
	"fmt"

	"github.com/owl-protocol/owl-go/pkg/curve"
)

// Config selects the group and names the server. The same Config must
// be used by the client, the server, and the wire codec for a
// deployment; serverId is hashed into pi and into every server-side
// proof challenge.
type Config struct {
	// Curve selects the group and its matched hash.
	Curve curve.ID

	// ServerID is the server identity string. Must be non-empty.
	ServerID string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := curve.New(c.Curve); err != nil {
		return err
	}
	if c.ServerID == "" {
		return fmt.Errorf("%w: empty server id", ErrInvalidArgument)
	}
	return nil
}

// suite bundles the group and identity shared by both protocol roles.
type suite struct {
	group    curve.Group
	serverID string
}

func newSuite(cfg Config) (*suite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := curve.New(cfg.Curve)
	if err != nil {
		return nil, err
	}
	return &suite{group: g, serverID: cfg.ServerID}, nil
}
