package profiles

import (
	"fmt"

	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/logging"
)

// NewRegistry creates the registry selected by cfg.Backend
func NewRegistry(cfg config.ProfilesConfig, logger *logging.Logger) (Registry, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryRegistry(), nil
	case "etcd":
		return NewEtcdRegistry(cfg.Etcd, logger)
	default:
		return nil, fmt.Errorf("unsupported profile backend: %s", cfg.Backend)
	}
}
