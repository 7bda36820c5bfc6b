package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"

	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/logging"
)

const defaultCacheTTL = 30 * time.Second

// EtcdRegistry stores profiles as JSON under a key prefix in etcd
type EtcdRegistry struct {
	client   *clientv3.Client
	prefix   string
	cache    *profileCache
	logger   *logging.Logger
	ownsConn bool
	now      func() time.Time
}

// NewEtcdRegistry connects to etcd. The dial blocks until a connection is
// made or DialTimeout expires.
func NewEtcdRegistry(cfg config.EtcdConfig, logger *logging.Logger) (*EtcdRegistry, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialOptions: []grpc.DialOption{grpc.WithBlock()}, //nolint:staticcheck // fail fast at startup
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	r := newEtcdRegistryWithClient(client, cfg.Prefix, logger)
	r.ownsConn = true
	return r, nil
}

func newEtcdRegistryWithClient(client *clientv3.Client, prefix string, logger *logging.Logger) *EtcdRegistry {
	if logger == nil {
		logger = logging.Global()
	}
	if prefix == "" {
		prefix = "/packscale/profiles/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &EtcdRegistry{
		client: client,
		prefix: prefix,
		cache:  newProfileCache(defaultCacheTTL),
		logger: logger.With("component", "profile_registry", "backend", "etcd"),
		now:    time.Now,
	}
}

func (r *EtcdRegistry) key(backpack string) string {
	return path.Join(r.prefix, backpack)
}

// Get returns the profile of backpack, served from the cache when fresh
func (r *EtcdRegistry) Get(ctx context.Context, backpack string) (*Profile, error) {
	if p, ok := r.cache.get(backpack); ok {
		return p, nil
	}

	resp, err := r.client.Get(ctx, r.key(backpack))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, backpack)
	}

	var p Profile
	if err := json.Unmarshal(resp.Kvs[0].Value, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	r.cache.set(p)
	return &p, nil
}

// Put validates p and writes it through to etcd and the cache
func (r *EtcdRegistry) Put(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	stored := *p
	stored.Default = false
	stored.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if _, err := r.client.Put(ctx, r.key(p.Backpack), string(data)); err != nil {
		return fmt.Errorf("failed to store profile in etcd: %w", err)
	}
	r.cache.set(stored)
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the profile of backpack, or returns ErrNotFound
func (r *EtcdRegistry) Delete(ctx context.Context, backpack string) error {
	resp, err := r.client.Delete(ctx, r.key(backpack))
	if err != nil {
		return fmt.Errorf("failed to delete profile from etcd: %w", err)
	}
	r.cache.delete(backpack)
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, backpack)
	}
	return nil
}

// List returns every stored profile ordered by backpack code. Values that
// fail to decode are logged and skipped.
func (r *EtcdRegistry) List(ctx context.Context) ([]*Profile, error) {
	resp, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles from etcd: %w", err)
	}

	r.cache.sweep()
	out := make([]*Profile, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var p Profile
		if err := json.Unmarshal(kv.Value, &p); err != nil {
			r.logger.Warn("Skipping undecodable profile", "key", string(kv.Key), "error", err)
			continue
		}
		r.cache.set(p)
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Backpack < out[j].Backpack })
	return out, nil
}

// Close closes the etcd client when the registry created it
func (r *EtcdRegistry) Close() error {
	if r.ownsConn {
		return r.client.Close()
	}
	return nil
}
