package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// ResultCache stores the computed cells of one molecule for one ordered
// descriptor selection. Entries are keyed by the canonical descriptor keys
// and the input SMILES, so a different selection never hits another's entry.
type ResultCache struct {
	cache Cache
	ttl   time.Duration
	log   logging.Logger
}

func NewResultCache(cache Cache, ttl time.Duration, log logging.Logger) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ResultCache{cache: cache, ttl: ttl, log: log}
}

// ResultKey derives the cache key for a selection and a SMILES string.
func ResultKey(descriptorKeys []string, smiles string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(descriptorKeys, ",")))
	h.Write([]byte("\n"))
	h.Write([]byte(strings.TrimSpace(smiles)))
	return "result:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached cells. ok is false on a miss.
func (c *ResultCache) Get(ctx context.Context, descriptorKeys []string, smiles string) ([]descriptor.Cell, bool, error) {
	var cells []descriptor.Cell
	err := c.cache.Get(ctx, ResultKey(descriptorKeys, smiles), &cells)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(cells) != len(descriptorKeys) {
		c.log.Warn("discarding result cache entry with wrong width",
			logging.Int("want", len(descriptorKeys)), logging.Int("got", len(cells)))
		return nil, false, nil
	}
	return cells, true, nil
}

// Put stores cells. Cells carrying a per-descriptor error are cached too.
// Callers never pass rows that failed on a timeout or a toolkit query.
func (c *ResultCache) Put(ctx context.Context, descriptorKeys []string, smiles string, cells []descriptor.Cell) error {
	return c.cache.Set(ctx, ResultKey(descriptorKeys, smiles), cells, c.ttl)
}

// Invalidate removes every cached result.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	return c.cache.DeleteByPrefix(ctx, "result:")
}

//Personal.AI order the ending
