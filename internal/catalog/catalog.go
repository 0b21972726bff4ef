// Package catalog is a read-through cache over the backend's drug
// directory. The kiosk shows a drug's name and image next to every line
// item; caching keeps those lookups off the backend's back.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apotheka/dispense-station/internal/dispense"
)

const keyPrefix = "drug:"

// Fetcher resolves a drug from the backend on a cache miss.
type Fetcher interface {
	FetchDrug(ctx context.Context, drugCode string) (*dispense.Drug, error)
}

type Service interface {
	Get(ctx context.Context, drugCode string) (*dispense.Drug, error)
}

type service struct {
	rdb     *redis.Client
	fetcher Fetcher
	ttl     time.Duration
	log     *slog.Logger
}

// New builds the cache. rdb may be nil, in which case every lookup goes to
// the backend.
func New(rdb *redis.Client, fetcher Fetcher, ttl time.Duration, log *slog.Logger) Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{rdb: rdb, fetcher: fetcher, ttl: ttl, log: log}
}

func (s *service) Get(ctx context.Context, drugCode string) (*dispense.Drug, error) {
	key := keyPrefix + drugCode

	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var d dispense.Drug
			if err := json.Unmarshal(raw, &d); err == nil {
				return &d, nil
			}
			// Unreadable cache entry; fall through to the backend.
		case !errors.Is(err, redis.Nil):
			s.log.Debug("catalog cache read failed", "drug_code", drugCode, "err", err)
		}
	}

	d, err := s.fetcher.FetchDrug(ctx, drugCode)
	if err != nil {
		return nil, fmt.Errorf("fetch drug %s: %w", drugCode, err)
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(d); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.log.Debug("catalog cache write failed", "drug_code", drugCode, "err", err)
			}
		}
	}

	return d, nil
}
