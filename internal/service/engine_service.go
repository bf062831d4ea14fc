package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/repository"
	"github.com/modelhub-io/modelhub-api/pkg/config"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

// EngineService talks to the external model-checking engine. The engine
// is deterministic for identical input, so verdicts are cached in Redis
// keyed by a digest of the query and the component description.
type EngineService struct {
	client  *http.Client
	addr    string
	cache   *repository.CacheRepository
	cfg     config.EngineConfig
	metrics *MetricsService
	logger  *zap.Logger
}

type engineRequest struct {
	Query          string          `json:"query"`
	ComponentsInfo json.RawMessage `json:"components_info"`
}

type engineResponse struct {
	Result json.RawMessage `json:"result"`
}

// NewEngineService constructs an EngineService instance.
func NewEngineService(cfg config.EngineConfig, cache *repository.CacheRepository, metrics *MetricsService, logger *zap.Logger) *EngineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineService{
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		addr:    cfg.Addr,
		cache:   cache,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckQuery runs a verification query against the engine and returns
// the raw verdict.
func (s *EngineService) CheckQuery(ctx context.Context, query string, componentsInfo json.RawMessage) (json.RawMessage, error) {
	key := resultCacheKey(query, componentsInfo)

	var cached json.RawMessage
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.IncCacheHit()
			return cached, nil
		}
		s.metrics.IncCacheMiss()
	}

	payload, err := json.Marshal(engineRequest{Query: query, ComponentsInfo: componentsInfo})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode engine request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.addr+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to build engine request")
	}
	req.Header.Set("Content-Type", "application/json")

	timer := s.metrics.EngineTimer()
	resp, err := s.client.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return nil, appErrors.Internal(err, "engine request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read engine response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Internal(fmt.Errorf("engine returned status %d: %s", resp.StatusCode, body), "engine rejected query")
	}

	var decoded engineResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, appErrors.Internal(err, "failed to decode engine response")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, decoded.Result, s.cfg.ResultCacheTTL); err != nil {
			s.logger.Warn("failed to cache engine verdict", zap.Error(err))
		}
	}
	return decoded.Result, nil
}

func resultCacheKey(query string, componentsInfo json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(componentsInfo)
	return "engine:verdict:" + hex.EncodeToString(h.Sum(nil))
}
