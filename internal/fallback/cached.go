package fallback

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
)

type cachedResultKey struct{}

// CacheHit reports whether the most recent Generate on ctx was served from
// cache. It only works for contexts prepared with WithCacheReport.
func CacheHit(ctx context.Context) bool {
	flag, ok := ctx.Value(cachedResultKey{}).(*bool)
	return ok && *flag
}

// WithCacheReport returns a context on which CachingGenerator records hits.
func WithCacheReport(ctx context.Context) context.Context {
	var hit bool
	return context.WithValue(ctx, cachedResultKey{}, &hit)
}

// CachingGenerator serves repeated fallback queries from a TTL cache.
// Keys cover the namespace (provider and model), the system prompt, the token
// budget and the normalized query, so cosmetic differences in the query share
// an entry.
type CachingGenerator struct {
	next      Generator
	client    cache.Client
	ttl       time.Duration
	namespace string
	logger    *observability.Logger
}

// NewCachingGenerator wraps next with client.
func NewCachingGenerator(next Generator, client cache.Client, ttl time.Duration, namespace string, logger *observability.Logger) *CachingGenerator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CachingGenerator{
		next:      next,
		client:    client,
		ttl:       ttl,
		namespace: namespace,
		logger:    logger.WithComponent("fallback_cache"),
	}
}

// Generate returns a cached answer when present; otherwise it calls the
// wrapped generator and stores a successful answer. Cache failures never fail
// the request.
func (g *CachingGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	key := g.key(systemPrompt, userQuery, maxOutputTokens)

	cached, err := g.client.Get(ctx, key)
	switch {
	case err == nil:
		if flag, ok := ctx.Value(cachedResultKey{}).(*bool); ok {
			*flag = true
		}
		g.logger.WithContext(ctx).Debug().Str("key", key).Msg("Fallback cache hit")
		return string(cached), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		g.logger.WithContext(ctx).Warn().Err(err).Msg("Fallback cache read failed")
	}

	answer, err := g.next.Generate(ctx, systemPrompt, userQuery, maxOutputTokens)
	if err != nil {
		return "", err
	}

	if err := g.client.Set(ctx, key, []byte(answer), g.ttl); err != nil {
		g.logger.WithContext(ctx).Warn().Err(err).Msg("Fallback cache write failed")
	}
	return answer, nil
}

func (g *CachingGenerator) key(systemPrompt, userQuery string, maxOutputTokens int) string {
	return AnswerCacheKey(g.namespace, systemPrompt, maxOutputTokens, userQuery)
}

// CacheNamespace scopes cached answers to one provider and model.
func CacheNamespace(cfg config.FallbackConfig) string {
	return cache.CacheKey(cfg.Provider, cfg.Model)
}

// AnswerCacheKey is the key a generated answer is stored under.
func AnswerCacheKey(namespace, systemPrompt string, maxOutputTokens int, userQuery string) string {
	return cache.CacheKey(
		namespace,
		cache.HashKey(systemPrompt),
		strconv.Itoa(maxOutputTokens),
		cache.HashKey(matching.Normalize(userQuery)),
	)
}

// CacheInvalidator removes cached answers for one provider and model.
type CacheInvalidator struct {
	client          cache.Client
	namespace       string
	systemPrompt    string
	maxOutputTokens int
	logger          *observability.Logger
}

// NewCacheInvalidator targets the entries CachingGenerator writes for cfg.
func NewCacheInvalidator(client cache.Client, cfg config.FallbackConfig, logger *observability.Logger) *CacheInvalidator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CacheInvalidator{
		client:          client,
		namespace:       CacheNamespace(cfg),
		systemPrompt:    cfg.SystemPrompt,
		maxOutputTokens: cfg.MaxOutputTokens,
		logger:          logger.WithComponent("fallback_cache"),
	}
}

// Namespace returns the provider:model scope being invalidated.
func (c *CacheInvalidator) Namespace() string {
	return c.namespace
}

// Forget drops the cached answer for query, so the next ask regenerates it.
func (c *CacheInvalidator) Forget(ctx context.Context, query string) error {
	key := AnswerCacheKey(c.namespace, c.systemPrompt, c.maxOutputTokens, query)
	if err := c.client.Delete(ctx, key); err != nil {
		return domain.IOError("delete cached answer", err)
	}
	c.logger.WithContext(ctx).Info().Query(query).Msg("Cached answer removed")
	return nil
}

// Purge drops every cached answer in the namespace.
func (c *CacheInvalidator) Purge(ctx context.Context) error {
	if err := c.client.DeleteByPrefix(ctx, c.namespace+":"); err != nil {
		return domain.IOError("purge cached answers", err)
	}
	c.logger.WithContext(ctx).Info().Str("namespace", c.namespace).Msg("Cached answers purged")
	return nil
}
