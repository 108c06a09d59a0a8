// Package cache はリポジトリインターフェースのキャッシュ実装を提供します。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"habit_backend/internal/feature/stats/domain/entity"
	"habit_backend/internal/feature/stats/usecase"
)

// CachingStatsRepository は StatsRepository を Redis のリードスルーキャッシュで包みます。
// client が nil の場合はキャッシュしません。
type CachingStatsRepository struct {
	inner     usecase.StatsRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.StatsRepository = (*CachingStatsRepository)(nil)

// NewCachingStatsRepository は inner を包んだリポジトリを生成します。ttl が 0 なら5分、namespace が空なら "stats" を使います。
func NewCachingStatsRepository(rdb *redis.Client, ttl time.Duration, inner usecase.StatsRepository, namespace string) *CachingStatsRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "stats"
	}
	return &CachingStatsRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// genKey は利用者ごとの世代番号のキーです。Invalidate のたびに進める。
func (c *CachingStatsRepository) genKey(userID uint) string {
	return c.namespace + ":" + strconv.FormatUint(uint64(userID), 10) + ":gen"
}

// cacheKey は世代ごとの集計キーです。古い世代のキーは TTL で消える。
func (c *CachingStatsRepository) cacheKey(userID uint, gen int64) string {
	return c.namespace + ":" + strconv.FormatUint(uint64(userID), 10) + ":" + strconv.FormatInt(gen, 10)
}

// CompletionCounts はキャッシュがあればそれを返し、無ければ集計して書き戻します。
// 書き戻し先はクエリ前に読んだ世代のキーなので、Invalidate と競合した書き戻しは
// 二度と読まれないキーに入ります。Redis のエラー時は DB の結果をそのまま返します。
func (c *CachingStatsRepository) CompletionCounts(ctx context.Context, owner uint) ([]entity.HabitCount, error) {
	if c.rdb == nil {
		return c.inner.CompletionCounts(ctx, owner)
	}

	gen, err := c.rdb.Get(ctx, c.genKey(owner)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Debug("stats cache generation read failed", "user_id", owner, "error", err)
		return c.inner.CompletionCounts(ctx, owner)
	}
	key := c.cacheKey(owner, gen)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.HabitCount
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 壊れたエントリは削除
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.CompletionCounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Debug("stats cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

// Invalidate は userID の世代を進め、既存のキャッシュをすべて無効にします。
func (c *CachingStatsRepository) Invalidate(ctx context.Context, userID uint) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, c.genKey(userID)).Err()
}
