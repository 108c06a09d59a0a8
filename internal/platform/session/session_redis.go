// Package session はリフレッシュセッションを Redis に保存します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"habit_backend/internal/feature/auth/domain/entity"
	"habit_backend/internal/feature/auth/usecase"
)

// ErrAlreadyExpired は期限切れのセッションを保存しようとした場合に返されます。
var ErrAlreadyExpired = errors.New("session already expired")

// SessionRedis は usecase.SessionRepository の Redis 実装です。
// セッションは TTL 付きの JSON 文字列で、<prefix>:user:<id> は作成時刻をスコアにした
// ユーザーごとのセッションIDのソート済みセットです。
type SessionRedis struct {
	client redis.UniversalClient
	prefix string
}

var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis は prefix をキー接頭辞とする SessionRedis を生成します。
func NewSessionRedis(client redis.UniversalClient, prefix string) *SessionRedis {
	return &SessionRedis{client: client, prefix: prefix}
}

func (r *SessionRedis) sessionKey(id string) string {
	return r.prefix + ":" + id
}

func (r *SessionRedis) userKey(userID uint) string {
	return r.prefix + ":user:" + strconv.FormatUint(uint64(userID), 10)
}

func (r *SessionRedis) Create(ctx context.Context, s *entity.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrAlreadyExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(s.ID), data, ttl)
		p.ZAdd(ctx, r.userKey(s.UserID), redis.Z{Score: float64(s.CreatedAt.UnixNano()), Member: s.ID})
		return nil
	})
	return err
}

func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var s entity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// FindByUserID は有効なセッションを古い順に返します。キーが失効したIDはインデックスから外します。
func (r *SessionRedis) FindByUserID(ctx context.Context, userID uint) ([]*entity.Session, error) {
	ids, err := r.client.ZRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*entity.Session
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			r.client.ZRem(ctx, r.userKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.IsValid() {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// revokeRetries は WATCH 競合時の再試行回数です。
const revokeRetries = 3

// Revoke はセッションを失効済みにし、元の期限まで保持します。
// 読み取りと書き込みは WATCH 下で行うため、同時呼び出しで成功するのは1件だけです。
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return usecase.ErrSessionNotFound
			}
			return err
		}
		var s entity.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if s.IsRevoked() {
			return usecase.ErrSessionRevoked
		}
		now := time.Now()
		s.RevokedAt = &now
		updated, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true, Mode: "XX"})
			return nil
		})
		return err
	}

	for i := 0; i < revokeRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

func (r *SessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.ZRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		err := r.Revoke(ctx, id)
		if err != nil && !errors.Is(err, usecase.ErrSessionNotFound) && !errors.Is(err, usecase.ErrSessionRevoked) {
			return err
		}
	}
	return nil
}

// DeleteExpired は Redis 側で失効済みのセッションをユーザーインデックスから取り除き、
// 削除したエントリ数を返します。
func (r *SessionRedis) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	iter := r.client.Scan(ctx, 0, r.prefix+":user:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ids, err := r.client.ZRange(ctx, key, 0, -1).Result()
		if err != nil {
			return removed, err
		}
		for _, id := range ids {
			n, err := r.client.Exists(ctx, r.sessionKey(id)).Result()
			if err != nil {
				return removed, err
			}
			if n == 0 {
				if err := r.client.ZRem(ctx, key, id).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	return removed, iter.Err()
}

func (r *SessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	sessions, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

func (r *SessionRedis) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	sessions, err := r.FindByUserID(ctx, userID)
	if err != nil || len(sessions) == 0 {
		return err
	}
	oldest := sessions[0]

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(oldest.ID))
		p.ZRem(ctx, r.userKey(userID), oldest.ID)
		return nil
	})
	return err
}
