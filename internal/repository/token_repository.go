package repository

import (
	redisapp "timber_threads/internal/storage/redis"

	"github.com/redis/go-redis/v9"

	"context"
	"time"
)

type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) SaveAdminToken(ctx context.Context, jti string, exp time.Duration) error {
	return r.Client.Set(ctx, adminTokenKey(jti), "1", exp).Err()
}

func (r *RedisTokenRepo) HasAdminToken(ctx context.Context, jti string) (bool, error) {
	val, err := r.Client.Get(ctx, adminTokenKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	return val == "1", err
}

func (r *RedisTokenRepo) DeleteAdminToken(ctx context.Context, jti string) error {
	return r.Client.Del(ctx, adminTokenKey(jti)).Err()
}

func adminTokenKey(jti string) string {
	return "admin_session:" + jti
}
