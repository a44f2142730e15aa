package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/motoworks/workshop_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance under Type:$id
func StoreRedis[T any](obj *T, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// ObtainLocks is best-effort: with no redis, or when a key is already held,
// it logs and carries on. The returned func releases whatever was obtained.
func ObtainLocks(ctx context.Context, moduleName string, functionName string, keys ...string) func() {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}

	var locks []*redislock.Lock
	for _, key := range UniqueSlice(keys) {
		lock, err := locker.Obtain(ctx, "lock:"+key, 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
		})
		if errors.Is(err, redislock.ErrNotObtained) {
			config.LogError(logger, moduleName, functionName, "could not obtain lock; proceeding without it", key, err)
			continue
		} else if err != nil {
			config.LogError(logger, moduleName, functionName, "error obtaining lock; proceeding without it", key, err)
			continue
		}
		locks = append(locks, lock)
	}

	return func() {
		for _, lock := range locks {
			if err := lock.Release(ctx); err != nil {
				config.LogError(logger, moduleName, functionName, "failed to release lock", lock.Key(), err)
			}
		}
	}
}
