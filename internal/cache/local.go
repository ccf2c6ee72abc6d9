package cache

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// 进程内 LRU 缓存，Redis 关闭时兜底，单机部署可直接使用。
var localCache *expirable.LRU[string, []byte]

// InitLocal 初始化进程内缓存
func InitLocal(size int, ttl time.Duration) {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	localCache = expirable.NewLRU[string, []byte](size, nil, ttl)
}

func localGetJSON(key string, dest interface{}) (bool, error) {
	if localCache == nil {
		return false, nil
	}
	payload, ok := localCache.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func localSetJSON(key string, value interface{}) error {
	if localCache == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	localCache.Add(key, payload)
	return nil
}

func localDel(key string) {
	if localCache == nil {
		return
	}
	localCache.Remove(key)
}
