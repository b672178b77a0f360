package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RequestDeduplicator отсекает повторные нажатия: один и тот же ключ
// пользователя принимается не чаще раза в ttl.
type RequestDeduplicator struct {
	locks sync.Map
	now   func() time.Time
}

func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{now: time.Now}
}

func (d *RequestDeduplicator) TryAcquire(userID uint64, keySuffix string, ttl time.Duration) bool {
	key := fmt.Sprintf("%d_%s", userID, keySuffix)
	now := d.now()

	if val, exists := d.locks.Load(key); exists {
		if now.Before(val.(time.Time)) {
			return false
		}
	}

	d.locks.Store(key, now.Add(ttl))
	return true
}

// Release снимает блокировку, например если запрос завершился ошибкой.
func (d *RequestDeduplicator) Release(userID uint64, keySuffix string) {
	d.locks.Delete(fmt.Sprintf("%d_%s", userID, keySuffix))
}

func (d *RequestDeduplicator) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.now()
			d.locks.Range(func(key, value interface{}) bool {
				if now.After(value.(time.Time)) {
					d.locks.Delete(key)
				}
				return true
			})
		}
	}
}
