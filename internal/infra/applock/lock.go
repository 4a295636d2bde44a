package applock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Жизненные переходы одной записи должны быть сериализованы: конкурентные
// cancel и reschedule одной записи недопустимы. Это per-entity mutual
// exclusion на границе записи, не глобальная блокировка: записи между
// собой не упорядочиваются.

// releaseScript атомарно снимает блокировку только её владельцем
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker распределенная блокировка записи поверх redis (SET NX PX)
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker создает новый locker
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// WithLock выполняет fn под блокировкой записи.
// Если запись уже заблокирована, возвращает ErrLockNotAcquired без ожидания:
// вызывающая сторона отдает конфликт клиенту, а не стоит в очереди
func (l *Locker) WithLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error {
	key := lockKey(appointmentID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: acquire lock for appointment=%d: %v", ErrInternal, appointmentID, err)
	}
	if !acquired {
		return fmt.Errorf("%w: appointment=%d", ErrLockNotAcquired, appointmentID)
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Result()
	}()

	return fn(ctx)
}

func lockKey(appointmentID int64) string {
	return fmt.Sprintf("appointment:lock:%d", appointmentID)
}
