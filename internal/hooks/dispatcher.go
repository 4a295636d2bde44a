package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Options параметры выполнения диспетчеризации
type Options struct {
	// ConcurrencyLimit максимальное число одновременно выполняющихся воркеров
	// (при <= 0 используется domain.DefaultHookConcurrencyLimit)
	ConcurrencyLimit int

	// IgnoreErrors при true ошибка воркера логируется и не попадает в результат,
	// не прерывая остальных; при false первая ошибка возвращается вызывающей
	// стороне после завершения уже запущенных воркеров
	IgnoreErrors bool

	// Timeout ограничение на один вызов воркера
	// (при <= 0 используется domain.DefaultHookTimeoutSeconds)
	Timeout time.Duration
}

// Dispatcher выполняет единицу работы против всех подключенных приложений
// тенанта, объявивших нужный scope, с ограниченной конкурентностью и
// изоляцией отказов отдельных приложений
type Dispatcher struct {
	apps    AppSource
	metrics MetricsRecorder // nil, если метрики выключены
	logger  Logger
}

// NewDispatcher создает новый диспетчер хуков
func NewDispatcher(apps AppSource, metrics MetricsRecorder, logger Logger) *Dispatcher {
	return &Dispatcher{
		apps:    apps,
		metrics: metrics,
		logger:  logger,
	}
}

// Execute выполняет worker по одному разу для каждого приложения тенанта со
// scope. Это ограниченный пул воркеров над фиксированным списком задач, а не
// fire-and-forget broadcast: одновременно выполняется не более
// opts.ConcurrencyLimit вызовов, остальные ждут освобождения слота.
//
// Порядок результатов относительно списка приложений не гарантируется;
// вызывающая сторона, которой нужен детерминированный порядок, сортирует
// результаты сама.
//
// Кооперативной отмены запущенных воркеров нет: при ignoreErrors=false первая
// ошибка возвращается вызывающей стороне, но уже начатые воркеры доработают.
// Превышение таймаута одного вызова трактуется как ошибка воркера.
func Execute[R any](
	ctx context.Context,
	d *Dispatcher,
	tenantID int64,
	scope domain.AppScope,
	worker Worker[R],
	opts Options,
) ([]R, error) {
	apps, err := d.apps.GetAppsByScope(ctx, tenantID, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant=%d, scope=%s: %v", ErrResolveApps, tenantID, scope, err)
	}

	if len(apps) == 0 {
		d.logger.Info("Hooks: no connected apps for tenant=%d, scope=%s", tenantID, scope)
		return []R{}, nil
	}

	limit := opts.ConcurrencyLimit
	if limit <= 0 {
		limit = domain.DefaultHookConcurrencyLimit
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultHookTimeoutSeconds * time.Second
	}

	d.logger.Info("Hooks: dispatching scope=%s to %d apps (tenant=%d, limit=%d, ignoreErrors=%t)",
		scope, len(apps), tenantID, limit, opts.IgnoreErrors)

	results := make([]R, len(apps))
	failures := make([]error, len(apps))

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, app := range apps {
		wg.Add(1)
		go func(i int, app *domain.ConnectedApp) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if d.metrics != nil {
				d.metrics.HookWorkerStarted(string(scope))
				defer d.metrics.HookWorkerFinished(string(scope))
			}

			invocationCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result, err := invoke(invocationCtx, worker, app)
			elapsed := time.Since(start)

			if err != nil {
				failures[i] = err
				d.logger.Warn("Hooks: app id=%d (%s) failed for scope=%s after %s: %v",
					app.ID, app.Name, scope, elapsed, err)
				if d.metrics != nil {
					d.metrics.ObserveHookInvocation(string(scope), resultLabel(err), elapsed.Seconds())
				}
				return
			}

			results[i] = result
			if d.metrics != nil {
				d.metrics.ObserveHookInvocation(string(scope), "success", elapsed.Seconds())
			}
		}(i, app)
	}

	wg.Wait()

	succeeded := make([]R, 0, len(apps))
	var firstFailure error
	failedCount := 0

	for i := range apps {
		if failures[i] != nil {
			failedCount++
			if firstFailure == nil {
				firstFailure = fmt.Errorf("%w: app id=%d (%s), scope=%s: %v",
					ErrWorkerFailed, apps[i].ID, apps[i].Name, scope, failures[i])
			}
			continue
		}
		succeeded = append(succeeded, results[i])
	}

	if firstFailure != nil && !opts.IgnoreErrors {
		return nil, firstFailure
	}

	if failedCount > 0 {
		d.logger.Warn("Hooks: scope=%s completed with %d/%d failures (tenant=%d)",
			scope, failedCount, len(apps), tenantID)
	} else {
		d.logger.Info("Hooks: scope=%s completed, %d results (tenant=%d)", scope, len(succeeded), tenantID)
	}

	return succeeded, nil
}

// invoke выполняет один вызов воркера, перехватывая панику как ошибку,
// чтобы сбой одного приложения не ронял весь процесс
func invoke[R any](ctx context.Context, worker Worker[R], app *domain.ConnectedApp) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return worker.Invoke(ctx, app)
}

func resultLabel(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "failure"
}
