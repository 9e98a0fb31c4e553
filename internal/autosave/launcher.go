package autosave

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"finance-ledger/internal/metrics"

	"go.uber.org/zap"
)

// Launch starts every task on its own goroutine and returns immediately.
// The returned channel receives one Result per task and is closed after the
// last one; callers that do not care may drop it.
func Launch(ctx context.Context, logger *zap.Logger, tasks ...*Task) <-chan Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make(chan Result, len(tasks))
	var wg sync.WaitGroup

	for _, task := range tasks {
		if task == nil {
			continue
		}
		wg.Add(1)
		go func(task *Task) {
			defer wg.Done()
			result := runSafely(ctx, logger, task)
			metrics.AutoSaveTasks.WithLabelValues(result.State.String()).Inc()
			results <- result
		}(task)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runSafely runs the task and turns a panic into an Interrupted result
func runSafely(ctx context.Context, logger *zap.Logger, task *Task) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			task.interrupt()
			logger.Error("auto-save task panicked",
				zap.String("task", task.Name()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = Result{
				Name:  task.Name(),
				State: StateInterrupted,
				Err:   fmt.Errorf("panic: %v", r),
			}
		}
	}()

	return task.Run(ctx)
}

// Collect drains results until the channel closes or ctx is done
func Collect(ctx context.Context, results <-chan Result) ([]Result, error) {
	var out []Result
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return out, nil
			}
			out = append(out, r)
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}
