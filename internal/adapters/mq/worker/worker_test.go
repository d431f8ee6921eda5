package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/paddock/internal/adapters/mq/queue"
	worker "github.com/okian/paddock/internal/adapters/mq/worker"
	logging "github.com/okian/paddock/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type recordingRunner struct {
	mu   sync.Mutex
	seen []queue.Job
	errs map[int]error
	hits atomic.Int64
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{errs: map[int]error{}}
}

func (r *recordingRunner) RunJob(_ context.Context, j queue.Job) error {
	r.hits.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, j)
	return r.errs[j.Index]
}

func (r *recordingRunner) indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.seen))
	for _, j := range r.seen {
		out = append(out, j.Index)
	}
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		mq := newMockQueue()
		runner := newRecordingRunner()
		w := worker.NewInMemoryWorker(mq, runner, worker.WithName("w-test"), worker.WithLogger(logging.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			mq.jobs <- queue.Job{SetID: "s", Index: 0}
			mq.jobs <- queue.Job{SetID: "s", Index: 1}

			convey.Convey("Then they are run in order", func() {
				convey.So(waitFor(func() bool { return runner.hits.Load() == 2 }), convey.ShouldBeTrue)
				convey.So(runner.indices(), convey.ShouldResemble, []int{0, 1})
			})
		})

		convey.Convey("When the runner fails or reports a stale job", func() {
			runner.errs[0] = errors.New("boom")
			runner.errs[1] = fmt.Errorf("set moved on: %w", worker.ErrStale)
			mq.jobs <- queue.Job{Index: 0}
			mq.jobs <- queue.Job{Index: 1}
			mq.jobs <- queue.Job{Index: 2}

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return runner.hits.Load() == 3 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				select {
				case <-w.Done():
				default:
					t.Error("worker not done after shutdown")
				}
			})
		})
	})
}

func TestWorkerPanicRecovery(t *testing.T) {
	convey.Convey("Given a runner that panics once", t, func() {
		mq := newMockQueue()
		var calls atomic.Int64
		runner := worker.RunnerFunc(func(_ context.Context, j queue.Job) error {
			if calls.Add(1) == 1 {
				panic("analysis exploded")
			}
			return nil
		})
		w := worker.NewInMemoryWorker(mq, runner, worker.WithLogger(logging.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		mq.jobs <- queue.Job{Index: 0}
		mq.jobs <- queue.Job{Index: 1}

		convey.Convey("Then the worker survives and runs the next job", func() {
			convey.So(waitFor(func() bool { return calls.Load() == 2 }), convey.ShouldBeTrue)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		runner := newRecordingRunner()
		pool := worker.NewPool(3, q, runner, worker.WithPoolLogger(logging.Nop()))

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for i := 0; i < 20; i++ {
			convey.So(q.Enqueue(ctx, queue.Job{Index: i}), convey.ShouldBeNil)
		}

		convey.Convey("Then every job runs exactly once", func() {
			convey.So(waitFor(func() bool { return runner.hits.Load() == 20 }), convey.ShouldBeTrue)
			seen := map[int]int{}
			for _, i := range runner.indices() {
				seen[i]++
			}
			convey.So(len(seen), convey.ShouldEqual, 20)
			for _, n := range seen {
				convey.So(n, convey.ShouldEqual, 1)
			}
		})

		convey.Convey("Then shutdown closes the queue and waits for workers", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPoolDefaultSize(t *testing.T) {
	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newRecordingRunner(), worker.WithPoolLogger(logging.Nop()))

		convey.Convey("Then the pool is sized from the CPU count", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestInjectedLogger(t *testing.T) {
	convey.Convey("Given injected loggers and no global logger", t, func() {
		convey.Convey("Then workers and pools build without touching the global", func() {
			convey.So(func() {
				worker.NewInMemoryWorker(newMockQueue(), newRecordingRunner(), worker.WithLogger(logging.Nop()))
			}, convey.ShouldNotPanic)
			convey.So(func() {
				worker.NewPool(2, newMockQueue(), newRecordingRunner(), worker.WithPoolLogger(logging.Nop()))
			}, convey.ShouldNotPanic)
		})
	})
}
