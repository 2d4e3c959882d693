package highlight

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/syntax"
	"github.com/dshills/textcore/internal/syntax/query"
)

// Source provides ordered captures. *syntax.Snapshot implements it.
type Source interface {
	SortedCaptures(r syntax.ByteRange) ([]query.Capture, error)
}

// Highlight classifies the captures of src in r.
func Highlight(src Source, r syntax.ByteRange) ([]Token, error) {
	caps, err := src.SortedCaptures(r)
	if err != nil {
		return nil, err
	}
	return Tokens(caps), nil
}

// HighlightRanges highlights several ranges of one snapshot in parallel.
// Each goroutine reads its own copy of the snapshot. Results are in the
// order of ranges.
func HighlightRanges(ctx context.Context, snap *syntax.Snapshot, ranges []syntax.ByteRange) ([][]Token, error) {
	out := make([][]Token, len(ranges))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		cp := snap.Copy()
		g.Go(func() error {
			defer cp.Close()
			if err := ctx.Err(); err != nil {
				return err
			}
			toks, err := Highlight(cp, r)
			if err != nil {
				return err
			}
			out[i] = toks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Result is the outcome of one submitted request.
type Result struct {
	Generation uint64
	Range      syntax.ByteRange
	Tokens     []Token
	Err        error
}

type job struct {
	gen uint64
	src Source
	rng syntax.ByteRange
}

// Worker highlights on its own goroutine. Every Submit or Cancel starts a
// new generation; a request whose generation is no longer current when it
// is picked up, or when its result is ready, is dropped without a result.
type Worker struct {
	gen     atomic.Uint64
	mu      sync.Mutex
	pending *job
	wake    chan struct{}
	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	log     *logging.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(l *logging.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}

// WithResultBuffer sets the capacity of the results channel.
func WithResultBuffer(n int) WorkerOption {
	return func(w *Worker) {
		if n >= 0 {
			w.results = make(chan Result, n)
		}
	}
}

// NewWorker starts a worker.
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{
		wake:    make(chan struct{}, 1),
		results: make(chan Result, 1),
		done:    make(chan struct{}),
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("highlight")
	w.wg.Add(1)
	go w.run()
	return w
}

// Submit queues src for highlighting and returns the request's
// generation. A request still waiting is replaced. The worker takes
// ownership of src and closes it when done if it has a Close method.
func (w *Worker) Submit(src Source, r syntax.ByteRange) uint64 {
	g := w.gen.Add(1)
	w.mu.Lock()
	prev := w.pending
	w.pending = &job{gen: g, src: src, rng: r}
	w.mu.Unlock()
	if prev != nil {
		release(prev.src)
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return g
}

// Cancel invalidates every submitted request.
func (w *Worker) Cancel() {
	w.gen.Add(1)
}

// Generation returns the current generation.
func (w *Worker) Generation() uint64 {
	return w.gen.Load()
}

// Results delivers results in completion order. It is closed by Close.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Close stops the worker and waits for it to exit.
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.mu.Lock()
		if w.pending != nil {
			release(w.pending.src)
			w.pending = nil
		}
		w.mu.Unlock()
		close(w.results)
	})
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}

		w.mu.Lock()
		j := w.pending
		w.pending = nil
		w.mu.Unlock()
		if j == nil {
			continue
		}
		w.process(j)
	}
}

func (w *Worker) process(j *job) {
	defer release(j.src)
	if j.gen != w.gen.Load() {
		w.log.Debug("drop stale request %d", j.gen)
		return
	}
	toks, err := Highlight(j.src, j.rng)
	if j.gen != w.gen.Load() {
		w.log.Debug("drop stale result %d", j.gen)
		return
	}
	select {
	case w.results <- Result{Generation: j.gen, Range: j.rng, Tokens: toks, Err: err}:
	case <-w.done:
	}
}

func release(src Source) {
	if c, ok := src.(interface{ Close() }); ok {
		c.Close()
	}
}
