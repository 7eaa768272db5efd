package pow

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Worker searches nonces on the local CPU.
type Worker struct {
	numWorkers int
	hashes     *atomic.Uint64
	log        *zap.SugaredLogger
}

// Option is a function setting an option of a Worker.
type Option func(*Worker)

// WithLogger sets the logger of the Worker.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(w *Worker) {
		w.log = log
	}
}

// New creates a Worker that searches with numWorkers goroutines.
func New(numWorkers int, options ...Option) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}

	w := &Worker{
		numWorkers: numWorkers,
		hashes:     atomic.NewUint64(0),
		log:        zap.NewNop().Sugar(),
	}
	for _, option := range options {
		option(w)
	}

	return w
}

// Hashes returns the number of hashes computed by the Worker so far.
func (w *Worker) Hashes() uint64 {
	return w.hashes.Load()
}

// Mine implements Provider.
func (w *Worker) Mine(ctx context.Context, powData []byte, targetScore uint32) (uint64, error) {
	difficulty := RequiredTrailingZeros(len(powData), targetScore)

	w.log.Debugw("start PoW", "targetScore", targetScore, "difficulty", difficulty, "numWorkers", w.numWorkers)
	start := time.Now()
	nonce, err := w.MineTrailingZeros(ctx, powData, difficulty)
	w.log.Debugw("PoW stopped", "nonce", nonce, "err", err, "duration", time.Since(start))

	return nonce, err
}

// MineTrailingZeros returns a nonce whose hash has at least difficulty trailing zero trits.
func (w *Worker) MineTrailingZeros(ctx context.Context, powData []byte, difficulty int) (uint64, error) {
	if difficulty <= 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(w.numWorkers)
	if err != nil {
		return 0, errors.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		done    = atomic.NewBool(false)
		results = make(chan uint64, w.numWorkers)
		wg      sync.WaitGroup
	)

	// stop all workers when the context has been canceled
	stopWatching := make(chan struct{})
	defer close(stopWatching)
	go func() {
		select {
		case <-ctx.Done():
			done.Store(true)
		case <-stopWatching:
		}
	}()

	powDigest := blake2b.Sum256(powData)
	workerWidth := math.MaxUint64 / uint64(w.numWorkers)
	for i := 0; i < w.numWorkers; i++ {
		startNonce := uint64(i) * workerWidth

		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()

			nonce, workerErr := w.worker(powDigest, startNonce, difficulty, done)
			if workerErr != nil {
				return
			}
			done.Store(true)
			results <- nonce
		}); submitErr != nil {
			wg.Done()
			done.Store(true)
			wg.Wait()
			return 0, errors.Errorf("failed to start worker: %w", submitErr)
		}
	}
	wg.Wait()
	close(results)

	nonce, ok := <-results
	if !ok {
		return 0, errors.Errorf("no nonce found (%v): %w", ctx.Err(), ErrCancelled)
	}

	return nonce, nil
}

func (w *Worker) worker(powDigest [blake2b.Size256]byte, startNonce uint64, difficulty int, done *atomic.Bool) (uint64, error) {
	for nonce := startNonce; ; nonce++ {
		if done.Load() {
			return 0, ErrDone
		}
		w.hashes.Inc()

		if TrailingZeros(powDigest, nonce) >= difficulty {
			return nonce, nil
		}
	}
}

// code contract (make sure the struct implements all required methods).
var _ Provider = &Worker{}
