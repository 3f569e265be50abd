package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/model"
)

const (
	// DefaultWorkers is used when Options.Workers is zero.
	DefaultWorkers = 16
	// MinWorkers and MaxWorkers bound the pool size.
	MinWorkers = 2
	MaxWorkers = 32
	// DefaultTickInterval is the progress emission period.
	DefaultTickInterval = 150 * time.Millisecond
)

// Progress is a periodic snapshot of the current run.
type Progress struct {
	// Done counts finished tasks, successful or not.
	Done int
	// Total counts tasks known to the current run.
	Total int
	// CurrentFile is the base name of the most recently started download.
	CurrentFile string
	// Bytes is the number of bytes received in the current run.
	Bytes int64
}

// Summary is emitted once when a run has processed every task.
type Summary struct {
	Succeeded int
	Failed    int
}

// Options configures a Manager.
type Options struct {
	// Workers is the pool size, clamped to [MinWorkers, MaxWorkers].
	Workers int

	// TickInterval is how often OnProgress fires while running.
	TickInterval time.Duration

	// Client performs the transfers. Defaults to http.NewClient(http.DefaultOptions()).
	Client *http.Client

	// RetryCooldown and RetryExponent shape the backoff between attempts of a
	// task with Retries > 0: cooldown * exponent^attempt seconds.
	RetryCooldown float64
	RetryExponent float64

	// OnProgress receives periodic snapshots. Called from the ticker goroutine.
	OnProgress func(Progress)

	// OnFinished receives the terminal summary, at most once per run.
	OnFinished func(Summary)

	Logger *slog.Logger
}

// run holds the state of one Start..finish cycle.
type run struct {
	active   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	tickStop chan struct{}
	tickDone chan struct{}
	done     chan struct{}
}

// Manager is a bounded pool of workers that fetch queued tasks into the
// local layout, verifying content digests before and after each transfer.
type Manager struct {
	opts    Options
	workers int
	client  *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []model.Task
	inFlight  int
	cancelled bool

	completed atomic.Int64
	failed    atomic.Int64
	total     atomic.Int64
	bytes     atomic.Int64

	fileMu      sync.Mutex
	currentFile string

	runMu   sync.Mutex
	current atomic.Pointer[run]
	wg      sync.WaitGroup
}

// NewManager creates a new download Manager. Nothing runs until Start.
func NewManager(opts Options) *Manager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.RetryExponent <= 0 {
		opts.RetryExponent = 1
	}
	m := &Manager{
		opts:    opts,
		workers: ClampWorkers(opts.Workers),
		client:  opts.Client,
		logger:  opts.Logger,
	}
	if m.client == nil {
		m.client = http.NewClient(http.DefaultOptions())
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// ClampWorkers applies the default and bounds to a requested pool size.
func ClampWorkers(n int) int {
	if n == 0 {
		n = DefaultWorkers
	}
	return min(max(n, MinWorkers), MaxWorkers)
}

// Workers returns the effective pool size.
func (m *Manager) Workers() int {
	return m.workers
}

// Enqueue appends a task. Safe to call before or while the pool is running.
func (m *Manager) Enqueue(task model.Task) {
	m.EnqueueBatch([]model.Task{task})
}

// EnqueueBatch appends tasks in order under a single lock acquisition.
func (m *Manager) EnqueueBatch(tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, tasks...)
	m.total.Add(int64(len(tasks)))
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Start launches the workers and the progress ticker. It is a no-op while a
// run is active. Per-run counters are reset; tasks already queued belong to
// the new run.
func (m *Manager) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if prev := m.current.Load(); prev != nil {
		if prev.active.Load() {
			return
		}
		<-prev.done
	}

	m.mu.Lock()
	m.cancelled = false
	m.total.Store(int64(len(m.queue)))
	m.mu.Unlock()

	m.completed.Store(0)
	m.failed.Store(0)
	m.bytes.Store(0)
	m.setCurrentFile("")

	r := &run{
		tickStop: make(chan struct{}),
		tickDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.active.Store(true)
	m.current.Store(r)

	m.logger.Debug("download pool starting", "workers", m.workers, "queued", m.total.Load())

	m.wg.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.worker(r)
	}
	go m.tick(r)
}

// Cancel stops the run: workers finish their current task and exit, in-flight
// transfers are aborted and ticking stops. No summary is emitted. Safe to
// call repeatedly and when nothing is running.
func (m *Manager) Cancel() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	r := m.current.Load()
	if r == nil {
		return
	}
	m.stop(r, false, false)
}

// WaitUntilDone blocks until every queued task has been processed (or the
// run is cancelled), shuts the run down and emits a final progress snapshot.
func (m *Manager) WaitUntilDone() {
	r := m.current.Load()
	if r != nil {
		m.mu.Lock()
		for !m.cancelled && (len(m.queue) > 0 || m.inFlight > 0) {
			m.cond.Wait()
		}
		m.mu.Unlock()

		m.stop(r, true, false)
	}
	m.emitProgress()
}

// IsRunning reports whether a run is active.
func (m *Manager) IsRunning() bool {
	r := m.current.Load()
	return r != nil && r.active.Load()
}

// Stats returns the current counters.
func (m *Manager) Stats() Progress {
	return Progress{
		Done:        int(m.completed.Load() + m.failed.Load()),
		Total:       int(m.total.Load()),
		CurrentFile: m.getCurrentFile(),
		Bytes:       m.bytes.Load(),
	}
}

// stop ends run r exactly once. Losers of the race wait for the winner.
func (m *Manager) stop(r *run, summary, fromTick bool) {
	if !r.active.CompareAndSwap(true, false) {
		if !fromTick {
			<-r.done
		}
		return
	}
	defer close(r.done)

	m.mu.Lock()
	m.cancelled = true
	m.cond.Broadcast()
	m.mu.Unlock()

	if !summary {
		r.cancel()
	}
	m.wg.Wait()
	r.cancel()

	close(r.tickStop)
	if !fromTick {
		<-r.tickDone
	}

	if summary {
		s := Summary{
			Succeeded: int(m.completed.Load()),
			Failed:    int(m.failed.Load()),
		}
		m.logger.Info("download run finished", "succeeded", s.Succeeded, "failed", s.Failed)
		if m.opts.OnFinished != nil {
			m.opts.OnFinished(s)
		}
	} else {
		m.logger.Info("download run cancelled")
	}
}

func (m *Manager) tick(r *run) {
	defer close(r.tickDone)

	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.tickStop:
			return
		case <-ticker.C:
			p := m.emitProgress()
			if p.Total > 0 && p.Done >= p.Total && r.active.Load() {
				m.stop(r, true, true)
				return
			}
		}
	}
}

func (m *Manager) emitProgress() Progress {
	p := m.Stats()
	if m.opts.OnProgress != nil {
		m.opts.OnProgress(p)
	}
	return p
}

func (m *Manager) worker(r *run) {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.cancelled {
			m.cond.Wait()
		}
		if m.cancelled {
			m.mu.Unlock()
			return
		}
		task := m.queue[0]
		m.queue = m.queue[1:]
		m.inFlight++
		m.mu.Unlock()

		if err := m.process(r.ctx, task); err != nil {
			m.failed.Add(1)
			m.logger.Warn("download failed", "url", task.URL, "dest", task.Dest, "error", err)
		} else {
			m.completed.Add(1)
		}

		m.mu.Lock()
		m.inFlight--
		m.cond.Broadcast()
		m.mu.Unlock()
	}
}

func (m *Manager) process(ctx context.Context, task model.Task) error {
	if task.SHA1 != "" && ioutils.FileExists(task.Dest) && ioutils.Verify(task.Dest, task.SHA1) {
		m.logger.Debug("skipping verified file", "dest", task.Dest)
		return nil
	}

	m.setCurrentFile(filepath.Base(task.Dest))

	if err := ioutils.EnsureDir(filepath.Dir(task.Dest)); err != nil {
		return err
	}

	var err error
	for tries := 0; ; tries++ {
		err = m.fetch(ctx, task)
		if err == nil || errors.Is(err, ioutils.ErrIntegrity) || tries >= task.Retries || ctx.Err() != nil {
			return err
		}
		m.logger.Debug("retrying download", "url", task.URL, "attempt", tries+1, "error", err)
		m.waitForRetry(ctx, tries)
	}
}

func (m *Manager) fetch(ctx context.Context, task model.Task) error {
	var seen int64
	n, err := m.client.DownloadFile(ctx, task.URL, task.Dest, func(written, total int64) {
		m.bytes.Add(written - seen)
		seen = written
	})
	if err != nil {
		return err
	}

	if task.Size > 0 && n != task.Size {
		os.Remove(task.Dest)
		return fmt.Errorf("%w: %s: got %d bytes, want %d", ioutils.ErrIntegrity, task.Dest, n, task.Size)
	}
	if !ioutils.Verify(task.Dest, task.SHA1) {
		os.Remove(task.Dest)
		return fmt.Errorf("%w: %s: sha1 mismatch", ioutils.ErrIntegrity, task.Dest)
	}
	return nil
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.opts.RetryCooldown * math.Pow(m.opts.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func (m *Manager) setCurrentFile(name string) {
	m.fileMu.Lock()
	m.currentFile = name
	m.fileMu.Unlock()
}

func (m *Manager) getCurrentFile() string {
	m.fileMu.Lock()
	defer m.fileMu.Unlock()
	return m.currentFile
}
