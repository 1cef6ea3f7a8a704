package process

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/kahiteam/hwmond/internal/timedio"
)

// Reaper errors.
var (
	ErrReaperStopped = errors.New("reaper stopped")
	ErrUnknownChild  = errors.New("unknown child process")
	ErrConnClosed    = errors.New("reaper connection closed")
)

type opKind int

const (
	opSpawn opKind = iota
	opWait
	opKill
	opCount
)

type request struct {
	op    opKind
	cfg   SpawnConfig
	pid   int
	poll  bool          // opWait: answer now even if the child is still running
	reply chan response // buffered; the reaper never blocks on it
}

type response struct {
	pid    int
	status syscall.WaitStatus
	count  int
	err    error
}

type exit struct {
	pid int
	c   *child
}

// child is the reaper's bookkeeping for one spawned process. status and err
// are written by the exit-waiter goroutine before it sets waited; the run
// loop reads them only after seeing waited.
type child struct {
	proc   Child
	waited atomic.Bool
	status syscall.WaitStatus
	err    error
	waiter chan response
	killed bool
}

// Reaper owns child process creation and teardown. Monitor goroutines talk
// to it through a Conn with a spawn / wait / kill request protocol, so
// process creation never happens on a monitor goroutine. The run loop is
// locked to one OS thread: the parent-death signal of every child is tied
// to the thread that forked it, and that thread lives until Stop.
type Reaper struct {
	spawner  Spawner
	logger   *slog.Logger
	reqs     chan request
	exits    chan exit
	done     chan struct{}
	stopped  chan struct{}
	children map[int]*child // owned by run
}

// NewReaper creates a reaper. Call Start before dialing it.
func NewReaper(spawner Spawner, logger *slog.Logger) *Reaper {
	return &Reaper{
		spawner:  spawner,
		logger:   logger.With("component", "reaper"),
		reqs:     make(chan request),
		exits:    make(chan exit),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		children: make(map[int]*child),
	}
}

// Start launches the reaper loop.
func (r *Reaper) Start() {
	go r.run()
}

// Stop kills every child that has not been reaped and waits for the loop to
// exit. Requests made after Stop fail with ErrReaperStopped.
func (r *Reaper) Stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	<-r.stopped
}

func (r *Reaper) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.stopped)

	for {
		select {
		case req := <-r.reqs:
			r.handle(req)
		case ex := <-r.exits:
			r.reap(ex)
		case <-r.done:
			r.shutdown()
			return
		}
	}
}

func (r *Reaper) handle(req request) {
	switch req.op {
	case opSpawn:
		r.spawn(req)
	case opWait:
		r.wait(req)
	case opKill:
		r.kill(req)
	case opCount:
		req.reply <- response{count: len(r.children)}
	}
}

func (r *Reaper) spawn(req request) {
	proc, err := r.spawner.Spawn(req.cfg)
	if err != nil {
		req.reply <- response{err: err}
		return
	}

	pid := proc.Pid()
	c := &child{proc: proc}
	r.children[pid] = c
	r.logger.Debug("spawned child", "pid", pid, "command", req.cfg.Argv[0])

	go func() {
		c.status, c.err = proc.Wait()
		c.waited.Store(true)
		select {
		case r.exits <- exit{pid: pid, c: c}:
		case <-r.stopped:
		}
	}()

	req.reply <- response{pid: pid}
}

func (r *Reaper) wait(req request) {
	c, ok := r.children[req.pid]
	if !ok {
		req.reply <- response{err: errors.Wrapf(ErrUnknownChild, "pid %d", req.pid)}
		return
	}
	if c.waited.Load() {
		delete(r.children, req.pid)
		req.reply <- response{pid: req.pid, status: c.status, err: c.err}
		return
	}
	if req.poll {
		c.waiter = nil
		req.reply <- response{pid: req.pid, err: timedio.ErrTimeout}
		return
	}
	c.waiter = req.reply
}

func (r *Reaper) kill(req request) {
	c, ok := r.children[req.pid]
	if !ok {
		req.reply <- response{pid: req.pid}
		return
	}
	// Once Wait has returned the PID is free for reuse and must not be
	// signalled, even if the exit is still queued for reap.
	if c.waited.Load() {
		delete(r.children, req.pid)
		req.reply <- response{pid: req.pid}
		return
	}

	// A waiter that gave up is not told about the exit.
	c.waiter = nil
	c.killed = true
	err := c.proc.Kill()
	if err != nil {
		r.logger.Error("kill failed", "pid", req.pid, "error", err)
	}
	req.reply <- response{pid: req.pid, err: err}
}

func (r *Reaper) reap(ex exit) {
	c, ok := r.children[ex.pid]
	if !ok || c != ex.c {
		return
	}

	// An exit nobody is waiting for stays until Wait or Kill collects it.
	switch {
	case c.waiter != nil:
		delete(r.children, ex.pid)
		c.waiter <- response{pid: ex.pid, status: c.status, err: c.err}
	case c.killed:
		delete(r.children, ex.pid)
		r.logger.Debug("reaped killed child", "pid", ex.pid)
	}
}

func (r *Reaper) shutdown() {
	for pid, c := range r.children {
		if c.waited.Load() {
			continue
		}
		r.logger.Warn("killing child at shutdown", "pid", pid)
		if err := c.proc.Kill(); err != nil {
			r.logger.Error("kill failed", "pid", pid, "error", err)
		}
	}
	r.children = make(map[int]*child)
}

// Children returns the number of children the reaper is tracking.
func (r *Reaper) Children() int {
	req := request{op: opCount, reply: make(chan response, 1)}
	select {
	case r.reqs <- req:
	case <-r.stopped:
		return 0
	}
	return (<-req.reply).count
}

// Conn is one monitor's channel to the reaper. It is not safe for
// concurrent use; each monitor goroutine dials its own.
type Conn struct {
	r      *Reaper
	closed bool
}

// Dial opens a connection to the reaper.
func (r *Reaper) Dial() *Conn {
	return &Conn{r: r}
}

// Close releases the connection. Further requests fail with ErrConnClosed.
func (c *Conn) Close() error {
	c.closed = true
	return nil
}

func (c *Conn) send(req request) error {
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.r.reqs <- req:
		return nil
	case <-c.r.stopped:
		return ErrReaperStopped
	}
}

func (c *Conn) call(req request) (response, error) {
	req.reply = make(chan response, 1)
	if err := c.send(req); err != nil {
		return response{}, err
	}
	select {
	case resp := <-req.reply:
		return resp, resp.err
	case <-c.r.stopped:
		return response{}, ErrReaperStopped
	}
}

// Spawn asks the reaper to start a child and returns its PID.
func (c *Conn) Spawn(cfg SpawnConfig) (int, error) {
	resp, err := c.call(request{op: opSpawn, cfg: cfg})
	if err != nil {
		return 0, err
	}
	return resp.pid, nil
}

// Kill asks the reaper to terminate pid. Killing a child that has already
// exited just discards its status.
func (c *Conn) Kill(pid int) error {
	_, err := c.call(request{op: opKill, pid: pid})
	return err
}

// Wait waits for pid to exit, for at most *timeout. It returns the raw wait
// status, timedio.ErrTimeout, timedio.ErrCancelled, or an error. *timeout is
// left holding the remaining budget. A zero budget polls once.
func (c *Conn) Wait(cancel *timedio.Canceller, pid int, timeout *time.Duration) (syscall.WaitStatus, error) {
	if *timeout <= 0 {
		*timeout = 0
		resp, err := c.call(request{op: opWait, pid: pid, poll: true})
		return resp.status, err
	}

	deadline := timedio.Deadline(*timeout)

	req := request{op: opWait, pid: pid, reply: make(chan response, 1)}
	if err := c.send(req); err != nil {
		return 0, err
	}

	timer := time.NewTimer(*timeout)
	defer timer.Stop()

	select {
	case resp := <-req.reply:
		*timeout = timedio.Remaining(deadline)
		return resp.status, resp.err
	case <-timer.C:
		*timeout = 0
		return 0, timedio.ErrTimeout
	case <-cancel.Done():
		*timeout = timedio.Remaining(deadline)
		return 0, timedio.ErrCancelled
	case <-c.r.stopped:
		return 0, ErrReaperStopped
	}
}
