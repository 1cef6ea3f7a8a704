package process

import (
	"os"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SpawnConfig holds the parameters needed to spawn a child process.
type SpawnConfig struct {
	Argv       []string // Argv[0] is the executable path; no shell is involved
	Stdout     *os.File // captured output pipe (nil = not captured)
	Foreground bool     // leave stdout/stderr inheritable for debugging
}

// Child represents a running child process.
type Child interface {
	Pid() int
	Wait() (syscall.WaitStatus, error)
	Kill() error
}

// Spawner creates child processes. Implementations include ExecSpawner
// (real) and MockSpawner (testing).
type Spawner interface {
	Spawn(cfg SpawnConfig) (Child, error)
}

// ExecSpawner spawns real OS processes via os.StartProcess.
type ExecSpawner struct{}

type execChild struct {
	proc *os.Process
}

// Spawn starts a child process. Stdout is the capture pipe when one is
// given; otherwise stdout, like stderr, is only inherited in foreground
// mode. The child runs in its own process group and is killed if the
// spawning thread dies.
//
// Any failure between fork and exec is reported by os.StartProcess after
// the child has already exited, so it never runs daemon code.
func (s *ExecSpawner) Spawn(cfg SpawnConfig) (Child, error) {
	if len(cfg.Argv) == 0 {
		return nil, errors.New("empty command")
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Wrap(err, "open /dev/null")
	}
	defer devNull.Close()

	files := []*os.File{devNull, nil, nil}
	if cfg.Foreground {
		files[0] = os.Stdin
		files[1] = os.Stdout
		files[2] = os.Stderr
	}
	if cfg.Stdout != nil {
		files[1] = cfg.Stdout
	}

	proc, err := os.StartProcess(cfg.Argv[0], cfg.Argv, &os.ProcAttr{
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid:   true,
			Pdeathsig: syscall.SIGKILL,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "start %s", cfg.Argv[0])
	}

	return &execChild{proc: proc}, nil
}

func (c *execChild) Pid() int { return c.proc.Pid }

// Wait reaps the child and returns its raw wait status.
func (c *execChild) Wait() (syscall.WaitStatus, error) {
	state, err := c.proc.Wait()
	if err != nil {
		return 0, errors.Wrapf(err, "wait %d", c.proc.Pid)
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, errors.Errorf("wait %d: unexpected status type %T", c.proc.Pid, state.Sys())
	}
	return ws, nil
}

// Kill sends SIGKILL to the child's process group, falling back to the
// child alone.
func (c *execChild) Kill() error {
	if err := unix.Kill(-c.proc.Pid, unix.SIGKILL); err == nil {
		return nil
	}
	if err := c.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "kill %d", c.proc.Pid)
	}
	return nil
}

// MockSpawner is a test double for Spawner.
type MockSpawner struct {
	mu         sync.Mutex
	SpawnFn    func(cfg SpawnConfig) (Child, error)
	SpawnCalls []SpawnConfig
}

// Spawn records the call and delegates to SpawnFn.
func (m *MockSpawner) Spawn(cfg SpawnConfig) (Child, error) {
	m.mu.Lock()
	m.SpawnCalls = append(m.SpawnCalls, cfg)
	n := len(m.SpawnCalls)
	fn := m.SpawnFn
	m.mu.Unlock()

	if fn != nil {
		return fn(cfg)
	}
	return NewMockChild(1000 + n), nil
}

// Calls returns a copy of the recorded spawn configurations.
func (m *MockSpawner) Calls() []SpawnConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SpawnConfig(nil), m.SpawnCalls...)
}

// MockChild is a test double for Child. It runs until Exit or Kill is
// called.
type MockChild struct {
	pid    int
	once   sync.Once
	exitCh chan struct{}
	status syscall.WaitStatus
	err    error
	killed chan struct{}
	kOnce  sync.Once
}

// NewMockChild creates a MockChild with the given PID.
func NewMockChild(pid int) *MockChild {
	return &MockChild{
		pid:    pid,
		exitCh: make(chan struct{}),
		killed: make(chan struct{}),
	}
}

// Exit makes Wait return status and err.
func (c *MockChild) Exit(status syscall.WaitStatus, err error) {
	c.once.Do(func() {
		c.status = status
		c.err = err
		close(c.exitCh)
	})
}

// Killed is closed once Kill has been called.
func (c *MockChild) Killed() <-chan struct{} { return c.killed }

func (c *MockChild) Pid() int { return c.pid }

func (c *MockChild) Wait() (syscall.WaitStatus, error) {
	<-c.exitCh
	return c.status, c.err
}

// Kill terminates the mock as if by SIGKILL.
func (c *MockChild) Kill() error {
	c.kOnce.Do(func() { close(c.killed) })
	c.Exit(syscall.WaitStatus(syscall.SIGKILL), nil)
	return nil
}

// ExitedStatus builds the wait status of a normal exit with code.
func ExitedStatus(code int) syscall.WaitStatus {
	return syscall.WaitStatus((code & 0xff) << 8)
}
