// Package lock guards a journal directory against concurrent caseflow
// servers. Two servers sharing one SQLite journal would interleave run
// state, so serve refuses to start while a live lock is held.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caseflow-dev/caseflow/internal/util"
)

// FileName is the lock file name inside the guarded directory.
const FileName = "serve.lock"

// DefaultTTL is how long a lock without heartbeats stays valid.
const DefaultTTL = 60 * time.Second

// HeartbeatInterval is how often the holder refreshes the lock.
const HeartbeatInterval = 10 * time.Second

// Lock is the on-disk lock record.
type Lock struct {
	Owner     string    `yaml:"owner"`
	PID       int       `yaml:"pid"`
	Acquired  time.Time `yaml:"acquired"`
	Heartbeat time.Time `yaml:"heartbeat"`
	TTL       string    `yaml:"ttl"`
}

// TTLDuration parses the TTL string, falling back to DefaultTTL.
func (l *Lock) TTLDuration() time.Duration {
	d, err := time.ParseDuration(l.TTL)
	if err != nil {
		return DefaultTTL
	}
	return d
}

// Stale reports whether the lock can be taken over. A lock is stale when
// its holder process is gone or its heartbeat is older than the TTL.
func (l *Lock) Stale() bool {
	if l.PID > 0 && !processExists(l.PID) {
		return true
	}
	return time.Since(l.Heartbeat) > l.TTLDuration()
}

// HeldError reports a lock held by another live server.
type HeldError struct {
	Owner string
	PID   int
	Since time.Time
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("journal is locked by %s (pid %d) since %s", e.Owner, e.PID, e.Since.Format(time.RFC3339))
}

// Guard holds the serve lock for one journal directory.
type Guard struct {
	dir   string
	owner string
	done  chan struct{}
}

// NewGuard creates a guard for the given journal directory.
func NewGuard(dir, owner string) *Guard {
	return &Guard{dir: dir, owner: owner, done: make(chan struct{})}
}

func (g *Guard) path() string {
	return filepath.Join(g.dir, FileName)
}

// Acquire takes the lock, replacing a stale one. It returns *HeldError
// when another live server holds it.
func (g *Guard) Acquire() error {
	existing, err := g.read()
	if err == nil && !existing.Stale() {
		return &HeldError{Owner: existing.Owner, PID: existing.PID, Since: existing.Acquired}
	}

	now := time.Now().UTC()
	lock := &Lock{
		Owner:     g.owner,
		PID:       os.Getpid(),
		Acquired:  now,
		Heartbeat: now,
		TTL:       DefaultTTL.String(),
	}
	if err := g.write(lock); err != nil {
		return err
	}

	go g.heartbeatLoop()
	return nil
}

// Release stops the heartbeat and removes the lock file.
func (g *Guard) Release() {
	select {
	case <-g.done:
	default:
		close(g.done)
	}

	existing, err := g.read()
	if err != nil || existing.PID != os.Getpid() {
		return
	}
	_ = os.Remove(g.path())
}

func (g *Guard) heartbeatLoop() {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			lock, err := g.read()
			if err != nil || lock.PID != os.Getpid() {
				continue
			}
			lock.Heartbeat = time.Now().UTC()
			_ = g.write(lock)
		}
	}
}

func (g *Guard) read() (*Lock, error) {
	data, err := os.ReadFile(g.path())
	if err != nil {
		return nil, err
	}
	var lock Lock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse lock file: %w", err)
	}
	return &lock, nil
}

func (g *Guard) write(lock *Lock) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("marshal lock: %w", err)
	}
	return util.AtomicWriteFile(g.path(), data, 0o644)
}

// processExists reports whether a process with the given PID is alive.
// Signal 0 performs the permission and existence checks without sending.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
