// Package pid manages the PID file that lets key bindings signal the running
// bar, e.g. `pkill -USR2 -F $TMPDIR/statusblocks.pid`.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/statusblocks/internal/errors"
)

const (
	pidFile = "statusblocks.pid"
)

// DefaultPath returns the PID file location in the temporary directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning if the file names another live process. A stale or
// unreadable file is overwritten.
func Write(path string) error {
	errFactory := errors.New()
	pid := os.Getpid()

	if running, other := liveOwner(path); running && other != pid {
		return errFactory.WithData(errors.ErrAlreadyRunning, strconv.Itoa(other))
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// liveOwner reports the process recorded in path and whether it is alive.
func liveOwner(path string) (bool, int) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	return process.Signal(syscall.Signal(0)) == nil, pid
}

// Remove removes the PID file at path.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}
