// Package watch turns OS resources into streams of raw text snapshots.
package watch

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"
	"unicode/utf8"

	"codeberg.org/mutker/statusblocks/internal/errors"
)

// Snapshot is the content of a resource at one point in time, or the error
// that prevented reading it.
type Snapshot struct {
	Text string
	Err  error
}

// ReadFunc performs a single read of a resource.
type ReadFunc func(ctx context.Context) (string, error)

// ReadFile reads the whole file at path on every call.
func ReadFile(path string) ReadFunc {
	return func(_ context.Context) (string, error) {
		return readFile(path, 0)
	}
}

// Command runs name with args on every call and returns its stdout. A
// command that cannot be started is an I/O error; a non-zero exit or output
// that is not UTF-8 is a parse error for resource.
func Command(resource, name string, args ...string) ReadFunc {
	return func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, name, args...).Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return "", errors.NewParse(resource, exitErr.Error())
			}
			return "", errors.New().Wrap(errors.ErrIO, err)
		}
		if !utf8.Valid(out) {
			return "", errors.NewParse(resource, "couldn't convert stdout to UTF-8 string")
		}

		return string(out), nil
	}
}

func readFile(path string, limit int64) (string, error) {
	errFactory := errors.New()

	f, err := os.Open(path)
	if err != nil {
		return "", errFactory.Wrap(errors.ErrIO, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errFactory.Wrap(errors.ErrIO, err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewParse(path, "invalid UTF-8")
	}

	return string(data), nil
}

type pollOptions struct {
	limit int64
}

// PollOption configures PollDiff.
type PollOption func(*pollOptions)

// WithLimit compares and emits only the first n bytes of the resource.
func WithLimit(n int64) PollOption {
	return func(o *pollOptions) {
		o.limit = n
	}
}

// PollDiff reads path immediately and then once per period, emitting a
// snapshot only when the content differs from the last one emitted. The
// first successful read is always emitted. A read error is emitted as-is and
// forgets the last content, so the following successful read is emitted too.
// The channel is closed when ctx is done.
func PollDiff(ctx context.Context, path string, period time.Duration, opts ...PollOption) <-chan Snapshot {
	o := pollOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		var last string
		emitted := false
		for {
			text, err := readFile(path, o.limit)
			switch {
			case err != nil:
				emitted = false
				if !send(ctx, out, Snapshot{Err: err}) {
					return
				}
			case !emitted || text != last:
				last = text
				emitted = true
				if !send(ctx, out, Snapshot{Text: text}) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// TriggerRead performs one read immediately and then one read every time
// trigger fires, emitting every result without de-duplication. The channel
// is closed when ctx is done.
func TriggerRead(ctx context.Context, trigger *Trigger, read ReadFunc) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)

		for {
			text, err := read(ctx)
			if ctx.Err() != nil {
				return
			}
			if !send(ctx, out, Snapshot{Text: text, Err: err}) {
				return
			}
			if err := trigger.Wait(ctx); err != nil {
				return
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- Snapshot, s Snapshot) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- s:
		return true
	}
}
