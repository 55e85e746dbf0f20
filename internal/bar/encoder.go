package bar

import (
	"fmt"
	"io"

	"codeberg.org/mutker/statusblocks/internal/errors"
)

// Protocol selects the framing of the output lines.
type Protocol string

const (
	// ProtocolJSON writes one JSON array per line.
	ProtocolJSON Protocol = "json"
	// ProtocolI3bar writes the i3bar header and an endless array of lines.
	ProtocolI3bar Protocol = "i3bar"
)

const i3barHeader = "{\"version\":1}\n[\n"

// ParseProtocol validates a protocol name.
func ParseProtocol(name string) (Protocol, error) {
	switch p := Protocol(name); p {
	case ProtocolJSON, ProtocolI3bar:
		return p, nil
	default:
		return "", errors.New().WithData(ErrInvalidProtocol, fmt.Sprintf("'%s'", name))
	}
}

// Encoder writes snapshots to w, one per line.
type Encoder struct {
	w        io.Writer
	protocol Protocol
	started  bool
}

func NewEncoder(w io.Writer, protocol Protocol) *Encoder {
	return &Encoder{w: w, protocol: protocol}
}

func (e *Encoder) Encode(s Snapshot) error {
	var line string
	switch e.protocol {
	case ProtocolI3bar:
		if !e.started {
			line = i3barHeader
		}
		line += s.Line() + ",\n"
	default:
		line = s.Line() + "\n"
	}
	e.started = true

	if _, err := io.WriteString(e.w, line); err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}

	return nil
}
