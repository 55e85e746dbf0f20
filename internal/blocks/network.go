package blocks

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"codeberg.org/mutker/statusblocks/internal/watch"
	"github.com/martinlindhe/unit"
	psnet "github.com/shirou/gopsutil/v4/net"
)

const (
	defaultNetworkPeriod = 1000
	loopbackDevice       = "lo"
)

// NetworkConfig reads the byte counters from path_to_rx and path_to_tx when
// both are set, and otherwise from the kernel's per-interface counters for
// device (every non-loopback interface when device is empty).
type NetworkConfig struct {
	Base
	RxPath string `toml:"path_to_rx"`
	TxPath string `toml:"path_to_tx"`
	Device string `toml:"device"`
}

func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		Base: Base{Period: defaultNetworkPeriod},
	}
}

func (*NetworkConfig) Kind() Kind { return KindNetwork }

func (c *NetworkConfig) Validate() error {
	if err := c.validate(KindNetwork, false); err != nil {
		return err
	}
	if (c.RxPath == "") != (c.TxPath == "") {
		return errors.New().WithData(ErrInvalidPath, "Network: path_to_rx and path_to_tx must be set together")
	}

	return nil
}

func (*NetworkConfig) isConfig() {}

// Counters are cumulative byte counts.
type Counters struct {
	Rx, Tx float64
}

// Speed returns bytes per second between prev and c over period. A counter
// that went backwards (interface reset) reads as zero.
func (c Counters) Speed(prev Counters, period time.Duration) (rx, tx unit.Datasize) {
	secs := period.Seconds()
	rate := func(curr, prev float64) unit.Datasize {
		return unit.Datasize(max(0, curr-prev)/secs) * unit.Byte
	}

	return rate(c.Rx, prev.Rx), rate(c.Tx, prev.Tx)
}

func formatRate(d unit.Datasize) string {
	switch {
	case d >= unit.Mebibyte:
		return fmt.Sprintf("%.1fM", d.Mebibytes())
	case d >= unit.Kibibyte:
		return fmt.Sprintf("%.0fK", d.Kibibytes())
	default:
		return fmt.Sprintf("%.0fB", d.Bytes())
	}
}

type Network struct {
	cfg  NetworkConfig
	read func(ctx context.Context) (Counters, error)
}

func NewNetwork(cfg NetworkConfig) *Network {
	n := &Network{cfg: cfg}
	if cfg.RxPath != "" {
		n.read = n.readFiles
	} else {
		n.read = n.readInterfaces
	}

	return n
}

func (*Network) Name() string { return string(KindNetwork) }

func (*Network) Markup() string { return markupPango }

func (n *Network) Stream(ctx context.Context) (<-chan Update, error) {
	return spawn(ctx, n.Name(), func(ctx context.Context, emit emitFunc) {
		ticker := time.NewTicker(n.cfg.Interval())
		defer ticker.Stop()

		var prev Counters
		hasPrev := false
		for {
			curr, err := n.read(ctx)
			switch {
			case err != nil:
				hasPrev = false
				if !emit(Update{Err: err}) {
					return
				}
			case hasPrev:
				rx, tx := curr.Speed(prev, n.cfg.Interval())
				text := fmt.Sprintf("%s %s %s %s", glyphDown, formatRate(rx), glyphUp, formatRate(tx))
				if !emit(Update{Text: text}) {
					return
				}
			}
			if err == nil {
				prev, hasPrev = curr, true
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}), nil
}

func (n *Network) readFiles(ctx context.Context) (Counters, error) {
	var c Counters
	for _, f := range []struct {
		path string
		dst  *float64
	}{{n.cfg.RxPath, &c.Rx}, {n.cfg.TxPath, &c.Tx}} {
		text, err := watch.ReadFile(f.path)(ctx)
		if err != nil {
			return Counters{}, err
		}
		if *f.dst, err = extract.Number(text, n.Name()); err != nil {
			return Counters{}, err
		}
	}

	return c, nil
}

func (n *Network) readInterfaces(ctx context.Context) (Counters, error) {
	stats, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return Counters{}, errors.New().Wrap(errors.ErrIO, err)
	}

	var c Counters
	found := false
	for _, s := range stats {
		if n.cfg.Device != "" && s.Name != n.cfg.Device {
			continue
		}
		if n.cfg.Device == "" && s.Name == loopbackDevice {
			continue
		}
		c.Rx += float64(s.BytesRecv)
		c.Tx += float64(s.BytesSent)
		found = true
	}

	if !found && n.cfg.Device != "" {
		return Counters{}, errors.NewParse(n.Name(), fmt.Sprintf("no interface named '%s'", n.cfg.Device))
	}

	return c, nil
}
