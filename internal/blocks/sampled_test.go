package blocks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"github.com/martinlindhe/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCPUStatsPercent(t *testing.T) {
	var prev, curr CPUStats
	require.NoError(t, extract.Into(cpuPattern, "cpu  10 0 10 80 0 0 0 0 0 0\ncpu0 1 2 3", "Cpu", &prev))
	require.NoError(t, extract.Into(cpuPattern, "cpu  40 0 20 140 0 0 0 0 0 0\n", "Cpu", &curr))

	percent, ok := curr.Percent(prev)
	require.True(t, ok)
	assert.InDelta(t, 40.0, percent, 1e-9)

	_, ok = curr.Percent(curr)
	assert.False(t, ok)
}

func TestCPUStatsMismatch(t *testing.T) {
	var stats CPUStats
	err := extract.Into(cpuPattern, "intr 12345", "Cpu", &stats)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrParse))
}

func TestCPUStream(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultCPUConfig()
	cfg.Period = 10
	cfg.StatPath = writeTestFile(t, dir, "stat", "cpu  10 0 10 80 0 0 0 0 0 0\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewCPU(*cfg).Stream(ctx)
	require.NoError(t, err)

	// Let the first sample prime the counters.
	time.Sleep(5 * cfg.Interval())
	writeTestFile(t, dir, "stat", "cpu  40 0 20 140 0 0 0 0 0 0\n")
	u := waitForUpdate(t, ch, func(u Update) bool { return u.Err == nil })
	assert.Equal(t, glyphCPU+" 40.0%", u.Text)
}

func TestMemoryStream(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultMemoryConfig()
	cfg.Period = 10
	cfg.MeminfoPath = writeTestFile(t, dir, "meminfo",
		"MemTotal:        1000 kB\nMemFree:          250 kB\nMemAvailable:     500 kB\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewMemory(*cfg).Stream(ctx)
	require.NoError(t, err)

	u := nextUpdate(t, ch)
	require.NoError(t, u.Err)
	assert.Equal(t, glyphMemory+" 75.0%", u.Text)

	writeTestFile(t, dir, "meminfo", "garbage\n")
	u = waitForUpdate(t, ch, func(u Update) bool { return u.Err != nil })
	assert.True(t, errors.HasCode(u.Err, errors.ErrParse))
}

func TestMemStatsPercent(t *testing.T) {
	assert.InDelta(t, 25.0, MemStats{Total: 400, Free: 300}.Percent(), 1e-9)
}

func TestNetworkSpeed(t *testing.T) {
	rx, tx := Counters{Rx: 4096, Tx: 100}.Speed(Counters{Rx: 2048, Tx: 200}, 2*time.Second)
	assert.Equal(t, "1K", formatRate(rx))
	assert.Equal(t, "0B", formatRate(tx))

	assert.Equal(t, "512B", formatRate(512*unit.Byte))
	assert.Equal(t, "1.5M", formatRate(unit.Mebibyte+unit.Mebibyte/2))
}

func TestNetworkStreamFromFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultNetworkConfig()
	cfg.Period = 10
	cfg.RxPath = writeTestFile(t, dir, "rx_bytes", "1000\n")
	cfg.TxPath = writeTestFile(t, dir, "tx_bytes", "2000\n")
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewNetwork(*cfg).Stream(ctx)
	require.NoError(t, err)

	u := nextUpdate(t, ch)
	require.NoError(t, u.Err)
	assert.Equal(t, glyphDown+" 0B "+glyphUp+" 0B", u.Text)

	require.NoError(t, os.Remove(cfg.TxPath))
	u = waitForUpdate(t, ch, func(u Update) bool { return u.Err != nil })
	assert.True(t, errors.HasCode(u.Err, errors.ErrIO))
}

func TestNetworkUnknownDevice(t *testing.T) {
	cfg := DefaultNetworkConfig()
	cfg.Device = "does-not-exist0"

	_, err := NewNetwork(*cfg).read(context.Background())
	require.Error(t, err)
}

func TestTimeStream(t *testing.T) {
	cfg := DefaultTimeConfig()
	cfg.Format = "%Y-%m-%d <b>%H:%M</b>"

	tm, err := NewTime(*cfg)
	require.NoError(t, err)
	tm.now = func() time.Time { return time.Date(2024, 3, 9, 13, 45, 0, 0, time.Local) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := tm.Stream(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09 <b>13:45</b>", nextUpdate(t, ch).Text)
	assert.Equal(t, markupPango, tm.Markup())
}
