package bar_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/statusblocks/internal/bar"
	"codeberg.org/mutker/statusblocks/internal/blocks"
	"codeberg.org/mutker/statusblocks/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recvTimeout = 2 * time.Second

// fakeBlock replays the updates sent on its feed channel.
type fakeBlock struct {
	name     string
	markup   string
	feed     chan blocks.Update
	setupErr error
}

func newFakeBlock(name, markup string) *fakeBlock {
	return &fakeBlock{name: name, markup: markup, feed: make(chan blocks.Update)}
}

func (f *fakeBlock) Name() string   { return f.name }
func (f *fakeBlock) Markup() string { return f.markup }

func (f *fakeBlock) Stream(ctx context.Context) (<-chan blocks.Update, error) {
	if f.setupErr != nil {
		return nil, f.setupErr
	}

	out := make(chan blocks.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-f.feed:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case out <- u:
				}
			}
		}
	}()

	return out, nil
}

func next(t *testing.T, ch <-chan bar.Snapshot) bar.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed")
		return s
	case <-time.After(recvTimeout):
		require.FailNow(t, "timed out waiting for snapshot")
		return nil
	}
}

type element struct {
	Name     string `json:"name"`
	FullText string `json:"full_text"`
	Markup   string `json:"markup"`
}

// decode parses a line and checks it is a valid array with n elements.
func decode(t *testing.T, line string, n int) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out), line)
	require.Len(t, out, n)
	return out
}

func TestSerialize(t *testing.T) {
	js, err := bar.Serialize("Time", "pango", "<b>12:00</b>")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Time","full_text":"<b>12:00</b>","markup":"pango"}`, js)

	js, err = bar.Serialize("Cpu", "", "5%")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Cpu","full_text":"5%"}`, js)

	var e element
	require.NoError(t, json.Unmarshal([]byte(js), &e))
	assert.Equal(t, "5%", e.FullText)
}

func TestBarKeepsConfigurationOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	volume := newFakeBlock("Volume", "")
	battery := newFakeBlock("Battery", "pango")
	ch := bar.New(volume, battery).Stream(ctx)

	battery.feed <- blocks.Update{Text: "50%"}
	s := next(t, ch)
	require.Len(t, s, 2)
	assert.Equal(t, "Volume", s[0].Key)
	assert.Equal(t, "{}", s[0].JSON)
	assert.Equal(t, "Battery", s[1].Key)

	out := decode(t, s.Line(), 2)
	assert.Empty(t, out[0])
	assert.Equal(t, "50%", out[1]["full_text"])
	assert.Equal(t, "pango", out[1]["markup"])

	volume.feed <- blocks.Update{Text: "70%"}
	out = decode(t, next(t, ch).Line(), 2)
	assert.Equal(t, "70%", out[0]["full_text"])
	assert.Equal(t, "50%", out[1]["full_text"])
}

func TestBarEveryLineIsComplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fakes := []*fakeBlock{newFakeBlock("Cpu", ""), newFakeBlock("Memory", ""), newFakeBlock("Time", "pango")}
	bs := make([]blocks.Block, 0, len(fakes))
	for _, f := range fakes {
		bs = append(bs, f)
	}
	ch := bar.New(bs...).Stream(ctx)

	for i := 0; i < 30; i++ {
		f := fakes[i%len(fakes)]
		f.feed <- blocks.Update{Text: strings.Repeat("x", i)}
		decode(t, next(t, ch).Line(), len(fakes))
	}
}

func TestBarErrorThenRecovery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	battery := newFakeBlock("Battery", "pango")
	ch := bar.New(battery).Stream(ctx)

	battery.feed <- blocks.Update{Err: errors.NewParse("Battery", "unknown battery status 'Weird'")}
	out := decode(t, next(t, ch).Line(), 1)
	assert.Equal(t, "Error while parsing: 'Battery': unknown battery status 'Weird'", out[0]["full_text"])
	assert.NotContains(t, out[0], "markup")

	battery.feed <- blocks.Update{Text: "80%"}
	out = decode(t, next(t, ch).Line(), 1)
	assert.Equal(t, "80%", out[0]["full_text"])
}

func TestBarSetupErrorIsIsolated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broken := newFakeBlock("Volume", "")
	broken.setupErr = errors.New().WithData(errors.ErrSignalSetup, "SIGKILL cannot be caught")
	cpu := newFakeBlock("Cpu", "")
	ch := bar.New(broken, cpu).Stream(ctx)

	out := decode(t, next(t, ch).Line(), 2)
	assert.Contains(t, out[0]["full_text"], "SIGKILL cannot be caught")
	assert.Empty(t, out[1])

	cpu.feed <- blocks.Update{Text: "3%"}
	out = decode(t, next(t, ch).Line(), 2)
	assert.Contains(t, out[0]["full_text"], "SIGKILL cannot be caught")
	assert.Equal(t, "3%", out[1]["full_text"])
}

func assertOpenUntilCancel(t *testing.T, ch <-chan bar.Snapshot, cancel context.CancelFunc) {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.Failf(t, "bar emitted or closed early", "snapshot=%v open=%v", s, ok)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(recvTimeout):
		require.FailNow(t, "bar did not close after cancel")
	}
}

func TestBarStaysOpenWhenBlocksStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cpu := newFakeBlock("Cpu", "")
	ch := bar.New(cpu).Stream(ctx)

	cpu.feed <- blocks.Update{Text: "1%"}
	decode(t, next(t, ch).Line(), 1)
	close(cpu.feed)

	assertOpenUntilCancel(t, ch, cancel)
}

func TestBarStaysOpenWhenEveryBlockFailsSetup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broken := newFakeBlock("Battery", "pango")
	broken.setupErr = errors.New().WithData(blocks.ErrSetupRead, "charge_full missing")
	ch := bar.New(broken).Stream(ctx)

	out := decode(t, next(t, ch).Line(), 1)
	assert.Contains(t, out[0]["full_text"], "charge_full missing")

	assertOpenUntilCancel(t, ch, cancel)
}

func TestEncoder(t *testing.T) {
	snap := bar.Snapshot{{Key: "Cpu", JSON: `{"name":"Cpu","full_text":"1%"}`}, {Key: "Time", JSON: "{}"}}

	var buf bytes.Buffer
	enc := bar.NewEncoder(&buf, bar.ProtocolJSON)
	require.NoError(t, enc.Encode(snap))
	require.NoError(t, enc.Encode(snap))
	assert.Equal(t, strings.Repeat(`[{"name":"Cpu","full_text":"1%"},{}]`+"\n", 2), buf.String())

	buf.Reset()
	enc = bar.NewEncoder(&buf, bar.ProtocolI3bar)
	require.NoError(t, enc.Encode(snap))
	require.NoError(t, enc.Encode(snap))
	assert.Equal(t, "{\"version\":1}\n[\n"+strings.Repeat(`[{"name":"Cpu","full_text":"1%"},{}],`+"\n", 2), buf.String())
}

func TestParseProtocol(t *testing.T) {
	p, err := bar.ParseProtocol("i3bar")
	require.NoError(t, err)
	assert.Equal(t, bar.ProtocolI3bar, p)

	_, err = bar.ParseProtocol("xml")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, bar.ErrInvalidProtocol))
}
