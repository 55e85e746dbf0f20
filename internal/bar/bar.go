// Package bar merges the update streams of all configured blocks into one
// ordered stream of complete snapshots.
package bar

import (
	"context"
	"sync"

	"codeberg.org/mutker/statusblocks/internal/blocks"
	"codeberg.org/mutker/statusblocks/internal/logger"
)

// Result is one block update, rendered and tagged with the block's slot.
type Result struct {
	Index int
	Key   string
	Text  string
	JSON  string
}

type Bar struct {
	blocks []blocks.Block
}

// New returns a bar showing blocks in the given order.
func New(bs ...blocks.Block) *Bar {
	return &Bar{blocks: bs}
}

// Stream starts every block and emits the full snapshot after each single
// block update. A block that fails to start shows its setup error for the
// lifetime of the bar; the others are unaffected. The channel is closed only
// when ctx is done, even if every block has stopped.
func (b *Bar) Stream(ctx context.Context) <-chan Snapshot {
	slots := make(Snapshot, len(b.blocks))
	results := make(chan Result)
	failed := false

	var wg sync.WaitGroup
	for i, blk := range b.blocks {
		slots[i] = Entry{Key: blk.Name(), JSON: placeholder}

		updates, err := blk.Stream(ctx)
		if err != nil {
			logger.Error().Err(err).Str("block", blk.Name()).Msg("Failed to start block")
			slots[i].JSON = render(i, blk, blocks.Update{Err: err}).JSON
			failed = true
			continue
		}

		wg.Add(1)
		go func(i int, blk blocks.Block) {
			defer wg.Done()
			for u := range updates {
				select {
				case <-ctx.Done():
					return
				case results <- render(i, blk, u):
				}
			}
		}(i, blk)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(chan Snapshot)
	go func() {
		defer close(out)

		send := func() bool {
			select {
			case <-ctx.Done():
				return false
			case out <- slots.clone():
				return true
			}
		}

		if failed && !send() {
			return
		}
		for r := range results {
			slots[r.Index].JSON = r.JSON
			if !send() {
				return
			}
		}

		// The last shown line stays up until the process is stopped.
		<-ctx.Done()
	}()

	return out
}

// render turns an update into its slot content. Errors are shown as plain
// text in place of the value.
func render(i int, blk blocks.Block, u blocks.Update) Result {
	text, markup := u.Text, blk.Markup()
	if u.Err != nil {
		logger.Debug().Err(u.Err).Str("block", blk.Name()).Msg("Block update failed")
		text, markup = u.Err.Error(), ""
	}

	js, err := Serialize(blk.Name(), markup, text)
	if err != nil {
		logger.Error().Err(err).Str("block", blk.Name()).Msg("Failed to serialize block")
		js = placeholder
	}

	return Result{Index: i, Key: blk.Name(), Text: text, JSON: js}
}
