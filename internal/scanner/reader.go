package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// Attach starts consuming key input from r until ctx is cancelled or the
// stream ends. An aggregator accepts exactly one source for its lifetime;
// a second Attach fails rather than double-feeding the buffer.
//
// The read loop blocks in Read, so the owner of r must close it on
// shutdown to release the goroutine. A partial buffer left behind by a
// closed stream is simply discarded.
func (a *Aggregator) Attach(ctx context.Context, r io.Reader) error {
	if !a.attached.CompareAndSwap(false, true) {
		return ErrAlreadyAttached
	}

	go a.readLoop(ctx, r)
	return nil
}

func (a *Aggregator) readLoop(ctx context.Context, r io.Reader) {
	br := bufio.NewReader(r)
	for {
		if ctx.Err() != nil {
			return
		}

		ch, _, err := br.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				a.log.Warn("scanner source read failed", "err", err)
			}
			return
		}
		a.Push(ch)
	}
}
