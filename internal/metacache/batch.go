package metacache

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Entry is one slot of a batch result. OK reports whether the lookup at
// this position produced a body.
type Entry[T any] struct {
	Num  int
	Body T
	OK   bool
}

// BatchGet fetches every input concurrently and returns one entry per
// input, aligned with the input slice. start offsets the numbering so
// callers can process a long list in slices. Blank inputs and failed
// lookups keep their slot with OK false; failures are also logged.
func BatchGet[T any](ctx context.Context, inputs []string, start int, get func(ctx context.Context, input string) (T, error)) []Entry[T] {
	entries := make([]Entry[T], len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		entries[i].Num = start + i
		if input == "" {
			continue
		}
		wg.Add(1)
		go func(slot *Entry[T], input string) {
			defer wg.Done()
			body, err := get(ctx, input)
			if err != nil {
				log.Warn().Str("op", "metacache/batch").Err(err).Msgf("lookup of %q failed", input)
				return
			}
			slot.Body = body
			slot.OK = true
		}(&entries[i], input)
	}
	wg.Wait()
	return entries
}
