package stream

import (
	"bytes"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/models"
)

// readChunkSize is the buffer used by Consume for each body read.
const readChunkSize = 4096

// Accumulator folds newline-delimited records into the running thinking,
// answer and confidence state. Records are cumulative, so every field is a
// full replacement rather than a delta.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	logger *zap.Logger

	buf []byte

	thinking   string
	answer     string
	confidence *int
	final      bool

	applied int
	skipped int
}

// Option configures an Accumulator
type Option func(*Accumulator)

// WithLogger sets the logger used for skipped records
func WithLogger(logger *zap.Logger) Option {
	return func(a *Accumulator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAccumulator creates an empty Accumulator
func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed appends a chunk and applies every complete line in it. The trailing
// partial line stays buffered until more data or Finish arrives.
func (a *Accumulator) Feed(chunk []byte) []models.Snapshot {
	if len(chunk) == 0 {
		return nil
	}
	a.buf = append(a.buf, chunk...)

	var snaps []models.Snapshot
	for {
		idx := bytes.IndexByte(a.buf, '\n')
		if idx < 0 {
			break
		}
		line := a.buf[:idx]
		if snap, ok := a.applyLine(line); ok {
			snaps = append(snaps, snap)
		}
		a.buf = a.buf[idx+1:]
	}

	// Drop the consumed prefix so the backing array does not grow without bound.
	if len(a.buf) == 0 {
		a.buf = nil
	} else {
		a.buf = append([]byte(nil), a.buf...)
	}

	return snaps
}

// Finish applies whatever is left in the buffer as one last record. A
// single-object (non-streamed) response body ends up here.
func (a *Accumulator) Finish() []models.Snapshot {
	rest := a.buf
	a.buf = nil
	if len(bytes.TrimSpace(rest)) == 0 {
		return nil
	}
	if snap, ok := a.applyLine(rest); ok {
		return []models.Snapshot{snap}
	}
	return nil
}

// Consume reads r until EOF, feeding each chunk and calling onSnapshot for
// every applied record. It stops without emitting anything further once ctx
// is done and returns the context error.
func (a *Accumulator) Consume(ctx context.Context, r io.Reader, onSnapshot func(models.Snapshot)) error {
	emit := func(snaps []models.Snapshot) error {
		for _, s := range snaps {
			if err := ctx.Err(); err != nil {
				return err
			}
			if onSnapshot != nil {
				onSnapshot(s)
			}
		}
		return nil
	}

	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(chunk)
		if n > 0 {
			if err := emit(a.Feed(chunk[:n])); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			return emit(a.Finish())
		}
		if readErr != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			return readErr
		}
	}
}

// Snapshot returns the current running state
func (a *Accumulator) Snapshot() models.Snapshot {
	snap := models.Snapshot{
		Thinking: a.thinking,
		Answer:   a.answer,
		IsFinal:  a.final,
	}
	if a.confidence != nil {
		score := *a.confidence
		snap.ConfidenceScore = &score
	}
	return snap
}

// Stats returns how many records were applied and how many were skipped as malformed
func (a *Accumulator) Stats() (applied, skipped int) {
	return a.applied, a.skipped
}

// Reset clears buffered data and running state
func (a *Accumulator) Reset() {
	a.buf = nil
	a.thinking = ""
	a.answer = ""
	a.confidence = nil
	a.final = false
	a.applied = 0
	a.skipped = 0
}

// applyLine parses and applies one record, reporting whether state was updated.
func (a *Accumulator) applyLine(line []byte) (models.Snapshot, bool) {
	rec, ok, err := ParseRecord(line)
	if err != nil {
		a.skipped++
		a.logger.Warn("skipping malformed stream record", zap.Error(err))
		return models.Snapshot{}, false
	}
	if !ok {
		return models.Snapshot{}, false
	}

	if !rec.IsSuccess() {
		a.logger.Debug("ignoring non-success stream record",
			zap.String("status", rec.Status),
			zap.String("message", rec.Message),
		)
		return models.Snapshot{}, false
	}

	return a.apply(*rec.Data), true
}

func (a *Accumulator) apply(data models.RecordData) models.Snapshot {
	a.applied++

	if data.Thinking != "" {
		a.thinking = data.Thinking
	}

	if data.UpdateType.CarriesAnswer() && data.Answer != nil {
		a.answer = *data.Answer
	}

	if data.UpdateType == models.UpdateFinal {
		a.final = true
		if data.AccuracyScore != nil {
			score := *data.AccuracyScore
			a.confidence = &score
		}
	}

	snap := a.Snapshot()
	snap.UpdateType = data.UpdateType
	snap.Flush = data.PrioritizeRender || data.ThinkingComplete
	return snap
}
