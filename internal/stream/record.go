package stream

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
)

const (
	minScore = 0
	maxScore = 100

	// recordExcerpt bounds how much of a bad record ends up in logs and errors.
	recordExcerpt = 256
)

// ParseRecord decodes one stream line. Blank lines are not records and
// report ok=false with a nil error.
func ParseRecord(line []byte) (rec models.StreamRecord, ok bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return rec, false, nil
	}

	if !gjson.ValidBytes(line) {
		return rec, false, apierrors.NewParseError("invalid JSON", excerpt(line))
	}

	parsed := gjson.ParseBytes(line)
	if !parsed.IsObject() {
		return rec, false, apierrors.NewParseError("record is not an object", excerpt(line))
	}

	rec.Status = parsed.Get(PathStatus).String()
	rec.Message = parsed.Get(PathMessage).String()

	data := parsed.Get(PathData)
	if !data.IsObject() {
		return rec, true, nil
	}

	rec.Data = &models.RecordData{
		UpdateType:       models.UpdateType(data.Get(PathUpdateType).String()),
		PrioritizeRender: data.Get(PathPrioritizeRender).Bool(),
		ThinkingComplete: data.Get(PathThinkingComplete).Bool(),
	}

	if thinking := data.Get(PathThinking); thinking.Type == gjson.String {
		rec.Data.Thinking = thinking.Str
	}

	if answer := data.Get(PathAnswer); answer.Type == gjson.String {
		text := answer.Str
		rec.Data.Answer = &text
	}

	if score, ok := parseScore(data.Get(PathAccuracyScore)); ok {
		rec.Data.AccuracyScore = &score
	}

	return rec, true, nil
}

// parseScore accepts a JSON number or a numeric string, rounds it and clamps to 0-100.
func parseScore(v gjson.Result) (int, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	// Clamp before converting: float to int is undefined past the int64 range.
	f = math.Max(minScore, math.Min(maxScore, f))
	return int(math.Round(f)), true
}

func excerpt(line []byte) string {
	if len(line) > recordExcerpt {
		return string(line[:recordExcerpt]) + "..."
	}
	return string(line)
}
