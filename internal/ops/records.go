package ops

import (
	"context"
	"io"
	"strings"

	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/healthexport"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// RecordsInput contains parameters for the Records operation.
type RecordsInput struct {
	Path  string
	Types []string // optional record type filter, exact match
	Limit int      // optional, 0 means all
}

// RecordsOutput contains the result of the Records operation.
type RecordsOutput struct {
	Seen    int `json:"seen"`
	Emitted int `json:"emitted"`
}

// Records streams raw records of an export to emit without source or
// metadata filtering.
func Records(ctx context.Context, input RecordsInput, emit func(nutrition.RawRecord) error) (*RecordsOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, errors.NewInvalidRequest("export path is required")
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}

	var types map[string]bool
	if len(input.Types) > 0 {
		types = make(map[string]bool, len(input.Types))
		for _, t := range input.Types {
			types[strings.TrimSpace(t)] = true
		}
	}

	r, err := healthexport.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := &RecordsOutput{}
	for input.Limit == 0 || out.Emitted < input.Limit {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("records")
		}
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out.Seen++
		if types != nil && !types[rec.Type] {
			continue
		}
		if err := emit(rec); err != nil {
			return nil, err
		}
		out.Emitted++
	}
	return out, nil
}
