package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hpungsan/mealtrace/internal/errors"
)

// WriteOutputInput contains parameters for the WriteOutput operation.
type WriteOutputInput struct {
	Path       string
	Extensions []string // accepted extensions for the report format, e.g. ".csv"
	Data       []byte
}

// WriteOutputOutput contains the result of the WriteOutput operation.
type WriteOutputOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// WriteOutput writes a rendered report to a file. The data goes to a temp
// file first and is renamed into place, so an existing file is preserved if
// the write fails.
func WriteOutput(ctx context.Context, input WriteOutputInput) (*WriteOutputOutput, error) {
	if err := ValidateOutputPath(input.Path, input.Extensions); err != nil {
		return nil, err
	}
	outPath, err := filepath.Abs(filepath.Clean(input.Path))
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create output directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := outPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create output file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("write output")
	}

	n, err := file.Write(input.Data)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close output file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink created since validation.
	if info, err := os.Lstat(outPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, outPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(outPath); statErr == nil {
				return nil, errors.NewInvalidRequest("output file already exists; overwriting is not supported on Windows")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize output: %w", err))
	}

	success = true
	return &WriteOutputOutput{Path: outPath, Bytes: n}, nil
}
