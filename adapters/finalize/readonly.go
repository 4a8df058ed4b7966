// Package finalize post-processes written comparison outputs.
package finalize

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"sheetdiff/internal"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"
)

// ReadOnly clears the write permission bits of each output. On Windows this
// sets the read-only file attribute.
type ReadOnly struct {
	logger *internal.Logger
}

// Nop leaves outputs untouched, for streams and storage without permissions
type Nop struct{}

var (
	_ ports.Finalizer = (*ReadOnly)(nil)
	_ ports.Finalizer = Nop{}
)

// New returns ReadOnly when enabled, otherwise Nop
func New(enabled bool, logger *internal.Logger) ports.Finalizer {
	if !enabled {
		return Nop{}
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &ReadOnly{logger: logger}
}

// Finalize attempts every path and reports all failures together
func (r *ReadOnly) Finalize(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := errors.CheckContext(ctx, "finalize"); err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", p, err))
			continue
		}
		if err := os.Chmod(p, info.Mode().Perm()&^0o222); err != nil {
			errs = append(errs, fmt.Errorf("chmod %s: %w", p, err))
			continue
		}
		r.logger.Debug("[Finalize] %s marked read-only", p)
	}
	return stderrors.Join(errs...)
}

func (Nop) Finalize(context.Context, []string) error { return nil }
