package ports

import (
	"context"

	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
)

// LoadOptions selects what part of a source becomes a Document
type LoadOptions struct {
	// SheetName picks a worksheet; empty means the first sheet
	SheetName string
	HeaderRow int
}

// WorkbookLoader reads computed cell values of one worksheet into memory
type WorkbookLoader interface {
	Load(ctx context.Context, src run.Source, opts LoadOptions) (*sheet.Document, error)
	SheetNames(ctx context.Context, src run.Source) ([]string, error)
}

// WorkbookWriter renders annotation state onto copies of the loaded sources
type WorkbookWriter interface {
	// WriteAnnotated writes doc with its annotations applied as cell fills
	WriteAnnotated(ctx context.Context, doc *sheet.Document, dst run.Destination) error
	// WriteDiff builds the diff document from the annotated baseline and plan
	WriteDiff(ctx context.Context, baseline *sheet.Document, plan *sheet.DiffPlan, dst run.Destination) error
}

// Finalizer post-processes written outputs. Failures are reported to the
// caller, which logs them without failing the run.
type Finalizer interface {
	Finalize(ctx context.Context, paths []string) error
}
