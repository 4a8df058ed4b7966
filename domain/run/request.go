package run

import (
	"fmt"
	"io"
	"path/filepath"

	"sheetdiff/domain/core"
	"sheetdiff/domain/sheet"
)

// Source locates one input document: a file path or an already-open stream.
// Name is the display name; for path sources it defaults to the base name.
type Source struct {
	Name   string
	Path   string
	Reader io.Reader
}

// DisplayName is the name shown in logs, history and output file names
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return filepath.Base(s.Path)
	}
	return "stream"
}

// Destination locates one output document
type Destination struct {
	Path   string
	Writer io.Writer
}

// IsZero reports whether the destination names nothing
func (d Destination) IsZero() bool {
	return d.Path == "" && d.Writer == nil
}

// String describes the destination for logs
func (d Destination) String() string {
	if d.Path != "" {
		return d.Path
	}
	if d.Writer != nil {
		return "stream"
	}
	return "<none>"
}

// Outputs are the three destinations written by a successful run
type Outputs struct {
	Baseline  Destination
	Candidate Destination
	Diff      Destination
}

// Paths lists the file-backed destinations in write order
func (o Outputs) Paths() []string {
	var out []string
	for _, d := range []Destination{o.Baseline, o.Candidate, o.Diff} {
		if d.Path != "" {
			out = append(out, d.Path)
		}
	}
	return out
}

// Request is the input contract of one comparison
type Request struct {
	// ID is assigned on Normalize when empty so callers can subscribe to
	// progress before the run starts
	ID        core.RunID
	Baseline  Source
	Candidate Source
	HeaderRow int
	KeyFields sheet.KeyFieldSpec
	SheetName string
	Outputs   Outputs

	// ReadOnly asks the finalizer to clear write permission on file outputs
	ReadOnly bool
	// StrictKeys turns duplicate row keys into a DUPLICATE_KEY failure
	StrictKeys bool
}

// Normalize fills defaults in place
func (r *Request) Normalize() {
	if r.HeaderRow == 0 {
		r.HeaderRow = sheet.DefaultHeaderRow
	}
	if r.ID == "" {
		r.ID = core.NewRunID()
	}
}

// Validate checks the request before any document is opened
func (r *Request) Validate() error {
	if r.HeaderRow < 1 {
		return fmt.Errorf("header row must be positive, got %d", r.HeaderRow)
	}
	for name, src := range map[string]Source{"baseline": r.Baseline, "candidate": r.Candidate} {
		if src.Path == "" && src.Reader == nil {
			return fmt.Errorf("%s: %w", name, core.ErrNoSource)
		}
	}
	if r.Outputs.Baseline.IsZero() || r.Outputs.Candidate.IsZero() || r.Outputs.Diff.IsZero() {
		return fmt.Errorf("all three output destinations are required")
	}
	seen := make(map[string]string, 3)
	for _, d := range []struct {
		name string
		dst  Destination
	}{{"baseline", r.Outputs.Baseline}, {"candidate", r.Outputs.Candidate}, {"diff", r.Outputs.Diff}} {
		if d.dst.Path == "" {
			continue
		}
		p := filepath.Clean(d.dst.Path)
		if prev, dup := seen[p]; dup {
			return fmt.Errorf("%s and %s outputs both write %s: %w", prev, d.name, d.dst.Path, core.ErrSameOutput)
		}
		seen[p] = d.name
	}
	return nil
}
