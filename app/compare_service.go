package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
	"sheetdiff/internal"
	"sheetdiff/internal/errors"
	"sheetdiff/internal/profiling"
	"sheetdiff/internal/progress"
	"sheetdiff/internal/reconcile"
	"sheetdiff/internal/synth"
	"sheetdiff/ports"
)

// CompareService runs one baseline/candidate comparison end to end
type CompareService struct {
	loader    ports.WorkbookLoader
	writer    ports.WorkbookWriter
	finalizer ports.Finalizer
	history   ports.RunRepository
	deltas    *profiling.DeltaAnalyzer
	logger    *internal.Logger
}

// NewCompareService wires the pipeline. finalizer and history may be nil.
func NewCompareService(loader ports.WorkbookLoader, writer ports.WorkbookWriter, finalizer ports.Finalizer, history ports.RunRepository, logger *internal.Logger) *CompareService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &CompareService{
		loader:    loader,
		writer:    writer,
		finalizer: finalizer,
		history:   history,
		deltas:    profiling.NewDeltaAnalyzer(),
		logger:    logger.With("compare"),
	}
}

// comparison carries the state of one invocation through the stages
type comparison struct {
	req     *run.Request
	emit    *progress.Emitter
	sum     *run.Summary
	base    *sheet.Document
	cand    *sheet.Document
	fields  sheet.KeyFieldSpec
	bk, ck  sheet.KeyColumnMap
	rows    *reconcile.RowMatch
	cols    *reconcile.ColumnMatch
	cells   reconcile.CellDiff
	classes reconcile.Classification
	plan    *sheet.DiffPlan
}

// Compare runs the full pipeline for req. The returned summary is never nil:
// on failure it carries the outcome and error detail alongside the error.
// Progress lines go to sink, which may be nil.
func (s *CompareService) Compare(ctx context.Context, req *run.Request, sink ports.ProgressSink) (*run.Summary, error) {
	startedAt := time.Now()
	req.Normalize()

	c := &comparison{
		req:  req,
		emit: progress.NewEmitter(req.ID, sink),
		sum:  &run.Summary{RunID: req.ID, Outcome: run.OutcomeSuccess},
	}
	s.logger.Info("[CompareService] run %s: %s vs %s", req.ID.Short(), req.Baseline.DisplayName(), req.Candidate.DisplayName())

	err := s.execute(ctx, c)
	c.sum.Duration = core.Elapsed(startedAt)
	if err != nil {
		s.fail(c, err)
	} else {
		c.emit.Info("done", "%d changed cells, %d added rows, %d removed rows in %s",
			c.sum.ChangedCells, c.sum.AddedRows, c.sum.RemovedRows, c.sum.Duration)
		s.logger.Info("[CompareService] run %s finished: changed=%d added=%d removed=%d fingerprint=%s",
			req.ID.Short(), c.sum.ChangedCells, c.sum.AddedRows, c.sum.RemovedRows, c.sum.Fingerprint.Short())
	}

	s.record(ctx, req, c.sum, startedAt)
	return c.sum, err
}

func (s *CompareService) execute(ctx context.Context, c *comparison) error {
	if err := c.req.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid request"))
	}
	stages := []struct {
		name string
		fn   func(context.Context, *comparison) error
	}{
		{"load", s.load},
		{"keys", s.resolveKeys},
		{"match", s.match},
		{"diff", s.diff},
		{"classify", s.classify},
		{"synthesize", s.synthesize},
		{"save", s.save},
	}
	for _, st := range stages {
		if err := errors.CheckContext(ctx, st.name); err != nil {
			return err
		}
		if err := st.fn(ctx, c); err != nil {
			return err
		}
	}
	s.summarize(c)
	return nil
}

func (s *CompareService) load(ctx context.Context, c *comparison) error {
	opts := ports.LoadOptions{SheetName: c.req.SheetName, HeaderRow: c.req.HeaderRow}

	base, err := s.loader.Load(ctx, c.req.Baseline, opts)
	if err != nil {
		return err
	}
	c.emit.Info("load", "baseline %s: sheet %q, %d rows x %d columns", c.req.Baseline.DisplayName(), base.SheetName, base.MaxRow, base.MaxCol)

	cand, err := s.loader.Load(ctx, c.req.Candidate, opts)
	if err != nil {
		return err
	}
	c.emit.Info("load", "candidate %s: sheet %q, %d rows x %d columns", c.req.Candidate.DisplayName(), cand.SheetName, cand.MaxRow, cand.MaxCol)

	c.base, c.cand = base, cand
	c.sum.SheetName = base.SheetName
	return nil
}

func (s *CompareService) resolveKeys(_ context.Context, c *comparison) error {
	c.fields = c.req.KeyFields
	if len(c.fields) == 0 {
		c.fields = reconcile.DefaultKeyFields(c.base)
		c.emit.Info("keys", "no key fields given, using %s", strings.Join(c.fields, ", "))
	}
	c.bk = reconcile.ResolveKeys(c.base, c.fields)
	c.ck = reconcile.ResolveKeys(c.cand, c.fields)
	c.sum.KeyFields = append([]string(nil), c.fields...)

	for _, side := range []struct {
		name string
		km   sheet.KeyColumnMap
	}{{"baseline", c.bk}, {"candidate", c.ck}} {
		if side.km.HasAllKeys() {
			c.emit.Info("keys", "%s: key columns %s", side.name, describeKeys(side.km))
		}
	}
	return nil
}

func (s *CompareService) match(ctx context.Context, c *comparison) error {
	rows, err := reconcile.MatchRows(ctx, c.base, c.cand, c.bk, c.ck, reconcile.Options{StrictKeys: c.req.StrictKeys})
	if err != nil {
		return err
	}
	cols, err := reconcile.MatchColumns(ctx, c.base, c.cand)
	if err != nil {
		return err
	}
	c.rows, c.cols = rows, cols
	s.warn(c, "match", rows.Warnings...)
	s.warn(c, "match", cols.Warnings...)
	c.emit.Info("match", "%d row pairs by %s, %d column pairs by %s",
		rows.Mapping.Len(), rows.Mapping.Mode, cols.Mapping.Len(), cols.Mapping.Mode)
	return nil
}

func (s *CompareService) diff(ctx context.Context, c *comparison) error {
	cells, err := reconcile.DiffCells(ctx, c.base, c.cand, c.rows.Mapping, c.cols.Mapping, c.bk, c.ck)
	if err != nil {
		return err
	}
	c.cells = cells
	c.emit.Info("diff", "%d changed cells", cells.Changed)
	return nil
}

func (s *CompareService) classify(ctx context.Context, c *comparison) error {
	classes, err := reconcile.ClassifyRows(ctx, c.base, c.cand, c.rows)
	if err != nil {
		return err
	}
	c.classes = classes
	c.emit.Info("classify", "%d removed rows, %d added rows", len(classes.Removed), len(classes.Added))
	return nil
}

func (s *CompareService) synthesize(ctx context.Context, c *comparison) error {
	plan, err := synth.NewPlanner(c.base, c.cand, c.rows, c.ck).Plan(ctx)
	if err != nil {
		return err
	}
	c.plan = plan
	unanchored := 0
	for _, ins := range plan.Insertions {
		if !ins.Anchored {
			unanchored++
		}
	}
	c.emit.Info("synthesize", "%d rows spliced into the diff document", len(plan.Insertions))
	if unanchored > 0 {
		s.warn(c, "synthesize", fmt.Sprintf("%d added rows had no known predecessor and were appended at the end", unanchored))
	}
	return nil
}

// save writes the outputs in order and stops at the first failure, so a
// failed annotated copy never yields a diff document. Files already written
// by a failed or cancelled save are removed.
func (s *CompareService) save(ctx context.Context, c *comparison) error {
	out := c.req.Outputs
	steps := []struct {
		what  string
		dst   run.Destination
		write func() error
	}{
		{"baseline copy", out.Baseline, func() error { return s.writer.WriteAnnotated(ctx, c.base, out.Baseline) }},
		{"candidate copy", out.Candidate, func() error { return s.writer.WriteAnnotated(ctx, c.cand, out.Candidate) }},
		{"diff document", out.Diff, func() error { return s.writer.WriteDiff(ctx, c.base, c.plan, out.Diff) }},
	}
	var written []string
	for _, st := range steps {
		if err := st.write(); err != nil {
			s.discard(c, written)
			return err
		}
		if st.dst.Path != "" {
			written = append(written, st.dst.Path)
		}
		c.emit.Info("save", "%s written to %s", st.what, st.dst)
	}
	c.sum.Outputs = out.Paths()

	if c.req.ReadOnly && s.finalizer != nil {
		if err := s.finalizer.Finalize(ctx, c.sum.Outputs); err != nil {
			s.logger.Warn("[CompareService] run %s: read-only marking failed: %v", c.req.ID.Short(), err)
			s.warn(c, "save", "could not mark outputs read-only")
		}
	}
	return nil
}

func (s *CompareService) discard(c *comparison, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("[CompareService] run %s: could not remove partial output %s: %v", c.req.ID.Short(), p, err)
		}
	}
}

func (s *CompareService) summarize(c *comparison) {
	c.sum.ChangedCells = c.cells.Changed
	c.sum.AddedRows = len(c.classes.Added)
	c.sum.RemovedRows = len(c.classes.Removed)
	c.sum.RowMatchMode = c.rows.Mapping.Mode
	c.sum.ColumnMatchMode = c.cols.Mapping.Mode
	c.sum.MatchedRows = c.rows.Mapping.Len()
	c.sum.MatchedColumns = c.cols.Mapping.Len()
	c.sum.Fingerprint = Fingerprint(c.rows.Mapping, c.base, c.cand, c.plan)

	deltas, err := s.deltas.Analyze(c.cells.Deltas)
	if err != nil {
		s.logger.Warn("[CompareService] run %s: delta statistics: %v", c.req.ID.Short(), err)
	}
	c.sum.NumericDeltas = deltas
}

func (s *CompareService) warn(c *comparison, stage string, msgs ...string) {
	for _, m := range msgs {
		c.emit.Warn(stage, "%s", m)
		c.sum.Warnings = append(c.sum.Warnings, m)
	}
}

func (s *CompareService) fail(c *comparison, err error) {
	if core.IsCancelled(err) {
		c.sum.Outcome = run.OutcomeCancelled
		c.emit.Warn("cancelled", "comparison cancelled")
		s.logger.Warn("[CompareService] run %s cancelled", c.req.ID.Short())
	} else {
		c.sum.Outcome = run.OutcomeFailed
		c.emit.Error("failed", "%v", err)
		s.logger.Error("[CompareService] run %s failed: %v", c.req.ID.Short(), err)
	}
	c.sum.ErrorCode = errors.GetCode(err)
	c.sum.ErrorDetail = err.Error()
	c.sum.Outputs = nil
}

// record stores the run in history. A cancelled context must not lose the
// record, and history failures never fail the comparison.
func (s *CompareService) record(ctx context.Context, req *run.Request, sum *run.Summary, startedAt time.Time) {
	if s.history == nil {
		return
	}
	rec := run.NewRecord(req, sum, startedAt, time.Now())
	if err := s.history.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("[CompareService] run %s: history not saved: %v", req.ID.Short(), err)
	}
}

// Fingerprint hashes the row mapping, both annotation sets and the diff row
// order. Identical inputs produce identical fingerprints.
func Fingerprint(rows *sheet.RowMapping, base, cand *sheet.Document, plan *sheet.DiffPlan) core.Hash {
	h := core.NewHasher()
	h.Add("rows", string(rows.Mode))
	for _, p := range rows.Pairs() {
		h.Add(strconv.Itoa(p.Baseline) + ">" + strconv.Itoa(p.Candidate))
	}
	for _, doc := range []*sheet.Document{base, cand} {
		h.Add("doc", doc.Name)
		for _, a := range []sheet.Annotation{sheet.Removed, sheet.Added} {
			for _, r := range doc.Annotations.TaggedRows(a) {
				h.Add(a.String(), strconv.Itoa(r))
			}
		}
		for _, ct := range doc.Annotations.CellTags() {
			h.Add(ct.Annotation.String(), strconv.Itoa(ct.Row), strconv.Itoa(ct.Col))
		}
	}
	h.Add("plan")
	for _, o := range plan.Rows {
		h.Add(strconv.Itoa(o.Baseline) + "|" + strconv.Itoa(o.Candidate))
	}
	return h.Sum()
}

func describeKeys(km sheet.KeyColumnMap) string {
	parts := make([]string, 0, len(km.Fields))
	for _, f := range km.Fields {
		if col, ok := km.Column(f); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", f, col))
		}
	}
	return strings.Join(parts, ", ")
}

// OutputNames derives the three output files for a run under dir
func OutputNames(dir, baseName, stamp string) run.Outputs {
	stem := strings.TrimSuffix(filepath.Base(baseName), filepath.Ext(baseName))
	if stem == "" || stem == "." {
		stem = "comparison"
	}
	return run.Outputs{
		Baseline:  run.Destination{Path: filepath.Join(dir, fmt.Sprintf("%s_baseline_compared_%s.xlsx", stem, stamp))},
		Candidate: run.Destination{Path: filepath.Join(dir, fmt.Sprintf("%s_candidate_compared_%s.xlsx", stem, stamp))},
		Diff:      run.Destination{Path: filepath.Join(dir, fmt.Sprintf("%s_diff_%s.xlsx", stem, stamp))},
	}
}
