package api

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"sheetdiff/app"
	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/internal/errors"
	"sheetdiff/internal/progress"
	"sheetdiff/internal/reconcile"
)

// compareResponse is the body of a synchronous POST /api/compare
type compareResponse struct {
	Success     bool         `json:"success"`
	RunID       core.RunID   `json:"runId"`
	Summary     *run.Summary `json:"summary"`
	ResultFiles []string     `json:"resultFiles"`
	Log         []string     `json:"log"`
	Error       string       `json:"error,omitempty"`
}

// handleCompare accepts two uploaded documents and compares them
func (s *Server) handleCompare(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Server.MaxUploadBytes)

	req := &run.Request{ID: core.NewRunID()}
	if err := s.parseOptions(c, req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	uploadDir := filepath.Join(s.config.Server.ResultsDir, "uploads", req.ID.String())
	var err error
	if req.Baseline, err = s.saveUpload(c, "baselineFile", uploadDir); err == nil {
		req.Candidate, err = s.saveUpload(c, "compareFile", uploadDir)
	}
	if err != nil {
		os.RemoveAll(uploadDir)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	stamp := core.Stamp(s.now()) + "_" + req.ID.Short()
	req.Outputs = app.OutputNames(s.config.Server.ResultsDir, req.Baseline.Name, stamp)

	if c.Query("async") == "true" {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			defer os.RemoveAll(uploadDir)
			sum, _ := s.runComparison(context.Background(), req, nil)
			s.hub.Finish(sum)
		}()
		c.JSON(http.StatusAccepted, gin.H{"runId": req.ID})
		return
	}

	defer os.RemoveAll(uploadDir)
	collector := progress.NewCollector()
	sum, err := s.runComparison(c.Request.Context(), req, collector)
	s.hub.Finish(sum)

	resp := compareResponse{
		Success:     err == nil,
		RunID:       req.ID,
		Summary:     sum,
		ResultFiles: baseNames(sum.Outputs),
		Log:         collector.Lines(),
	}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// runComparison waits for a comparison slot and runs req under the compare
// timeout. Waiting for a slot counts against the same timeout.
func (s *Server) runComparison(parent context.Context, req *run.Request, extra *progress.Collector) (*run.Summary, error) {
	ctx, cancel := context.WithTimeout(parent, s.config.Server.CompareTimeout)
	defer cancel()

	sinks := progress.NewMulti(s.hub.Sink(req.ID))
	if extra != nil {
		sinks = append(sinks, extra)
	}

	if err := s.limiter.Acquire(ctx, 1); err != nil {
		s.logger.Warn("[API] run %s: no comparison slot within %s", req.ID.Short(), s.config.Server.CompareTimeout)
		err = errors.New(codeBusy, "too many comparisons in progress, try again later")
		return &run.Summary{RunID: req.ID, Outcome: run.OutcomeFailed, ErrorCode: codeBusy, ErrorDetail: err.Error()}, err
	}
	defer s.limiter.Release(1)

	return s.compare.Compare(ctx, req, sinks)
}

// codeBusy marks a request rejected because every comparison slot stayed taken
const codeBusy = "BUSY"

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case codeBusy:
		return http.StatusServiceUnavailable
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound, errors.CodeLoadError, errors.CodeSheetNotFound, errors.CodeDuplicateKey:
		return http.StatusUnprocessableEntity
	case errors.CodeCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseOptions reads headerRow, keyFields and sheet form fields, then the
// optional options JSON, which wins over the individual fields
func (s *Server) parseOptions(c *gin.Context, req *run.Request) error {
	defaults := s.config.Compare
	req.HeaderRow = defaults.HeaderRow
	req.SheetName = defaults.SheetName
	req.ReadOnly = defaults.ReadOnly
	req.StrictKeys = defaults.StrictKeys
	keyFields := defaults.KeyFields

	if v := strings.TrimSpace(c.PostForm("headerRow")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("headerRow must be a positive integer, got %q", v)
		}
		req.HeaderRow = n
	}
	if v, ok := c.GetPostForm("keyFields"); ok {
		keyFields = v
	}
	if v := strings.TrimSpace(c.PostForm("sheet")); v != "" {
		req.SheetName = v
	}

	if raw := strings.TrimSpace(c.PostForm("options")); raw != "" {
		if !gjson.Valid(raw) {
			return fmt.Errorf("options is not valid JSON")
		}
		opts := gjson.Parse(raw)
		if v := opts.Get("headerRow"); v.Exists() {
			if v.Type != gjson.Number || v.Int() < 1 {
				return fmt.Errorf("options.headerRow must be a positive integer")
			}
			req.HeaderRow = int(v.Int())
		}
		if v := opts.Get("keyFields"); v.Exists() {
			if v.IsArray() {
				parts := make([]string, 0, len(v.Array()))
				for _, item := range v.Array() {
					parts = append(parts, item.String())
				}
				keyFields = strings.Join(parts, ",")
			} else {
				keyFields = v.String()
			}
		}
		if v := opts.Get("sheet"); v.Exists() {
			req.SheetName = v.String()
		}
		if v := opts.Get("readOnly"); v.Exists() {
			req.ReadOnly = v.Bool()
		}
		if v := opts.Get("strictKeys"); v.Exists() {
			req.StrictKeys = v.Bool()
		}
	}

	fields, err := reconcile.ParseKeyFields(keyFields)
	if err != nil {
		return err
	}
	req.KeyFields = fields
	return nil
}

// saveUpload stores one multipart file under dir and returns it as a source
func (s *Server) saveUpload(c *gin.Context, field, dir string) (run.Source, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return run.Source{}, fmt.Errorf("%s is required", field)
	}
	name := safeName(fh)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
	default:
		return run.Source{}, fmt.Errorf("%s: unsupported file type %q", field, filepath.Ext(name))
	}
	// both uploads may carry the same name
	path := filepath.Join(dir, field, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return run.Source{}, err
	}
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return run.Source{}, fmt.Errorf("%s: %w", field, err)
	}
	return run.Source{Name: name, Path: path}, nil
}

func safeName(fh *multipart.FileHeader) string {
	name := filepath.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.xlsx"
	}
	return name
}

func baseNames(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Base(p))
	}
	return out
}
