package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/internal/report"
)

// handleDownload serves a result file by base name from the results directory
func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}
	path := filepath.Join(s.config.Server.ResultsDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []run.Record{}})
		return
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}
	runs, err := s.history.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.Error("[API] list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read run history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

func (s *Server) handleGetRun(c *gin.Context) {
	rec, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleRunReport(c *gin.Context) {
	rec, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(*rec, nil))
}

// lookupRun writes the error response itself when it returns false
func (s *Server) lookupRun(c *gin.Context) (*run.Record, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return nil, false
	}
	rec, err := s.history.Get(c.Request.Context(), id)
	if core.IsNotFoundError(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error("[API] get run %s: %v", id.Short(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read run history"})
		return nil, false
	}
	return rec, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
