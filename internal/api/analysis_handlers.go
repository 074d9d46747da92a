package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"statcalc/domain/core"
	"statcalc/domain/stats"
	"statcalc/internal/analysis/hypothesis"
	"statcalc/internal/report"
)

func noDataset() error { return core.ErrNoDataset }

type statisticsRequest struct {
	Columns      []string `json:"columns"`
	Calculations []string `json:"calculations"`
}

func (s *Server) handleStatistics(c *gin.Context) {
	var req statisticsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	out, err := s.service.RunStatistics(c.Request.Context(), req.Columns, req.Calculations)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type testRequest struct {
	TestType       string   `json:"test_type" binding:"required"`
	Columns        []string `json:"columns"`
	PopulationMean *float64 `json:"population_mean"`
	Alpha          float64  `json:"alpha"`
	EqualVariance  *bool    `json:"equal_variance"`
}

func (s *Server) handleTest(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	kind, err := stats.ParseTestKind(req.TestType)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	out, err := s.service.RunTest(c.Request.Context(), hypothesis.Request{
		Kind:           kind,
		Columns:        req.Columns,
		PopulationMean: req.PopulationMean,
		Alpha:          req.Alpha,
		EqualVariance:  req.EqualVariance,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := s.service.History(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": history})
}

func analysisID(c *gin.Context) (core.AnalysisID, error) {
	return core.ParseAnalysisID(c.Param("id"))
}

// handleAnalysis returns the stored details, or one gjson path of the summary with ?path=
func (s *Server) handleAnalysis(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if path := c.Query("path"); path != "" {
		res, err := s.service.QuerySummary(c.Request.Context(), id, path)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path, "value": json.RawMessage(res.Raw)})
		return
	}
	details, err := s.service.Details(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) handleDeleteAnalysis(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.service.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleReport(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	format, err := report.ParseFormat(c.DefaultQuery("format", "md"))
	if err != nil {
		s.fail(c, err)
		return
	}
	body, err := s.service.Report(c.Request.Context(), id, format)
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.Query("save") == "true" && s.exporter != nil {
		details, err := s.service.Details(c.Request.Context(), id)
		if err != nil {
			s.fail(c, err)
			return
		}
		key, err := s.exporter.Export(c.Request.Context(), fmt.Sprintf("analysis-%s", id), report.Analysis(details), format)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Header("X-Report-Key", key)
	}

	contentType := "text/markdown; charset=utf-8"
	if format == report.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, body)
}

func (s *Server) handleDatasets(c *gin.Context) {
	datasets, err := s.service.Datasets(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

func (s *Server) handleDataset(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ds, err := s.service.Dataset(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *Server) handleGetPreference(c *gin.Context) {
	key := c.Param("key")
	value, err := s.service.GetPreference(c.Request.Context(), key, c.Query("default"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preference_key": key, "preference_value": value})
}

type preferenceRequest struct {
	Value string `json:"value" binding:"required"`
}

func (s *Server) handlePutPreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	key := c.Param("key")
	if err := s.service.SetPreference(c.Request.Context(), key, req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preference_key": key, "preference_value": req.Value})
}
