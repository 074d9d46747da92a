package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"statcalc/domain/dataset"
	"statcalc/internal/session"
)

type loadRequest struct {
	Path string `json:"path" binding:"required"`
}

// handleLoad loads a server-side path given as JSON, or a multipart upload in field "file"
func (s *Server) handleLoad(c *gin.Context) {
	path, cleanup, err := s.uploadedOrPath(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	defer cleanup()

	handle, err := s.service.Session().Load(c.Request.Context(), path)
	if err != nil {
		s.fail(c, err)
		return
	}
	summary, _ := s.service.Session().Summary()
	c.JSON(http.StatusOK, gin.H{"dataset": handle, "summary": summary})
}

func (s *Server) uploadedOrPath(c *gin.Context) (string, func(), error) {
	noop := func() {}
	if file, err := c.FormFile("file"); err == nil {
		dir, err := os.MkdirTemp("", "statcalc-upload-")
		if err != nil {
			return "", noop, err
		}
		path := filepath.Join(dir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			os.RemoveAll(dir)
			return "", noop, err
		}
		return path, func() { os.RemoveAll(dir) }, nil
	}
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", noop, err
	}
	return req.Path, noop, nil
}

func (s *Server) handleClean(c *gin.Context) {
	var req dataset.CleaningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	rep, err := s.service.Session().Clean(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.service.Session().Reset(); err != nil {
		s.fail(c, err)
		return
	}
	current, _ := s.service.Session().Current()
	c.JSON(http.StatusOK, gin.H{"dataset": current})
}

func (s *Server) handleClear(c *gin.Context) {
	s.service.Session().Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleColumns(c *gin.Context) {
	sess := s.service.Session()
	if !sess.Loaded() {
		s.fail(c, noDataset())
		return
	}
	var filter []dataset.ColumnType
	if t := c.Query("type"); t != "" {
		filter = append(filter, dataset.ColumnType(t))
	}
	c.JSON(http.StatusOK, gin.H{"columns": sess.Columns(filter...)})
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.service.Session().Summary()
	if err != nil {
		s.fail(c, err)
		return
	}
	current, _ := s.service.Session().Current()
	c.JSON(http.StatusOK, gin.H{"dataset": current, "summary": summary})
}

func (s *Server) handleRows(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	rows, err := s.service.Session().Rows(offset, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = cellJSON(v)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"columns": s.service.Session().ColumnNames(),
		"offset":  offset,
		"rows":    cells,
	})
}

func cellJSON(v dataset.Value) any {
	switch v.Kind {
	case dataset.KindNumber:
		return v.Num
	case dataset.KindText:
		return v.Text
	default:
		return nil
	}
}

func (s *Server) handleSearch(c *gin.Context) {
	rows, err := s.service.Session().Search(c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

func (s *Server) handleValidate(c *gin.Context) {
	settings := session.DefaultValidationSettings()
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&settings); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	rep, err := s.service.Session().Validate(settings)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// handleColumnValues serves a numeric column, or row-aligned pairs with ?with=<other>
func (s *Server) handleColumnValues(c *gin.Context) {
	name := c.Param("name")
	if other := c.Query("with"); other != "" {
		pairs, err := s.service.Session().PairedValues(name, other)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pairs": pairs})
		return
	}
	values, err := s.service.Session().ColumnValues(name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"column": name, "values": values})
}
