package blob

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/gin-gonic/gin"
)

// Register mounts the preview handler on r.
func (s *Store) Register(r gin.IRoutes) {
	r.GET(Route+"/*path", s.Handler())
}

// Handler serves a blob to callers presenting a valid ?token=.
func (s *Store) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := strings.TrimPrefix(c.Param("path"), "/")
		if err := s.Verify(c.Query("token"), p); err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrInvalidPath) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		f, err := s.Get(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
				return
			}
			s.logger.WithError(err).Error("Failed to open blob", logging.F(logging.FieldFile, p))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open blob"})
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stat blob"})
			return
		}
		contentType := mime.TypeByExtension(path.Ext(p))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)
	}
}
