package middleware

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

// minCompressSize is the first write below which a response is sent uncompressed.
const minCompressSize = 1024

// CompressionMiddleware gzips page responses for clients that accept it. Paths in skip are
// passed through, e.g. /metrics which compresses on its own.
func CompressionMiddleware(skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}
		for _, path := range skip {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		gz := &gzipWriter{ResponseWriter: c.Writer}
		c.Writer = gz
		defer gz.close()

		c.Header("Vary", "Accept-Encoding")
		c.Next()
	}
}

// gzipWriter decides on the first write whether to compress.
type gzipWriter struct {
	gin.ResponseWriter
	writer  *gzip.Writer
	decided bool
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	if !g.decided {
		g.decided = true
		if len(data) >= minCompressSize && !skipContentType(g.Header().Get("Content-Type")) {
			g.Header().Set("Content-Encoding", "gzip")
			g.Header().Del("Content-Length")
			g.writer = gzip.NewWriter(g.ResponseWriter)
		}
	}
	if g.writer == nil {
		return g.ResponseWriter.Write(data)
	}
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipWriter) close() {
	if g.writer != nil {
		_ = g.writer.Close()
	}
}

func skipContentType(contentType string) bool {
	skipTypes := []string{
		"image/",
		"video/",
		"audio/",
		"application/zip",
		"application/gzip",
		"application/x-gzip",
	}

	for _, skipType := range skipTypes {
		if strings.HasPrefix(contentType, skipType) {
			return true
		}
	}
	return false
}
