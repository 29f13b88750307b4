package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality   int
	MinLength int
	// ExcludedPrefixes are request paths served uncompressed, such as
	// uploaded files that are already compressed.
	ExcludedPrefixes []string
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:          brotli.DefaultCompression,
	MinLength:        1024,
	ExcludedPrefixes: []string{"/uploads/"},
}

// Content types that gain nothing from a second compression pass.
var precompressedTypes = []string{"image/", "video/", "audio/", "application/zip", "application/pdf"}

type brotliWriter struct {
	gin.ResponseWriter
	writer    *brotli.Writer
	buf       []byte
	minLength int
	decided   bool
	compress  bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.decided {
		if bw.compress {
			return bw.writer.Write(data)
		}
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}

	bw.decided = true
	bw.compress = compressible(bw.Header().Get("Content-Type"))
	if bw.compress {
		bw.Header().Set("Content-Encoding", "br")
		bw.Header().Del("Content-Length")
	}

	out := bw.buf
	bw.buf = nil
	var err error
	if bw.compress {
		_, err = bw.writer.Write(out)
	} else {
		_, err = bw.ResponseWriter.Write(out)
	}
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush is called by streaming endpoints. A body still below MinLength is
// sent uncompressed.
func (bw *brotliWriter) Flush() {
	if bw.compress {
		_ = bw.writer.Flush()
	} else {
		_ = bw.drain()
	}
	bw.ResponseWriter.Flush()
}

// finish sends a short body as-is or closes the compressor.
func (bw *brotliWriter) finish() error {
	if bw.compress {
		return bw.writer.Close()
	}
	return bw.drain()
}

func (bw *brotliWriter) drain() error {
	bw.decided = true
	if len(bw.buf) == 0 {
		return nil
	}
	_, err := bw.ResponseWriter.Write(bw.buf)
	bw.buf = nil
	return err
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c, cfg.ExcludedPrefixes) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			writer:         brotli.NewWriterLevel(c.Writer, cfg.Quality),
		}
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip passes through WebSocket upgrades, event streams and excluded paths.
func shouldSkip(c *gin.Context, excluded []string) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// The upgrade handshake fails if the response is wrapped
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	for _, p := range excluded {
		if strings.HasPrefix(c.Request.URL.Path, p) {
			return true
		}
	}
	return false
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, p := range precompressedTypes {
		if strings.HasPrefix(ct, p) {
			return false
		}
	}
	return true
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
