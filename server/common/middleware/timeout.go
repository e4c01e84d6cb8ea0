package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"attendance_server/server/common/transport/httpresp"
)

// Timeout answers 503 when the handler has not finished within d. The
// handler is not cancelled. Its headers and body are buffered and only
// reach the client when it finishes in time.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		orig := c.Writer
		tw := &timeoutWriter{
			ResponseWriter: orig,
			h:              orig.Header().Clone(),
			code:           http.StatusOK,
		}
		c.Writer = tw
		timer := time.AfterFunc(d, tw.timeout)

		defer func() {
			timer.Stop()
			p := recover()
			if tw.complete(p == nil) {
				c.Writer = orig
			}
			if p != nil {
				panic(p)
			}
		}()
		c.Next()
	}
}

// timeoutWriter keeps the handler away from the real writer. Only timeout
// and complete touch the underlying ResponseWriter, both under mu.
type timeoutWriter struct {
	gin.ResponseWriter
	h    http.Header
	wbuf bytes.Buffer

	mu          sync.Mutex
	code        int
	wroteHeader bool
	timedOut    bool
	done        bool
}

func (w *timeoutWriter) timeout() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.timedOut = true

	body, _ := json.Marshal(httpresp.NewErrorResponse(httpresp.ErrRequestTimeout))
	h := w.ResponseWriter.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.ResponseWriter.Write(body)
	w.ResponseWriter.Flush()
}

// complete copies the buffered response to the client unless the timeout
// already answered. It reports whether the handler's response was used.
func (w *timeoutWriter) complete(flush bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	if w.timedOut {
		return false
	}
	if !flush {
		return true
	}

	dst := w.ResponseWriter.Header()
	for k := range dst {
		if _, ok := w.h[k]; !ok {
			delete(dst, k)
		}
	}
	for k, vv := range w.h {
		dst[k] = vv
	}
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(w.code)
	}
	if w.wbuf.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.wbuf.Bytes())
	}
	return true
}

func (w *timeoutWriter) Header() http.Header {
	return w.h
}

func (w *timeoutWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut || w.wroteHeader {
		return
	}
	w.code = code
	w.wroteHeader = true
}

func (w *timeoutWriter) WriteHeaderNow() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wroteHeader = true
}

func (w *timeoutWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return len(p), nil
	}
	w.wroteHeader = true
	return w.wbuf.Write(p)
}

func (w *timeoutWriter) WriteString(s string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return len(s), nil
	}
	w.wroteHeader = true
	return w.wbuf.WriteString(s)
}

func (w *timeoutWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return http.StatusServiceUnavailable
	}
	return w.code
}

func (w *timeoutWriter) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.wroteHeader {
		return -1
	}
	return w.wbuf.Len()
}

func (w *timeoutWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wroteHeader || w.timedOut
}

// Flush is a no-op; the response is sent when the handler returns.
func (w *timeoutWriter) Flush() {}
