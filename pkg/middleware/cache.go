package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/filerelay/pkg/cache"
)

const (
	cacheMaxBody    = 1 << 20
	bypassHeader    = "X-Cache-Bypass"
	cacheStoreLimit = 2 * time.Second
)

// cachedResponse 缓存的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
}

// CacheMiddleware 短时缓存 GET 响应，用于统计这类计算较重但允许轻微滞后的接口.
// 响应带 ETag，If-None-Match 命中时返回 304；请求带 X-Cache-Bypass 时跳过缓存.
func CacheMiddleware(store *appcache.Cache, ttl time.Duration) gin.HandlerFunc {
	if store == nil || ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader(bypassHeader) != "" {
			c.Next()
			return
		}

		key := responseKey(c)

		if entry, err := appcache.Get[cachedResponse](c.Request.Context(), store, key); err == nil {
			serveCached(c, entry)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if c.Writer.Status() != http.StatusOK || w.overflow {
			return
		}

		body := w.buf.Bytes()
		entry := cachedResponse{
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        body,
			ETag:        fmt.Sprintf("\"%x\"", xxhash.Sum64(body)),
		}

		// 请求结束后 request context 可能已取消
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), cacheStoreLimit)
		defer cancel()

		_ = appcache.Set(ctx, store, key, entry, ttl)
	}
}

func serveCached(c *gin.Context, e cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", e.ETag)
	h.Set("X-Cache", "HIT")

	if c.GetHeader("If-None-Match") == e.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Data(e.Status, e.ContentType, e.Body)
	c.Abort()
}

// responseKey 路由模板 + 排序后的查询参数.
func responseKey(c *gin.Context) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	b.WriteString(c.Request.URL.Path)

	q := c.Request.URL.Query()
	keys := make([]string, 0, len(q))

	for k := range q {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString("&" + k + "=" + strings.Join(q[k], ","))
	}

	return fmt.Sprintf("rc:%x", xxhash.Sum64String(b.String()))
}

// captureWriter 复制响应体，超过上限的响应不缓存.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.buf.Len()+len(b) > cacheMaxBody {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
