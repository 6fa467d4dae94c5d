package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/gin-gonic/gin"

	core "github.com/loverust/paybridge/core"
)

// requestSources flattens a processor callback into probe sources: body
// first, then query. Processors have delivered JSON, urlencoded and
// multipart bodies over the years, so all three are accepted.
func requestSources(c *gin.Context) []core.Source {
	return []core.Source{bodySource(c), querySource(c)}
}

func bodySource(c *gin.Context) core.Source {
	out := core.Source{}
	ct, _, _ := mime.ParseMediaType(c.ContentType())
	switch {
	case strings.Contains(ct, "json"):
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err == nil {
			for k, v := range raw {
				out[k] = stringify(v)
			}
		}
	default:
		// Urlencoded and multipart forms both land in PostForm.
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
			_ = c.Request.ParseForm()
		}
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}
	}
	return out
}

func querySource(c *gin.Context) core.Source {
	out := core.Source{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// stringify renders JSON scalar values the way a form field would arrive.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// Avoid the %v exponent form for large transaction numbers.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// secret extracts the shared secret from header, body or query.
func secret(c *gin.Context, sources []core.Source) string {
	if v := strings.TrimSpace(c.GetHeader("X-Api-Key")); v != "" {
		return v
	}
	return core.Extract(sources).Secret
}
