package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edgegate/gatekeeper/internal/config"
)

// corsContext holds pre-computed values for the CORS middleware.
type corsContext struct {
	cfg             config.CORSConfig
	allowAllOrigins bool
	allowMethodsStr string
	allowHeadersStr string
	maxAgeStr       string
}

func newCORSContext(cfg config.CORSConfig) *corsContext {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	}
	maxAge := int(cfg.MaxAge.Duration().Seconds())
	if maxAge <= 0 {
		maxAge = 86400
	}

	allowAll := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	return &corsContext{
		cfg:             cfg,
		allowAllOrigins: allowAll,
		allowMethodsStr: strings.Join(cfg.AllowedMethods, ", "),
		allowHeadersStr: strings.Join(cfg.AllowedHeaders, ", "),
		maxAgeStr:       strconv.Itoa(maxAge),
	}
}

// CORS returns a middleware that handles cross-origin requests per the
// given configuration. A disabled configuration is a pass-through.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	ctx := newCORSContext(cfg)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowed := ctx.allowAllOrigins
		if !allowed {
			for _, o := range ctx.cfg.AllowedOrigins {
				if o == origin {
					allowed = true
					break
				}
			}
		}
		if !allowed {
			c.Next()
			return
		}

		if ctx.allowAllOrigins && !ctx.cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		if ctx.cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", ctx.allowMethodsStr)
			c.Header("Access-Control-Allow-Headers", ctx.allowHeadersStr)
			c.Header("Access-Control-Max-Age", ctx.maxAgeStr)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
