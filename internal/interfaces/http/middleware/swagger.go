package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SwaggerConfig controls who may read /swagger
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs holds addresses or CIDR prefixes; empty allows every caller
	AllowedIPs []string
}

// SwaggerProtection guards the documentation routes. The address allowlist
// is checked before auth, so a refused caller never reaches the token check.
// Unparseable allowlist entries are logged and ignored.
func SwaggerProtection(cfg SwaggerConfig, auth gin.HandlerFunc, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	allow := parseAllowlist(cfg.AllowedIPs, logger)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}

		if restricted && !allow.contains(c.ClientIP()) {
			logger.Debug("Swagger request refused", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "API documentation is restricted", GetRequestID(c)))
			return
		}

		if cfg.RequireAuth && auth != nil {
			auth(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

type allowlist []netip.Prefix

func parseAllowlist(entries []string, logger *zap.Logger) allowlist {
	var out allowlist
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn("Ignoring swagger allowlist entry", zap.String("entry", raw), zap.Error(err))
				continue
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("Ignoring swagger allowlist entry", zap.String("entry", raw), zap.Error(err))
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

func (a allowlist) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range a {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
