package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creator-trends/internal/auth"
	"creator-trends/internal/metrics"
	"creator-trends/internal/storage"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.RecordHTTP(route, c.Request.Method, strconv.Itoa(status), latency.Seconds())

		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Msg("request served")
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				c.Writer.Header().Add("Vary", "Origin")
			} else if wildcard {
				// browsers reject credentials on a wildcard origin
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authenticate resolves the caller into a stored user. In development a missing
// header or the dev token maps to the fixed development identity.
func authenticate(verifier TokenVerifier, users storage.UserStore, development bool, devToken string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		var ident storage.Identity
		switch {
		case development && (header == "" || (devToken != "" && header == "Bearer "+devToken)):
			ident = auth.DevIdentity
		case !strings.HasPrefix(header, "Bearer "):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		default:
			verified, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Debug().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("token rejected")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			ident = verified
		}

		user, err := users.FindOrCreateUser(c.Request.Context(), ident)
		if err != nil {
			logger.Error().Err(err).Str("uid", ident.UID).Msg("failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// rateLimit admits the call through the usage gate or answers 429 with the applied limit.
func rateLimit(gate Admission, route string, limit int, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		decision, err := gate.Check(c.Request.Context(), user.UID, limit)
		if err != nil {
			logger.Error().Err(err).Str("uid", user.UID).Str("route", route).Msg("usage check failed")
			if errors.Is(err, storage.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check usage"})
			return
		}

		metrics.RecordAdmission(route, decision.Admitted)
		if !decision.Admitted {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Daily API limit exceeded",
				"limit":   decision.Limit,
				"upgrade": true,
			})
			return
		}

		user.Usage = decision.Counter
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) storage.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(storage.User); ok {
			return user
		}
	}
	return storage.User{}
}
