package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Logging attaches a request id and a request scoped logger to the request context.
// Passwords in json bodies are masked before logging.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(inHttp.KeyHeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c, span := otel.Tracer.Start(
				r.Context(),
				"middleware Logging",
				trace.WithAttributes(
					attribute.String(log.KeyRequestID, requestID),
					attribute.String(log.KeyRequestHost, r.Host),
					attribute.String(log.KeyRequestIp, r.RemoteAddr),
					attribute.String(log.KeyRequestMethod, r.Method),
					attribute.String(log.KeyRequestURI, r.RequestURI),
				),
			)
			defer span.End()

			var buffer bytes.Buffer
			requestBody := map[string]interface{}{}
			if r.Body != nil {
				tee := io.TeeReader(r.Body, &buffer)
				_ = json.NewDecoder(tee).Decode(&requestBody)
				r.Body = io.NopCloser(io.MultiReader(&buffer, r.Body))
			}
			if requestBody["password"] != nil {
				requestBody["password"] = "****"
			}

			reqLogger := logger.With().
				Str(log.KeyRequestID, requestID).
				Dict(log.KeyRequest, zerolog.Dict().
					Str(log.KeyRequestHost, r.Host).
					Str(log.KeyRequestIp, r.RemoteAddr).
					Str(log.KeyRequestMethod, r.Method).
					Str(log.KeyRequestURI, r.RequestURI).
					Any(log.KeyRequestBody, requestBody)).
				Str(log.KeyTag, "middleware Logging").
				Logger()

			c = log.AttachRequestIDToContext(c, requestID)
			c = reqLogger.WithContext(c)
			r = r.WithContext(c)
			w.Header().Set(inHttp.KeyHeaderRequestID, requestID)
			reqLogger.Trace().Msg("attached request value to context")

			next.ServeHTTP(w, r)
		})
	}
}
