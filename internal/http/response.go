package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/otel"
)

// WriteJsonResponse writes body as json with statusCode. The collaborator contract puts
// the payload next to "success" at the top level, so body is written as given.
func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderJson)
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

func WriteFailed(c context.Context, w http.ResponseWriter, statusCode int, message string) {
	WriteJsonResponse(c, w, statusCode, map[string]interface{}{
		"success": false,
		"status":  ValueStatusFailed,
		"message": message,
	})
}
