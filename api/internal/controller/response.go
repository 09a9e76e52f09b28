package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
)

// statusCode maps a service error onto the reply status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrProductNotFound),
		errors.Is(err, inErrors.ErrCartNotFound),
		errors.Is(err, inErrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrProductAlreadyExist):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrOutOfStock),
		errors.Is(err, inErrors.ErrInvalidProduct),
		errors.Is(err, inErrors.ErrInvalidQuantity),
		errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var publicErrors = []error{
	inErrors.ErrOutOfStock,
	inErrors.ErrInvalidCredentials,
	inErrors.ErrProductNotFound,
	inErrors.ErrCartNotFound,
	inErrors.ErrProductAlreadyExist,
	inErrors.ErrInvalidQuantity,
	inErrors.ErrEmptyCart,
}

// message is what the client is shown for err.
func message(err error) string {
	for _, public := range publicErrors {
		if errors.Is(err, public) {
			return public.Error()
		}
	}
	if statusCode(err) == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	c := r.Context()
	inOtel.RecordError(err, span)
	zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
	inHttp.WriteFailed(c, w, statusCode(err), message(err))
}

// decode reads the json body into out and validates it.
func decode(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("failed decoding request body with error=%w", err)
	}
	if err := validate.Get().StructCtx(r.Context(), out); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	c := r.Context()
	inOtel.RecordError(err, span)
	zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
	inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
}
