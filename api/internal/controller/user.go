package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/service"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserController struct {
	service *service.UserService
}

func AttachUserController(router *mux.Router, svc *service.UserService) {
	controller := UserController{service: svc}

	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	param := request.Credentials{}
	if err := decode(r, &param); err != nil {
		writeBadRequest(w, r, span, err)
		return
	}
	logger = logger.With().Str(log.KeyEmail, param.Username).Logger()
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	user, err := ctrl.service.Login(c, param)
	if err != nil {
		writeError(w, r, span, err)
		return
	}
	logger.Info().Object(log.KeyPrincipal, user).Msg("logged in")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
