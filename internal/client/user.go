package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

type loginReply struct {
	Success bool          `json:"success"`
	User    response.User `json:"user"`
	Message string        `json:"message"`
}

func (cl *Client) Login(c context.Context, param request.LoginRequest) (response.User, error) {
	c, span := otel.Tracer.Start(c, "Client Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	reply := loginReply{}
	status, err := cl.do(
		logger.WithContext(c),
		http.MethodPost,
		"/auth/login",
		param.Credentials(),
		&reply,
	)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	user := reply.User
	if user.Email == "" {
		user.Email = user.Username
	}
	if user.Name == "" {
		user.Name = user.Username
	}
	logger.Info().Str(log.KeyUserID, user.ID).Str(log.KeyRole, string(user.Role)).Msg("logged in")

	return user, nil
}
