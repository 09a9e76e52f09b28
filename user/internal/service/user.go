package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/mock"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

type UserClient interface {
	Login(c context.Context, param request.LoginRequest) (response.User, error)
}

type UserService struct {
	client UserClient
}

func NewUserService(client UserClient) *UserService {
	return &UserService{client: client}
}

// Login authenticates against the collaborator. When the collaborator cannot be reached
// the static mock users are checked instead; a collaborator that answers and refuses the
// credentials is final.
func (u *UserService) Login(
	c context.Context,
	param request.LoginRequest,
) (response.User, auth.Principal, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	logger.Info().Msg("validating request")
	err := validate.Get().StructCtx(c, param)
	if err != nil {
		err = fmt.Errorf("failed validating login request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, auth.Principal{}, err
	}
	logger.Info().Msg("validated request")

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	user, err := u.client.Login(logger.WithContext(c), param)
	if err == nil {
		logger.Info().Object(log.KeyPrincipal, user).Msg("logged in")
		return user, user.Principal(), nil
	}
	if errors.Is(err, inErrors.ErrRejected) {
		err = fmt.Errorf("failed logging in with error=%w", errors.Join(inErrors.ErrInvalidCredentials, err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, auth.Principal{}, err
	}
	logger.Warn().Err(err).Msg("collaborator unreachable using mock users")

	logger = logger.With().Str(log.KeyProcess, "finding mock user").Logger()
	logger.Info().Msg("finding mock user")
	found, ok := mock.FindUser(param.Email, param.Password)
	if !ok {
		err = fmt.Errorf("failed finding mock user with error=%w", inErrors.ErrInvalidCredentials)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, auth.Principal{}, err
	}
	user = response.User{
		ID:       found.ID,
		Username: found.Email,
		Email:    found.Email,
		Name:     found.Name,
		Role:     found.Role,
	}
	logger.Info().Object(log.KeyPrincipal, user).Msg("found mock user")

	return user, user.Principal(), nil
}
