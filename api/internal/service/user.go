package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s}
}

// Login checks the credentials against the stored bcrypt hash. Unknown emails and wrong
// passwords both fail with ErrInvalidCredentials.
func (svc *UserService) Login(
	c context.Context,
	param request.Credentials,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Username).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user by email").Logger()
	logger.Info().Msg("finding user by email")
	user, err := svc.store.FindUserByEmail(c, param.Username)
	if errors.Is(err, inErrors.ErrUserNotFound) {
		err = fmt.Errorf("failed finding user with error=%w", errors.Join(inErrors.ErrInvalidCredentials, err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed finding user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID).Logger()
	logger.Info().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "comparing password").Logger()
	logger.Info().Msg("comparing password")
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(param.Password))
	if err != nil {
		err = fmt.Errorf("failed comparing password with error=%w", errors.Join(inErrors.ErrInvalidCredentials, err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("compared password")

	createdAt := user.CreatedAt
	return response.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: &createdAt,
	}, nil
}
