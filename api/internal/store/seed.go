package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/mock"
	"github.com/Alturino/storefront/internal/otel"
)

// New opens the store selected by cfg.Api.Store.
func New(c context.Context, cfg *config.Config) (Store, error) {
	c, span := otel.Tracer.Start(c, "store New")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "store New").
		Str(log.KeyStore, cfg.Api.Store).
		Logger()
	c = logger.WithContext(c)

	switch strings.ToLower(cfg.Api.Store) {
	case "", KindMemory:
		logger.Info().Msg("using memory store")
		return NewMemory(), nil
	case KindRedis:
		client, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			otel.RecordError(err, span)
			return nil, err
		}
		logger.Info().Msg("using redis store")
		return NewRedis(client), nil
	case KindPostgres:
		pool, err := infra.NewDatabaseClient(c, cfg.Database)
		if err != nil {
			otel.RecordError(err, span)
			return nil, err
		}
		logger.Info().Msg("using postgres store")
		return NewPostgres(pool), nil
	default:
		err := fmt.Errorf("%w store=%s", inErrors.ErrUnknownStore, cfg.Api.Store)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
}

// Seed loads the mock catalog into an empty store and upserts the mock users with
// hashed passwords.
func Seed(c context.Context, s Store) error {
	c, span := otel.Tracer.Start(c, "store Seed")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "store Seed").Logger()

	logger = logger.With().Str(log.KeyProcess, "seeding products").Logger()
	logger.Info().Msg("seeding products")
	products, err := s.ListProducts(c)
	if err != nil {
		err = fmt.Errorf("failed listing products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if len(products) == 0 {
		for _, product := range mock.Products() {
			if _, err := s.InsertProduct(c, product); err != nil {
				err = fmt.Errorf("failed seeding product id=%s with error=%w", product.ID, err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return err
			}
		}
		logger.Info().Int(log.KeyProductsCount, len(mock.Products())).Msg("seeded products")
	} else {
		logger.Info().Int(log.KeyProductsCount, len(products)).Msg("products already present")
	}

	logger = logger.With().Str(log.KeyProcess, "seeding users").Logger()
	logger.Info().Msg("seeding users")
	for _, user := range mock.Users() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			err = fmt.Errorf("failed hashing password with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		username, _, _ := strings.Cut(user.Email, "@")
		err = s.InsertUser(c, User{
			ID:           user.ID,
			Email:        user.Email,
			Username:     username,
			Name:         user.Name,
			PasswordHash: string(hashed),
			Role:         user.Role,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			err = fmt.Errorf("failed seeding user email=%s with error=%w", user.Email, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	logger.Info().Int("usersCount", len(mock.Users())).Msg("seeded users")

	return nil
}
