package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

const KeyProductsSnapshot = "storefront:products:snapshot"

// Snapshot keeps the last catalog loaded from the collaborator in redis.
type Snapshot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshot(client *redis.Client, ttl time.Duration) *Snapshot {
	return &Snapshot{client: client, ttl: ttl}
}

func (s *Snapshot) Save(c context.Context, products []response.Product) error {
	c, span := otel.Tracer.Start(c, "Snapshot Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Snapshot Save").
		Str(log.KeyCacheKey, KeyProductsSnapshot).
		Int(log.KeyProductsCount, len(products)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "encoding snapshot").Logger()
	b, err := json.Marshal(products)
	if err != nil {
		err = fmt.Errorf("failed encoding snapshot with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "saving snapshot to cache").Logger()
	logger.Trace().Msg("saving snapshot to cache")
	err = s.client.Set(c, KeyProductsSnapshot, b, s.ttl).Err()
	if err != nil {
		err = fmt.Errorf("failed saving snapshot to cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("saved snapshot to cache")

	return nil
}

// Load returns the saved catalog, or ErrProductNotFound when there is none.
func (s *Snapshot) Load(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "Snapshot Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Snapshot Load").
		Str(log.KeyCacheKey, KeyProductsSnapshot).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading snapshot from cache").Logger()
	logger.Trace().Msg("loading snapshot from cache")
	b, err := s.client.Get(c, KeyProductsSnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		err = fmt.Errorf("failed loading snapshot with error=%w", inErrors.ErrProductNotFound)
		logger.Info().Err(err).Msg(err.Error())
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed loading snapshot from cache with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "decoding snapshot").Logger()
	products := []response.Product{}
	err = json.Unmarshal(b, &products)
	if err != nil {
		err = fmt.Errorf("failed decoding snapshot with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyProductsCount, len(products)).Msg("loaded snapshot from cache")

	return products, nil
}
