package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/store"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/product/pkg/response"
)

type ProductService struct {
	store store.Store
}

func NewProductService(s store.Store) *ProductService {
	return &ProductService{store: s}
}

func validateProduct(product response.Product) error {
	switch {
	case strings.TrimSpace(product.Name) == "":
		return fmt.Errorf("%w name is required", inErrors.ErrInvalidProduct)
	case product.Price.IsNegative():
		return fmt.Errorf("%w price must not be negative", inErrors.ErrInvalidProduct)
	case product.Image != "" && validate.Get().Var(product.Image, "url") != nil:
		return fmt.Errorf("%w image must be an url", inErrors.ErrInvalidProduct)
	}
	return nil
}

func (svc *ProductService) GetProducts(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService GetProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "listing products").Logger()
	logger.Info().Msg("listing products")
	products, err := svc.store.ListProducts(c)
	if err != nil {
		err = fmt.Errorf("failed listing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyProductsCount, len(products)).Msg("listed products")

	return products, nil
}

func (svc *ProductService) InsertProduct(
	c context.Context,
	product response.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	product.Normalize()
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService InsertProduct").
		Str(log.KeyProductID, product.ID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
	if err := validateProduct(product); err != nil {
		err = fmt.Errorf("failed validating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	product, err := svc.store.InsertProduct(c, product)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("inserted product")

	return product, nil
}

// UpdateProduct replaces the product stored under id. The id in the path wins over any
// id in the body.
func (svc *ProductService) UpdateProduct(
	c context.Context,
	id string,
	product response.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService UpdateProduct").
		Str(log.KeyProductID, id).
		Logger()

	product.ID = id
	product.Normalize()
	logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
	if err := validateProduct(product); err != nil {
		err = fmt.Errorf("failed validating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	product, err := svc.store.UpdateProduct(c, product)
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("updated product")

	return product, nil
}

func (svc *ProductService) DeleteProduct(c context.Context, id string) error {
	c, span := otel.Tracer.Start(c, "ProductService DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService DeleteProduct").
		Str(log.KeyProductID, id).
		Str(log.KeyProcess, "deleting product").
		Logger()

	logger.Info().Msg("deleting product")
	if err := svc.store.DeleteProduct(c, id); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted product")

	return nil
}
