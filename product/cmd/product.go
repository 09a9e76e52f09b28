package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/client"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/view"
	"github.com/Alturino/storefront/product/internal/cache"
	"github.com/Alturino/storefront/product/internal/filter"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/internal/service"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

// newProductService wires the catalog service to the collaborator and, when enabled, the
// redis snapshot. The returned func releases the redis connection.
func newProductService(c context.Context, cfg *config.Config) (*service.ProductService, func()) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd newProductService").
		Str(log.KeyURL, cfg.Api.BaseURL).
		Logger()

	cl := client.New(cfg.Api.BaseURL, cfg.Api.Timeout)
	if !cfg.Catalog.UseSnapshot {
		return service.NewProductService(cl, nil), func() {}
	}

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	redisClient, err := infra.NewCacheClient(logger.WithContext(c), cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Msg("failed initializing cache continuing without snapshot")
		return service.NewProductService(cl, nil), func() {}
	}
	logger.Info().Msg("initialized cache")

	snapshot := cache.NewSnapshot(redisClient, cfg.Catalog.SnapshotTTL)
	return service.NewProductService(cl, snapshot), func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("failed closing cache")
		}
	}
}

// RunCatalog loads the catalog and writes the view filtered by query and category.
func RunCatalog(
	c context.Context,
	cfg *config.Config,
	param request.FindProduct,
	w io.Writer,
) error {
	c, span := otel.Tracer.Start(c, "cmd RunCatalog")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd RunCatalog").
		Str(log.KeyQuery, param.Query).
		Str(log.KeyCategory, param.Category).
		Logger()
	c = logger.WithContext(c)

	svc, release := newProductService(c, cfg)
	defer release()

	logger = logger.With().Str(log.KeyProcess, "loading catalog").Logger()
	logger.Info().Msg("loading catalog")
	products, source := svc.GetProducts(c)
	logger.Info().Str(log.KeySource, string(source)).Msg("loaded catalog")

	logger = logger.With().Str(log.KeyProcess, "filtering catalog").Logger()
	search := filter.NewSearch(cfg.Catalog.Debounce, nil)
	defer search.Close()
	search.SetProducts(products)
	if param.Category != "" {
		search.SetCategory(param.Category)
	}
	search.SetQuery(param.Query)
	search.Flush()
	logger.Info().Int(log.KeyFilteredCount, search.Count()).Msg("filtered catalog")

	_, err := io.WriteString(w, view.Products(search.View(), string(source)))
	return err
}

func RunShowProduct(c context.Context, cfg *config.Config, id string, w io.Writer) error {
	c, span := otel.Tracer.Start(c, "cmd RunShowProduct")
	defer span.End()

	svc, release := newProductService(c, cfg)
	defer release()

	product, err := svc.FindProductByID(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	_, err = io.WriteString(w, view.Products([]response.Product{product}, ""))
	return err
}

func RunAddProduct(
	c context.Context,
	cfg *config.Config,
	principal auth.Principal,
	param request.Product,
	w io.Writer,
) error {
	c, span := otel.Tracer.Start(c, "cmd RunAddProduct")
	defer span.End()

	svc, release := newProductService(c, cfg)
	defer release()

	product, err := svc.AddProduct(c, principal, param)
	if err != nil {
		err = fmt.Errorf("failed adding product with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	_, err = io.WriteString(w, view.Product(product))
	return err
}

func RunUpdateProduct(
	c context.Context,
	cfg *config.Config,
	principal auth.Principal,
	id string,
	param request.Product,
	w io.Writer,
) error {
	c, span := otel.Tracer.Start(c, "cmd RunUpdateProduct")
	defer span.End()

	svc, release := newProductService(c, cfg)
	defer release()

	product, err := svc.UpdateProduct(c, principal, id, param)
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	_, err = io.WriteString(w, view.Product(product))
	return err
}

func RunDeleteProduct(
	c context.Context,
	cfg *config.Config,
	principal auth.Principal,
	id string,
	w io.Writer,
) error {
	c, span := otel.Tracer.Start(c, "cmd RunDeleteProduct")
	defer span.End()

	svc, release := newProductService(c, cfg)
	defer release()

	if err := svc.DeleteProduct(c, principal, id); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	_, err := fmt.Fprintf(w, "deleted product id=%s\n", id)
	return err
}
