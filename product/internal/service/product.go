package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/mock"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/otel/metric"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

type ProductClient interface {
	GetProducts(c context.Context) ([]response.Product, error)
	AddProduct(c context.Context, product response.Product) (response.Product, error)
	UpdateProduct(c context.Context, id string, product response.Product) (response.Product, error)
	DeleteProduct(c context.Context, id string) error
}

// SnapshotStore keeps the last catalog loaded from the collaborator.
type SnapshotStore interface {
	Save(c context.Context, products []response.Product) error
	Load(c context.Context) ([]response.Product, error)
}

type Source string

const (
	SourceAPI   Source = "api"
	SourceCache Source = "cache"
	SourceMock  Source = "mock"
)

type ProductService struct {
	client   ProductClient
	snapshot SnapshotStore

	mu       sync.RWMutex
	products []response.Product
	source   Source

	fallbackCounter otelmetric.Int64Counter
}

// NewProductService returns a catalog service over client. snapshot may be nil, in which
// case a failed load goes straight to the mock catalog.
func NewProductService(client ProductClient, snapshot SnapshotStore) *ProductService {
	return &ProductService{
		client:          client,
		snapshot:        snapshot,
		fallbackCounter: metric.Counter("catalog.fallback", "catalog loads served from cache or mock data"),
	}
}

// GetProducts loads the catalog from the collaborator, then from the snapshot, then from
// the mock catalog. It always returns a catalog together with where it came from.
func (svc *ProductService) GetProducts(c context.Context) ([]response.Product, Source) {
	c, span := otel.Tracer.Start(c, "ProductService GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService GetProducts").
		Logger()
	c = logger.WithContext(c)

	products, source := svc.load(c)
	for i := range products {
		products[i].Normalize()
	}
	logger.Info().
		Str(log.KeySource, string(source)).
		Int(log.KeyProductsCount, len(products)).
		Msg("got products")
	if source != SourceAPI {
		svc.fallbackCounter.Add(c, 1)
	}

	svc.mu.Lock()
	svc.products = slices.Clone(products)
	svc.source = source
	svc.mu.Unlock()

	return products, source
}

func (svc *ProductService) load(c context.Context) ([]response.Product, Source) {
	c, span := otel.Tracer.Start(c, "ProductService load")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductService load").Logger()

	logger = logger.With().Str(log.KeyProcess, "getting products from api").Logger()
	logger.Info().Msg("getting products from api")
	products, err := svc.client.GetProducts(c)
	if err == nil {
		logger.Info().Int(log.KeyProductsCount, len(products)).Msg("got products from api")
		if svc.snapshot != nil {
			logger = logger.With().Str(log.KeyProcess, "saving snapshot").Logger()
			if err := svc.snapshot.Save(c, products); err != nil {
				logger.Warn().Err(err).Msg("failed saving snapshot")
			}
		}
		return products, SourceAPI
	}
	err = fmt.Errorf("failed getting products from api with error=%w", err)
	inOtel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())

	if svc.snapshot != nil {
		logger = logger.With().Str(log.KeyProcess, "loading snapshot").Logger()
		logger.Info().Msg("loading snapshot")
		products, err = svc.snapshot.Load(c)
		if err == nil {
			logger.Info().Int(log.KeyProductsCount, len(products)).Msg("loaded snapshot")
			return products, SourceCache
		}
		logger.Error().Err(err).Msg(err.Error())
	}

	logger = logger.With().Str(log.KeyProcess, "using mock products").Logger()
	logger.Info().Msg("using mock products")
	return mock.Products(), SourceMock
}

// Products returns the catalog of the last load without reloading it.
func (svc *ProductService) Products() ([]response.Product, Source, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if svc.products == nil {
		return nil, "", false
	}
	return slices.Clone(svc.products), svc.source, true
}

// FindProductByID looks id up in the loaded catalog, loading it first when needed.
func (svc *ProductService) FindProductByID(c context.Context, id string) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductByID").
		Str(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	products, _, ok := svc.Products()
	if !ok {
		products, _ = svc.GetProducts(logger.WithContext(c))
	}
	idx := slices.IndexFunc(products, func(p response.Product) bool { return p.ID == id })
	if idx < 0 {
		err := fmt.Errorf("failed finding product id=%s with error=%w", id, inErrors.ErrProductNotFound)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Object(log.KeyProduct, products[idx]).Msg("found product")

	return products[idx], nil
}

func (svc *ProductService) authorize(principal auth.Principal, required auth.Role) error {
	if !principal.Can(required) {
		return fmt.Errorf(
			"%w role=%s required=%s",
			inErrors.ErrForbidden,
			principal.Role,
			required,
		)
	}
	return nil
}

func validateForm(c context.Context, param request.Product) (request.Product, error) {
	param = param.Trimmed()
	err := validate.Get().StructCtx(c, param)
	if err != nil {
		return param, fmt.Errorf("%w: %w", inErrors.ErrInvalidProduct, err)
	}
	return param, nil
}

// invalidate drops the loaded catalog so the next lookup reloads it.
func (svc *ProductService) invalidate() {
	svc.mu.Lock()
	svc.products = nil
	svc.source = ""
	svc.mu.Unlock()
}

// AddProduct creates a product from the form. The principal must be at least an editor.
func (svc *ProductService) AddProduct(
	c context.Context,
	principal auth.Principal,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService AddProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService AddProduct").
		Object(log.KeyPrincipal, principal).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "authorizing").Logger()
	if err := svc.authorize(principal, auth.RoleEditor); err != nil {
		err = fmt.Errorf("failed adding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
	param, err := validateForm(c, param)
	if err != nil {
		err = fmt.Errorf("failed adding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "adding product").Logger()
	logger.Info().Msg("adding product")
	product, err := svc.client.AddProduct(logger.WithContext(c), param.Product(""))
	if err != nil {
		err = fmt.Errorf("failed adding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	svc.invalidate()
	logger.Info().Object(log.KeyProduct, product).Msg("added product")

	return product, nil
}

// UpdateProduct replaces product id with the form. The principal must be at least an
// editor.
func (svc *ProductService) UpdateProduct(
	c context.Context,
	principal auth.Principal,
	id string,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService UpdateProduct").
		Str(log.KeyProductID, id).
		Object(log.KeyPrincipal, principal).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "authorizing").Logger()
	if err := svc.authorize(principal, auth.RoleEditor); err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
	param, err := validateForm(c, param)
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	product, err := svc.client.UpdateProduct(logger.WithContext(c), id, param.Product(id))
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	svc.invalidate()
	logger.Info().Object(log.KeyProduct, product).Msg("updated product")

	return product, nil
}

// DeleteProduct removes product id. The principal must be an administrador.
func (svc *ProductService) DeleteProduct(
	c context.Context,
	principal auth.Principal,
	id string,
) error {
	c, span := otel.Tracer.Start(c, "ProductService DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService DeleteProduct").
		Str(log.KeyProductID, id).
		Object(log.KeyPrincipal, principal).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "authorizing").Logger()
	if err := svc.authorize(principal, auth.RoleAdmin); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "deleting product").Logger()
	logger.Info().Msg("deleting product")
	err := svc.client.DeleteProduct(logger.WithContext(c), id)
	if err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	svc.invalidate()
	logger.Info().Msg("deleted product")

	return nil
}
