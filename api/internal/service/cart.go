package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/store"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

// CartService edits stored carts. Edits are serialized so concurrent requests on one cart
// are not lost.
type CartService struct {
	store store.Store
	mu    sync.Mutex
	now   func() time.Time
}

func NewCartService(s store.Store) *CartService {
	return &CartService{store: s, now: time.Now}
}

func (svc *CartService) GetCart(c context.Context, userID string) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetCart").
		Str(log.KeyUserID, userID).
		Str(log.KeyProcess, "finding cart").
		Logger()

	logger.Info().Msg("finding cart")
	cart, err := svc.store.FindCart(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	cart = cart.WithTotals()
	logger.Info().Object(log.KeyCart, cart).Msg("found cart")

	return cart, nil
}

// findOrCreate returns the stored cart of userID, or a new empty one.
func (svc *CartService) findOrCreate(c context.Context, userID string) (response.Cart, error) {
	cart, err := svc.store.FindCart(c, userID)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		id := uuid.NewString()
		now := svc.now()
		cart = response.EmptyCart(userID)
		cart.ID = &id
		cart.CreatedAt = &now
		return cart, nil
	}
	return cart, err
}

func (svc *CartService) save(c context.Context, cart response.Cart) (response.Cart, error) {
	now := svc.now()
	cart.UpdatedAt = &now
	cart = cart.WithTotals()
	if err := svc.store.SaveCart(c, cart); err != nil {
		return response.Cart{}, err
	}
	return cart, nil
}

// AddToCart adds a line for the product and size, or raises the quantity of the existing
// line. The resulting quantity may not exceed the product stock.
func (svc *CartService) AddToCart(c context.Context, param request.AddToCart) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddToCart")
	defer span.End()

	if param.Quantity == 0 {
		param.Quantity = 1
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddToCart").
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	product, err := svc.store.FindProduct(c, param.ProductID)
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Object(log.KeyProduct, product).Msg("found product")

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	cart, err := svc.findOrCreate(c, param.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart")

	logger = logger.With().Str(log.KeyProcess, "merging item").Logger()
	i := slices.IndexFunc(cart.Items, func(item response.CartItem) bool {
		return item.Is(param.ProductID, param.Size)
	})
	quantity := param.Quantity
	if i >= 0 {
		quantity += cart.Items[i].Quantity
	}
	if quantity > product.Stock {
		err = fmt.Errorf(
			"failed merging item with error=%w stock=%d requested=%d",
			inErrors.ErrOutOfStock,
			product.Stock,
			quantity,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if i >= 0 {
		cart.Items[i].Quantity = quantity
	} else {
		addedAt := svc.now()
		cart.Items = append(cart.Items, response.CartItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			ProductImage: product.Image,
			Size:         param.Size,
			Quantity:     quantity,
			AddedAt:      &addedAt,
		})
	}
	logger.Info().Int(log.KeyQuantity, quantity).Msg("merged item")

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	cart, err = svc.save(c, cart)
	if err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Object(log.KeyCart, cart).Msg("saved cart")

	return cart, nil
}

// UpdateCartItem sets the quantity of an existing line.
func (svc *CartService) UpdateCartItem(
	c context.Context,
	param request.UpdateCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateCartItem").
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity < 1 {
		err := fmt.Errorf("failed updating cart item with error=%w", inErrors.ErrInvalidQuantity)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "finding cart item").Logger()
	logger.Info().Msg("finding cart item")
	cart, err := svc.store.FindCart(c, param.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	i := slices.IndexFunc(cart.Items, func(item response.CartItem) bool {
		return item.Is(param.ProductID, param.Size)
	})
	if i < 0 {
		err = fmt.Errorf("failed finding cart item with error=%w", inErrors.ErrProductNotFound)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart item")

	logger = logger.With().Str(log.KeyProcess, "checking stock").Logger()
	product, err := svc.store.FindProduct(c, param.ProductID)
	if err == nil && param.Quantity > product.Stock {
		err = fmt.Errorf(
			"failed checking stock with error=%w stock=%d requested=%d",
			inErrors.ErrOutOfStock,
			product.Stock,
			param.Quantity,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if err != nil && !errors.Is(err, inErrors.ErrProductNotFound) {
		err = fmt.Errorf("failed checking stock with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	cart.Items[i].Quantity = param.Quantity

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	cart, err = svc.save(c, cart)
	if err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Object(log.KeyCart, cart).Msg("saved cart")

	return cart, nil
}

func (svc *CartService) RemoveFromCart(
	c context.Context,
	param request.RemoveFromCart,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveFromCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveFromCart").
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Logger()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "finding cart item").Logger()
	logger.Info().Msg("finding cart item")
	cart, err := svc.store.FindCart(c, param.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	before := len(cart.Items)
	cart.Items = slices.DeleteFunc(cart.Items, func(item response.CartItem) bool {
		return item.Is(param.ProductID, param.Size)
	})
	if len(cart.Items) == before {
		err = fmt.Errorf("failed finding cart item with error=%w", inErrors.ErrProductNotFound)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("removed cart item")

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	cart, err = svc.save(c, cart)
	if err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Object(log.KeyCart, cart).Msg("saved cart")

	return cart, nil
}

// Checkout takes the stock of every line at once and then deletes the cart. Nothing is
// taken when any line cannot be served.
func (svc *CartService) Checkout(
	c context.Context,
	param request.Checkout,
) ([]response.StockUpdate, error) {
	c, span := otel.Tracer.Start(c, "CartService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Checkout").
		Str(log.KeyUserID, param.UserID).
		Int(log.KeyCartItemsCount, len(param.Items)).
		Logger()

	if len(param.Items) == 0 {
		err := fmt.Errorf("failed checking out with error=%w", inErrors.ErrEmptyCart)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	changes := make([]store.StockChange, 0, len(param.Items))
	for _, item := range param.Items {
		if item.Quantity < 1 {
			err := fmt.Errorf(
				"failed checking out productId=%s with error=%w",
				item.ProductID,
				inErrors.ErrInvalidQuantity,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		changes = append(changes, store.StockChange{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "taking stock").Logger()
	logger.Info().Msg("taking stock")
	updates, err := svc.store.TakeStock(logger.WithContext(c), changes)
	if err != nil {
		err = fmt.Errorf("failed taking stock with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyStockUpdates, len(updates)).Msg("took stock")

	logger = logger.With().Str(log.KeyProcess, "deleting cart").Logger()
	logger.Info().Msg("deleting cart")
	if err := svc.store.DeleteCart(c, param.UserID); err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return updates, err
	}
	logger.Info().Msg("deleted cart")

	return updates, nil
}
