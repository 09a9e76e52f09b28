package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	cartOtel "github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/otel/metric"
	"github.com/Alturino/storefront/internal/validate"
)

// CartClient is the remote cart resource.
type CartClient interface {
	GetCart(c context.Context, userID string) (response.Cart, error)
	AddToCart(c context.Context, param request.AddToCart) (response.Ack, error)
	UpdateCartItem(c context.Context, param request.UpdateCartItem) (response.Ack, error)
	RemoveFromCart(c context.Context, param request.RemoveFromCart) (response.Ack, error)
	Checkout(c context.Context, param request.Checkout) (response.Checkout, error)
}

type State int

const (
	StateNoCart State = iota
	StateLoading
	StateReady
	StateMutating
	StateError
)

func (s State) String() string {
	switch s {
	case StateNoCart:
		return "no_cart"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is the local view of one user's remote cart. Every successful mutation is
// followed by a refetch and only fetched carts are ever exposed. Fetch results are
// sequenced: a result older than the one already applied is discarded.
type Session struct {
	client CartClient

	mu      sync.Mutex
	state   State
	cart    response.Cart
	pending int
	issued  uint64
	applied uint64

	fallbackCounter otelmetric.Int64Counter
	staleCounter    otelmetric.Int64Counter
}

func NewSession(client CartClient) *Session {
	return &Session{
		client:          client,
		state:           StateNoCart,
		cart:            response.EmptyCart(""),
		fallbackCounter: metric.Counter("cart.fallback", "cart fetches that fell back to the empty cart"),
		staleCounter:    metric.Counter("cart.refetch.stale", "cart refetches discarded as stale"),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cart returns the last applied cart.
func (s *Session) Cart() response.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.WithTotals()
}

// begin marks an operation in flight.
func (s *Session) begin(c context.Context, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	s.transition(c, state)
}

func (s *Session) end(c context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending > 0 {
		return
	}
	if s.state == StateLoading && s.applied == 0 {
		s.transition(c, StateNoCart)
		return
	}
	s.transition(c, StateReady)
}

// transition must be called with mu held.
func (s *Session) transition(c context.Context, state State) {
	if s.state == state {
		return
	}
	zerolog.Ctx(c).Trace().
		Str(log.KeyTag, "Session transition").
		Str(log.KeyCartState, state.String()).
		Msgf("cart state %s -> %s", s.state, state)
	s.state = state
}

// fetch loads the cart of userID and applies it unless a later fetch was applied first.
// Fetch failures are applied as the empty cart. It returns the cart now current.
func (s *Session) fetch(c context.Context, userID string) response.Cart {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	c, span := cartOtel.Tracer.Start(
		c,
		"Session fetch",
		trace.WithAttributes(attribute.Int64(log.KeySequence, int64(seq))),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session fetch").
		Str(log.KeyUserID, userID).
		Uint64(log.KeySequence, seq).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "fetching cart").Logger()
	logger.Info().Msg("fetching cart")
	cart, err := s.client.GetCart(logger.WithContext(c), userID)
	failed := err != nil
	if failed {
		err = fmt.Errorf("failed fetching cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.fallbackCounter.Add(c, 1)
		cart = response.EmptyCart(userID)
	} else {
		logger.Info().Object(log.KeyCart, cart).Msg("fetched cart")
	}
	if cart.UserID == "" {
		cart.UserID = userID
	}
	cart = cart.WithTotals()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		logger.Info().Uint64("appliedSequence", s.applied).Msg("discarding stale cart")
		span.AddEvent("discarded stale cart")
		s.staleCounter.Add(c, 1)
		return s.cart.WithTotals()
	}
	if failed {
		s.transition(c, StateError)
		logger.Info().Msg("using empty cart")
	}
	s.applied = seq
	s.cart = cart
	return cart
}

// Load fetches the cart of userID. It never fails: a cart that cannot be fetched is
// the empty cart.
func (s *Session) Load(c context.Context, userID string) response.Cart {
	c, span := cartOtel.Tracer.Start(c, "Session Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Load").
		Str(log.KeyUserID, userID).
		Logger()
	c = logger.WithContext(c)

	s.begin(c, StateLoading)
	defer s.end(c)

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	cart := s.fetch(c, userID)
	logger.Info().Object(log.KeyCart, cart).Msg("loaded cart")

	return cart
}

// mutate runs call and, when it succeeds, refetches the cart. A failed call leaves the
// current cart in place.
func (s *Session) mutate(
	c context.Context,
	tag string,
	userID string,
	call func(context.Context) error,
) (response.Cart, error) {
	c, span := cartOtel.Tracer.Start(c, tag)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, tag).
		Str(log.KeyUserID, userID).
		Logger()
	c = logger.WithContext(c)

	s.begin(c, StateMutating)
	defer s.end(c)

	logger = logger.With().Str(log.KeyProcess, "mutating cart").Logger()
	logger.Info().Msg("mutating cart")
	err := call(c)
	if err != nil {
		err = fmt.Errorf("failed mutating cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	logger.Info().Msg("mutated cart")

	logger = logger.With().Str(log.KeyProcess, "refetching cart").Logger()
	logger.Info().Msg("refetching cart")
	cart := s.fetch(c, userID)
	logger.Info().Object(log.KeyCart, cart).Msg("refetched cart")

	return cart, nil
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return inErrors.ErrUnidentifiedUser
	}
	return nil
}

func validateRequest(c context.Context, param any) error {
	err := validate.Get().StructCtx(c, param)
	if err != nil {
		return fmt.Errorf("failed validating request with error=%w", err)
	}
	return nil
}

// AddToCart adds quantity (1 when unset) of productID in size to the cart of userID.
func (s *Session) AddToCart(c context.Context, param request.AddToCart) (response.Cart, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session AddToCart").
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	if err := validateUser(param.UserID); err != nil {
		err = fmt.Errorf("failed adding to cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	if param.Quantity == 0 {
		param.Quantity = 1
	}
	if param.Quantity < 0 {
		err := fmt.Errorf("failed adding to cart with error=%w", inErrors.ErrInvalidQuantity)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	if err := validateRequest(c, param); err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}

	return s.mutate(logger.WithContext(c), "Session AddToCart", param.UserID, func(c context.Context) error {
		_, err := s.client.AddToCart(c, param)
		return err
	})
}

// UpdateCartItem sets the quantity of an existing line.
func (s *Session) UpdateCartItem(
	c context.Context,
	param request.UpdateCartItem,
) (response.Cart, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session UpdateCartItem").
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	if err := validateUser(param.UserID); err != nil {
		err = fmt.Errorf("failed updating cart item with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	if param.Quantity < 1 {
		err := fmt.Errorf("failed updating cart item with error=%w", inErrors.ErrInvalidQuantity)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	if err := validateRequest(c, param); err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}

	return s.mutate(logger.WithContext(c), "Session UpdateCartItem", param.UserID, func(c context.Context) error {
		_, err := s.client.UpdateCartItem(c, param)
		return err
	})
}

// cartOf returns the held cart when it belongs to userID and loads it otherwise.
func (s *Session) cartOf(c context.Context, userID string) response.Cart {
	cart := s.Cart()
	if cart.UserID != userID {
		cart = s.Load(c, userID)
	}
	return cart
}

// Increment raises the quantity of the line by one, adding the line when it is missing.
func (s *Session) Increment(
	c context.Context,
	userID string,
	productID string,
	size string,
) (response.Cart, error) {
	item, ok := s.cartOf(c, userID).Find(productID, size)
	if !ok {
		return s.AddToCart(c, request.AddToCart{
			UserID:    userID,
			ProductID: productID,
			Size:      size,
			Quantity:  1,
		})
	}
	return s.UpdateCartItem(c, request.UpdateCartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  item.Quantity + 1,
	})
}

// Decrement lowers the quantity of the line by one. A line at quantity 1 is left alone;
// use RemoveFromCart to drop it.
func (s *Session) Decrement(
	c context.Context,
	userID string,
	productID string,
	size string,
) (response.Cart, error) {
	cart := s.cartOf(c, userID)
	item, ok := cart.Find(productID, size)
	if !ok || item.Quantity <= 1 {
		zerolog.Ctx(c).Debug().
			Str(log.KeyTag, "Session Decrement").
			Str(log.KeyProductID, productID).
			Str(log.KeySize, size).
			Msg("nothing to decrement")
		return cart, nil
	}
	return s.UpdateCartItem(c, request.UpdateCartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  item.Quantity - 1,
	})
}

func (s *Session) RemoveFromCart(
	c context.Context,
	param request.RemoveFromCart,
) (response.Cart, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session RemoveFromCart").
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	if err := validateUser(param.UserID); err != nil {
		err = fmt.Errorf("failed removing from cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}
	if err := validateRequest(c, param); err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return s.Cart(), err
	}

	return s.mutate(logger.WithContext(c), "Session RemoveFromCart", param.UserID, func(c context.Context) error {
		_, err := s.client.RemoveFromCart(c, param)
		return err
	})
}

// Checkout submits the lines of the current cart of userID, loading it first when the
// session holds another user's cart. The returned cart is the one refetched afterwards.
func (s *Session) Checkout(c context.Context, userID string) (response.CheckoutResult, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Checkout").
		Str(log.KeyUserID, userID).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	if err := validateUser(userID); err != nil {
		err = fmt.Errorf("failed checking out with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.CheckoutResult{Cart: s.Cart()}, err
	}

	cart := s.cartOf(c, userID)
	if cart.IsEmpty() {
		err := fmt.Errorf("failed checking out with error=%w", inErrors.ErrEmptyCart)
		logger.Error().Err(err).Msg(err.Error())
		return response.CheckoutResult{Cart: cart}, err
	}

	result := response.CheckoutResult{StockUpdates: []response.StockUpdate{}}
	refetched, err := s.mutate(c, "Session Checkout", userID, func(c context.Context) error {
		checkout, err := s.client.Checkout(c, request.Checkout{UserID: userID, Items: cart.Items})
		if err != nil {
			return err
		}
		if checkout.StockUpdates != nil {
			result.StockUpdates = checkout.StockUpdates
		}
		result.Message = checkout.Message
		return nil
	})
	result.Cart = refetched
	if err != nil {
		return result, err
	}
	logger.Info().Int(log.KeyStockUpdates, len(result.StockUpdates)).Msg("checked out")

	return result, nil
}

// IsRejected reports whether err is a business rejection by the collaborator rather than
// a failure to reach it.
func IsRejected(err error) bool {
	return errors.Is(err, inErrors.ErrRejected)
}
