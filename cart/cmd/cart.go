package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/client"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/view"
)

type Action string

const (
	ActionShow      Action = "show"
	ActionAdd       Action = "add"
	ActionUpdate    Action = "update"
	ActionIncrement Action = "inc"
	ActionDecrement Action = "dec"
	ActionRemove    Action = "remove"
	ActionCheckout  Action = "checkout"
)

var Actions = []Action{
	ActionShow,
	ActionAdd,
	ActionUpdate,
	ActionIncrement,
	ActionDecrement,
	ActionRemove,
	ActionCheckout,
}

// Line identifies a cart line and, for add and update, the wanted quantity.
type Line struct {
	UserID    string
	ProductID string
	Size      string
	Quantity  int
}

// RunCart loads the cart of line.UserID, applies action and writes the resulting cart.
func RunCart(c context.Context, cfg *config.Config, action Action, line Line, w io.Writer) error {
	c, span := otel.Tracer.Start(c, "cmd RunCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd RunCart").
		Str("action", string(action)).
		Str(log.KeyUserID, line.UserID).
		Logger()
	c = logger.WithContext(c)

	session := service.NewSession(client.New(cfg.Api.BaseURL, cfg.Api.Timeout))

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	cart := session.Load(c, line.UserID)
	logger.Info().Str(log.KeyCartState, session.State().String()).Msg("loaded cart")

	logger = logger.With().Str(log.KeyProcess, "applying action").Logger()
	var err error
	switch action {
	case ActionShow:
	case ActionAdd:
		cart, err = session.AddToCart(c, request.AddToCart{
			UserID:    line.UserID,
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	case ActionUpdate:
		cart, err = session.UpdateCartItem(c, request.UpdateCartItem{
			UserID:    line.UserID,
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	case ActionIncrement:
		cart, err = session.Increment(c, line.UserID, line.ProductID, line.Size)
	case ActionDecrement:
		cart, err = session.Decrement(c, line.UserID, line.ProductID, line.Size)
	case ActionRemove:
		cart, err = session.RemoveFromCart(c, request.RemoveFromCart{
			UserID:    line.UserID,
			ProductID: line.ProductID,
			Size:      line.Size,
		})
	case ActionCheckout:
		var result response.CheckoutResult
		result, err = session.Checkout(c, line.UserID)
		if err == nil {
			_, err = io.WriteString(w, view.Checkout(result)+view.Cart(result.Cart))
			return err
		}
		cart = result.Cart
	default:
		err = fmt.Errorf("unknown cart action=%s", action)
	}
	if err != nil {
		err = fmt.Errorf("failed applying cart action=%s with error=%w", action, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		message := client.RejectionMessage(err)
		if message == "" {
			message = err.Error()
		}
		_, _ = io.WriteString(w, view.Cart(cart)+view.Error(message))
		return err
	}
	logger.Info().Object(log.KeyCart, cart).Msg("applied action")

	_, err = io.WriteString(w, view.Cart(cart))
	return err
}
