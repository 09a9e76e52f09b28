package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type cartReply struct {
	Success bool          `json:"success"`
	Cart    response.Cart `json:"cart"`
	Message string        `json:"message"`
}

// GetCart fetches the cart of userID. A user without a cart gets the empty cart.
func (cl *Client) GetCart(c context.Context, userID string) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "Client GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client GetCart").
		Str(log.KeyUserID, userID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting cart").Logger()
	logger.Info().Msg("getting cart")
	reply := cartReply{}
	status, err := cl.do(
		logger.WithContext(c),
		http.MethodGet,
		"/cart/"+url.PathEscape(userID),
		nil,
		&reply,
	)
	if status == http.StatusNotFound {
		logger.Info().Msg("cart not found using empty cart")
		return response.EmptyCart(userID), nil
	}
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed getting cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	cart := reply.Cart
	if cart.UserID == "" {
		cart.UserID = userID
	}
	if cart.Items == nil {
		cart.Items = []response.CartItem{}
	}
	logger.Info().Object(log.KeyCart, cart).Msg("got cart")

	return cart, nil
}

func (cl *Client) mutateCart(
	c context.Context,
	tag string,
	method string,
	path string,
	body any,
) (response.Ack, error) {
	c, span := otel.Tracer.Start(c, tag)
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, tag).Logger()

	logger = logger.With().Str(log.KeyProcess, "sending cart mutation").Logger()
	logger.Info().Msg("sending cart mutation")
	ack := response.Ack{}
	status, err := cl.do(logger.WithContext(c), method, path, body, &ack)
	if err == nil {
		err = rejected(status, ack.Success, ack.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed sending cart mutation with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return ack, err
	}
	logger.Info().Msg("sent cart mutation")

	return ack, nil
}

func (cl *Client) AddToCart(c context.Context, param request.AddToCart) (response.Ack, error) {
	c = zerolog.Ctx(c).With().
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger().
		WithContext(c)
	return cl.mutateCart(c, "Client AddToCart", http.MethodPost, "/cart/add", param)
}

func (cl *Client) UpdateCartItem(
	c context.Context,
	param request.UpdateCartItem,
) (response.Ack, error) {
	c = zerolog.Ctx(c).With().
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Int(log.KeyQuantity, param.Quantity).
		Logger().
		WithContext(c)
	return cl.mutateCart(c, "Client UpdateCartItem", http.MethodPut, "/cart/update", param)
}

func (cl *Client) RemoveFromCart(
	c context.Context,
	param request.RemoveFromCart,
) (response.Ack, error) {
	c = zerolog.Ctx(c).With().
		Str(log.KeyUserID, param.UserID).
		Str(log.KeyProductID, param.ProductID).
		Str(log.KeySize, param.Size).
		Logger().
		WithContext(c)
	return cl.mutateCart(c, "Client RemoveFromCart", http.MethodDelete, "/cart/remove", param)
}

func (cl *Client) Checkout(c context.Context, param request.Checkout) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "Client Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Checkout").
		Str(log.KeyUserID, param.UserID).
		Int(log.KeyCartItemsCount, len(param.Items)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	reply := response.Checkout{}
	status, err := cl.do(logger.WithContext(c), http.MethodPost, "/checkout", param, &reply)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed checking out with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return reply, err
	}
	if reply.StockUpdates == nil {
		reply.StockUpdates = []response.StockUpdate{}
	}
	logger.Info().Int(log.KeyStockUpdates, len(reply.StockUpdates)).Msg("checked out")

	return reply, nil
}
