package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, svc *service.CartService) {
	controller := CartController{service: svc}

	cartRouter := router.PathPrefix("/cart").Subrouter()
	cartRouter.HandleFunc("/add", controller.AddToCart).Methods(http.MethodPost)
	cartRouter.HandleFunc("/update", controller.UpdateCartItem).Methods(http.MethodPut)
	cartRouter.HandleFunc("/remove", controller.RemoveFromCart).Methods(http.MethodDelete)
	cartRouter.HandleFunc("/{userId}", controller.GetCart).Methods(http.MethodGet)

	router.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController GetCart").
		Str(log.KeyUserID, userID).
		Str(log.KeyProcess, "getting cart").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger.Info().Msg("getting cart")
	cart, err := ctrl.service.GetCart(c, userID)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed getting cart with error=%w", err))
		return
	}
	logger.Info().Object(log.KeyCart, cart).Msg("got cart")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cart":    cart,
	})
}

// mutation decodes the request into param, runs apply and replies with the resulting cart.
func mutation[T any](
	w http.ResponseWriter,
	r *http.Request,
	tag string,
	successMessage string,
	apply func(r *http.Request, param T) (response.Cart, error),
) {
	c, span := otel.Tracer.Start(r.Context(), tag)
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, tag).Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	var param T
	if err := decode(r, &param); err != nil {
		writeBadRequest(w, r, span, err)
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "applying cart mutation").Logger()
	logger.Info().Msg("applying cart mutation")
	cart, err := apply(r, param)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed applying cart mutation with error=%w", err))
		return
	}
	logger.Info().Object(log.KeyCart, cart).Msg("applied cart mutation")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": successMessage,
		"cart":    cart,
	})
}

func (ctrl CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	mutation(w, r, "CartController AddToCart", "product added to cart",
		func(r *http.Request, param request.AddToCart) (response.Cart, error) {
			return ctrl.service.AddToCart(r.Context(), param)
		})
}

func (ctrl CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	mutation(w, r, "CartController UpdateCartItem", "cart updated",
		func(r *http.Request, param request.UpdateCartItem) (response.Cart, error) {
			return ctrl.service.UpdateCartItem(r.Context(), param)
		})
}

func (ctrl CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	mutation(w, r, "CartController RemoveFromCart", "product removed from cart",
		func(r *http.Request, param request.RemoveFromCart) (response.Cart, error) {
			return ctrl.service.RemoveFromCart(r.Context(), param)
		})
}

func (ctrl CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Checkout").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	param := request.Checkout{}
	if err := decode(r, &param); err != nil {
		writeBadRequest(w, r, span, err)
		return
	}
	logger = logger.With().Str(log.KeyUserID, param.UserID).Logger()
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	updates, err := ctrl.service.Checkout(c, param)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed checking out with error=%w", err))
		return
	}
	logger.Info().Int(log.KeyStockUpdates, len(updates)).Msg("checked out")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "purchase completed",
		"stock_updates": updates,
	})
}
