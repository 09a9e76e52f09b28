package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/api/internal/otel"
	"github.com/Alturino/storefront/api/internal/service"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/product/pkg/response"
)

type ProductController struct {
	service *service.ProductService
}

func AttachProductController(router *mux.Router, svc *service.ProductService) {
	controller := ProductController{service: svc}

	productRouter := router.PathPrefix("/products").Subrouter()
	productRouter.HandleFunc("", controller.GetProducts).Methods(http.MethodGet)
	productRouter.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
	productRouter.HandleFunc("/{productId}", controller.UpdateProduct).Methods(http.MethodPut)
	productRouter.HandleFunc("/{productId}", controller.DeleteProduct).Methods(http.MethodDelete)
}

func (ctrl ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController GetProducts").
		Str(log.KeyProcess, "getting products").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger.Info().Msg("getting products")
	products, err := ctrl.service.GetProducts(c)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed getting products with error=%w", err))
		return
	}
	logger.Info().Int(log.KeyProductsCount, len(products)).Msg("got products")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"products": products,
	})
}

func (ctrl ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController InsertProduct").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	product := response.Product{}
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeBadRequest(w, r, span, fmt.Errorf("failed decoding request body with error=%w", err))
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	product, err := ctrl.service.InsertProduct(c, product)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed inserting product with error=%w", err))
		return
	}
	logger.Info().Object(log.KeyProduct, product).Msg("inserted product")

	inHttp.WriteJsonResponse(c, w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "product created",
		"product": product,
	})
}

func (ctrl ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController UpdateProduct")
	defer span.End()

	id := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController UpdateProduct").
		Str(log.KeyProductID, id).
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	product := response.Product{}
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeBadRequest(w, r, span, fmt.Errorf("failed decoding request body with error=%w", err))
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	product, err := ctrl.service.UpdateProduct(c, id, product)
	if err != nil {
		writeError(w, r, span, fmt.Errorf("failed updating product with error=%w", err))
		return
	}
	logger.Info().Object(log.KeyProduct, product).Msg("updated product")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "product updated",
		"product": product,
	})
}

func (ctrl ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController DeleteProduct")
	defer span.End()

	id := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController DeleteProduct").
		Str(log.KeyProductID, id).
		Str(log.KeyProcess, "deleting product").
		Logger()
	c = logger.WithContext(c)
	r = r.WithContext(c)

	logger.Info().Msg("deleting product")
	if err := ctrl.service.DeleteProduct(c, id); err != nil {
		writeError(w, r, span, fmt.Errorf("failed deleting product with error=%w", err))
		return
	}
	logger.Info().Msg("deleted product")

	inHttp.WriteJsonResponse(c, w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "product deleted",
	})
}
