package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

type productsReply struct {
	Success  bool               `json:"success"`
	Products []response.Product `json:"products"`
	Message  string             `json:"message"`
}

type productReply struct {
	Success bool             `json:"success"`
	Product response.Product `json:"product"`
	Message string           `json:"message"`
}

type ackReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (cl *Client) GetProducts(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "Client GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Client GetProducts").Logger()

	logger = logger.With().Str(log.KeyProcess, "getting products").Logger()
	logger.Info().Msg("getting products")
	reply := productsReply{}
	status, err := cl.do(logger.WithContext(c), http.MethodGet, "/products", nil, &reply)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed getting products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if reply.Products == nil {
		reply.Products = []response.Product{}
	}
	logger.Info().Int(log.KeyProductsCount, len(reply.Products)).Msg("got products")

	return reply.Products, nil
}

func (cl *Client) AddProduct(c context.Context, product response.Product) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "Client AddProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client AddProduct").
		Object(log.KeyProduct, product).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "adding product").Logger()
	logger.Info().Msg("adding product")
	reply := productReply{}
	status, err := cl.do(logger.WithContext(c), http.MethodPost, "/products", product, &reply)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed adding product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Str(log.KeyProductID, reply.Product.ID).Msg("added product")

	return reply.Product, nil
}

func (cl *Client) UpdateProduct(
	c context.Context,
	id string,
	product response.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "Client UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client UpdateProduct").
		Str(log.KeyProductID, id).
		Object(log.KeyProduct, product).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	reply := productReply{}
	status, err := cl.do(
		logger.WithContext(c),
		http.MethodPut,
		"/products/"+url.PathEscape(id),
		product,
		&reply,
	)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("updated product")

	return reply.Product, nil
}

func (cl *Client) DeleteProduct(c context.Context, id string) error {
	c, span := otel.Tracer.Start(c, "Client DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client DeleteProduct").
		Str(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting product").Logger()
	logger.Info().Msg("deleting product")
	reply := ackReply{}
	status, err := cl.do(
		logger.WithContext(c),
		http.MethodDelete,
		"/products/"+url.PathEscape(id),
		nil,
		&reply,
	)
	if err == nil {
		err = rejected(status, reply.Success, reply.Message)
	}
	if err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted product")

	return nil
}
