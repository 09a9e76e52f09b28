package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

const (
	keyProducts      = "storefront:products"
	keyProductsOrder = "storefront:products:order"
	keyProductsSeq   = "storefront:products:seq"
	keyUsers         = "storefront:users"
	keyCartPrefix    = "storefront:cart:"
	maxTxRetries     = 10
)

// Redis stores every record as a json value: products in a hash ordered by a sorted
// set, users in a hash keyed by email and one key per cart.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func cartKey(userID string) string {
	return keyCartPrefix + userID
}

func decodeProduct(raw string) (response.Product, error) {
	product := response.Product{}
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return response.Product{}, fmt.Errorf("failed decoding product with error=%w", err)
	}
	return product, nil
}

func (r *Redis) ListProducts(c context.Context) ([]response.Product, error) {
	ids, err := r.client.ZRange(c, keyProductsOrder, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed listing product ids with error=%w", err)
	}
	if len(ids) == 0 {
		return []response.Product{}, nil
	}
	values, err := r.client.HMGet(c, keyProducts, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed listing products with error=%w", err)
	}
	products := make([]response.Product, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		product, err := decodeProduct(raw)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *Redis) FindProduct(c context.Context, id string) (response.Product, error) {
	raw, err := r.client.HGet(c, keyProducts, id).Result()
	if errors.Is(err, redis.Nil) {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	if err != nil {
		return response.Product{}, fmt.Errorf("failed finding product with error=%w", err)
	}
	return decodeProduct(raw)
}

func (r *Redis) InsertProduct(c context.Context, product response.Product) (response.Product, error) {
	b, err := json.Marshal(product)
	if err != nil {
		return response.Product{}, fmt.Errorf("failed encoding product with error=%w", err)
	}
	inserted, err := r.client.HSetNX(c, keyProducts, product.ID, b).Result()
	if err != nil {
		return response.Product{}, fmt.Errorf("failed inserting product with error=%w", err)
	}
	if !inserted {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductAlreadyExist, product.ID)
	}
	seq, err := r.client.Incr(c, keyProductsSeq).Result()
	if err != nil {
		return response.Product{}, fmt.Errorf("failed ordering product with error=%w", err)
	}
	err = r.client.ZAdd(c, keyProductsOrder, redis.Z{Score: float64(seq), Member: product.ID}).Err()
	if err != nil {
		return response.Product{}, fmt.Errorf("failed ordering product with error=%w", err)
	}
	return product, nil
}

func (r *Redis) UpdateProduct(c context.Context, product response.Product) (response.Product, error) {
	exists, err := r.client.HExists(c, keyProducts, product.ID).Result()
	if err != nil {
		return response.Product{}, fmt.Errorf("failed finding product with error=%w", err)
	}
	if !exists {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, product.ID)
	}
	b, err := json.Marshal(product)
	if err != nil {
		return response.Product{}, fmt.Errorf("failed encoding product with error=%w", err)
	}
	if err := r.client.HSet(c, keyProducts, product.ID, b).Err(); err != nil {
		return response.Product{}, fmt.Errorf("failed updating product with error=%w", err)
	}
	return product, nil
}

func (r *Redis) DeleteProduct(c context.Context, id string) error {
	deleted, err := r.client.HDel(c, keyProducts, id).Result()
	if err != nil {
		return fmt.Errorf("failed deleting product with error=%w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	if err := r.client.ZRem(c, keyProductsOrder, id).Err(); err != nil {
		return fmt.Errorf("failed unordering product with error=%w", err)
	}
	return nil
}

func (r *Redis) InsertUser(c context.Context, user User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed encoding user with error=%w", err)
	}
	if err := r.client.HSet(c, keyUsers, strings.ToLower(user.Email), b).Err(); err != nil {
		return fmt.Errorf("failed inserting user with error=%w", err)
	}
	return nil
}

func (r *Redis) FindUserByEmail(c context.Context, email string) (User, error) {
	raw, err := r.client.HGet(c, keyUsers, strings.ToLower(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return User{}, fmt.Errorf("%w email=%s", inErrors.ErrUserNotFound, email)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed finding user with error=%w", err)
	}
	user := User{}
	if err := json.Unmarshal(raw, &user); err != nil {
		return User{}, fmt.Errorf("failed decoding user with error=%w", err)
	}
	return user, nil
}

func (r *Redis) FindCart(c context.Context, userID string) (cartResponse.Cart, error) {
	raw, err := r.client.Get(c, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cartResponse.Cart{}, fmt.Errorf("%w userId=%s", inErrors.ErrCartNotFound, userID)
	}
	if err != nil {
		return cartResponse.Cart{}, fmt.Errorf("failed finding cart with error=%w", err)
	}
	cart := cartResponse.Cart{}
	if err := json.Unmarshal(raw, &cart); err != nil {
		return cartResponse.Cart{}, fmt.Errorf("failed decoding cart with error=%w", err)
	}
	return cart, nil
}

func (r *Redis) SaveCart(c context.Context, cart cartResponse.Cart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed encoding cart with error=%w", err)
	}
	if err := r.client.Set(c, cartKey(cart.UserID), b, 0).Err(); err != nil {
		return fmt.Errorf("failed saving cart with error=%w", err)
	}
	return nil
}

func (r *Redis) DeleteCart(c context.Context, userID string) error {
	if err := r.client.Del(c, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed deleting cart with error=%w", err)
	}
	return nil
}

// TakeStock runs as an optimistic transaction on the products hash and retries when
// another writer got in first.
func (r *Redis) TakeStock(
	c context.Context,
	changes []StockChange,
) ([]cartResponse.StockUpdate, error) {
	c, span := otel.Tracer.Start(c, "Redis TakeStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Redis TakeStock").
		Int(log.KeyCartItemsCount, len(changes)).
		Logger()

	changes = Merge(changes)
	ids := make([]string, 0, len(changes))
	for _, change := range changes {
		ids = append(ids, change.ProductID)
	}

	var updates []cartResponse.StockUpdate
	take := func(tx *redis.Tx) error {
		values, err := tx.HMGet(c, keyProducts, ids...).Result()
		if err != nil {
			return fmt.Errorf("failed reading stock with error=%w", err)
		}
		products := make([]response.Product, 0, len(values))
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, ids[i])
			}
			product, err := decodeProduct(raw)
			if err != nil {
				return err
			}
			if product.Stock < changes[i].Quantity {
				return outOfStock(product, changes[i].Quantity)
			}
			products = append(products, product)
		}

		updates = make([]cartResponse.StockUpdate, 0, len(products))
		_, err = tx.TxPipelined(c, func(pipe redis.Pipeliner) error {
			for i, product := range products {
				update := stockUpdate(product, changes[i].Quantity)
				updates = append(updates, update)
				if update.Result.Action == cartResponse.ActionDeleted {
					pipe.HDel(c, keyProducts, product.ID)
					pipe.ZRem(c, keyProductsOrder, product.ID)
					continue
				}
				product.Stock = update.Result.RemainingStock
				b, err := json.Marshal(product)
				if err != nil {
					return fmt.Errorf("failed encoding product with error=%w", err)
				}
				pipe.HSet(c, keyProducts, product.ID, b)
			}
			return nil
		})
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "taking stock").Logger()
	logger.Info().Msg("taking stock")
	for range maxTxRetries {
		err := r.client.Watch(c, take, keyProducts)
		if errors.Is(err, redis.TxFailedErr) {
			logger.Debug().Msg("stock changed concurrently retrying")
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed taking stock with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		logger.Info().Msg("took stock")
		return updates, nil
	}

	err := fmt.Errorf("failed taking stock after %d retries with error=%w", maxTxRetries, redis.TxFailedErr)
	otel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	return nil, err
}

func (r *Redis) Close() error {
	return r.client.Close()
}
