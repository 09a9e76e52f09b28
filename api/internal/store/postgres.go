package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

const (
	codeUniqueViolation = "23505"

	selectProduct = `select id, name, price, description, category, image, size, color, stock from products`

	insertProduct = `insert into products (id, name, price, description, category, image, size, color, stock)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProduct = `update products
set name = $2, price = $3, description = $4, category = $5, image = $6, size = $7, color = $8, stock = $9, updated_at = now()
where id = $1`

	selectCartItems = `select product_id, product_name, product_price, product_image, size, quantity, added_at
from cart_items where user_id = $1 order by position`

	insertCartItem = `insert into cart_items (user_id, product_id, size, position, product_name, product_price, product_image, quantity, added_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Valid:            true,
	}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func productArgs(p response.Product) []any {
	return []any{p.ID, p.Name, numeric(p.Price), p.Description, p.Category, p.Image, p.Size, p.Color, p.Stock}
}

func scanProduct(row pgx.Row) (response.Product, error) {
	p := response.Product{}
	price := pgtype.Numeric{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&price,
		&p.Description,
		&p.Category,
		&p.Image,
		&p.Size,
		&p.Color,
		&p.Stock,
	)
	if err != nil {
		return response.Product{}, err
	}
	p.Price = fromNumeric(price)
	return p, nil
}

func (s *Postgres) ListProducts(c context.Context) ([]response.Product, error) {
	rows, err := s.pool.Query(c, selectProduct+" order by seq")
	if err != nil {
		return nil, fmt.Errorf("failed listing products with error=%w", err)
	}
	defer rows.Close()

	products := []response.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed scanning product with error=%w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed listing products with error=%w", err)
	}
	return products, nil
}

func (s *Postgres) FindProduct(c context.Context, id string) (response.Product, error) {
	product, err := scanProduct(s.pool.QueryRow(c, selectProduct+" where id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	if err != nil {
		return response.Product{}, fmt.Errorf("failed finding product with error=%w", err)
	}
	return product, nil
}

func (s *Postgres) InsertProduct(c context.Context, product response.Product) (response.Product, error) {
	_, err := s.pool.Exec(c, insertProduct, productArgs(product)...)
	pgErr := &pgconn.PgError{}
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductAlreadyExist, product.ID)
	}
	if err != nil {
		return response.Product{}, fmt.Errorf("failed inserting product with error=%w", err)
	}
	return product, nil
}

func (s *Postgres) UpdateProduct(c context.Context, product response.Product) (response.Product, error) {
	tag, err := s.pool.Exec(c, updateProduct, productArgs(product)...)
	if err != nil {
		return response.Product{}, fmt.Errorf("failed updating product with error=%w", err)
	}
	if tag.RowsAffected() == 0 {
		return response.Product{}, fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, product.ID)
	}
	return product, nil
}

func (s *Postgres) DeleteProduct(c context.Context, id string) error {
	tag, err := s.pool.Exec(c, "delete from products where id = $1", id)
	if err != nil {
		return fmt.Errorf("failed deleting product with error=%w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, id)
	}
	return nil
}

func (s *Postgres) InsertUser(c context.Context, user User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(
		c,
		`insert into users (id, email, username, name, password_hash, role, created_at)
values ($1, lower($2), $3, $4, $5, $6, $7)
on conflict (email) do update
set username = excluded.username, name = excluded.name, password_hash = excluded.password_hash, role = excluded.role`,
		user.ID,
		user.Email,
		user.Username,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed inserting user with error=%w", err)
	}
	return nil
}

func (s *Postgres) FindUserByEmail(c context.Context, email string) (User, error) {
	user := User{}
	role := ""
	err := s.pool.QueryRow(
		c,
		`select id, email, username, name, password_hash, role, created_at from users where email = lower($1)`,
		email,
	).Scan(&user.ID, &user.Email, &user.Username, &user.Name, &user.PasswordHash, &role, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w email=%s", inErrors.ErrUserNotFound, email)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed finding user with error=%w", err)
	}
	user.Role = auth.Role(role)
	return user, nil
}

func (s *Postgres) FindCart(c context.Context, userID string) (cartResponse.Cart, error) {
	cart := cartResponse.EmptyCart(userID)
	createdAt := pgtype.Timestamptz{}
	updatedAt := pgtype.Timestamptz{}
	err := s.pool.QueryRow(
		c,
		"select id, created_at, updated_at from carts where user_id = $1",
		userID,
	).Scan(&cart.ID, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cartResponse.Cart{}, fmt.Errorf("%w userId=%s", inErrors.ErrCartNotFound, userID)
	}
	if err != nil {
		return cartResponse.Cart{}, fmt.Errorf("failed finding cart with error=%w", err)
	}
	cart.CreatedAt = timePtr(createdAt)
	cart.UpdatedAt = timePtr(updatedAt)

	rows, err := s.pool.Query(c, selectCartItems, userID)
	if err != nil {
		return cartResponse.Cart{}, fmt.Errorf("failed finding cart items with error=%w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item := cartResponse.CartItem{}
		price := pgtype.Numeric{}
		addedAt := pgtype.Timestamptz{}
		err := rows.Scan(
			&item.ProductID,
			&item.ProductName,
			&price,
			&item.ProductImage,
			&item.Size,
			&item.Quantity,
			&addedAt,
		)
		if err != nil {
			return cartResponse.Cart{}, fmt.Errorf("failed scanning cart item with error=%w", err)
		}
		item.ProductPrice = fromNumeric(price)
		item.AddedAt = timePtr(addedAt)
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return cartResponse.Cart{}, fmt.Errorf("failed finding cart items with error=%w", err)
	}
	return cart.WithTotals(), nil
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// inTx runs fn in a transaction that is committed when fn succeeds and rolled back
// otherwise.
func (s *Postgres) inTx(c context.Context, tag string, fn func(tx pgx.Tx) error) error {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, tag).Logger()

	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed initializing transaction with error=%w", err)
	}
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msgf("failed rolling back transaction with error=%s", err.Error())
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(c); err != nil {
		return fmt.Errorf("failed committing transaction with error=%w", err)
	}
	return nil
}

func (s *Postgres) SaveCart(c context.Context, cart cartResponse.Cart) error {
	return s.inTx(c, "Postgres SaveCart", func(tx pgx.Tx) error {
		_, err := tx.Exec(
			c,
			`insert into carts (user_id, id) values ($1, $2)
on conflict (user_id) do update set id = coalesce(excluded.id, carts.id), updated_at = now()`,
			cart.UserID,
			cart.ID,
		)
		if err != nil {
			return fmt.Errorf("failed saving cart with error=%w", err)
		}
		_, err = tx.Exec(c, "delete from cart_items where user_id = $1", cart.UserID)
		if err != nil {
			return fmt.Errorf("failed clearing cart items with error=%w", err)
		}
		for i, item := range cart.Items {
			_, err := tx.Exec(
				c,
				insertCartItem,
				cart.UserID,
				item.ProductID,
				item.Size,
				i,
				item.ProductName,
				numeric(item.ProductPrice),
				item.ProductImage,
				item.Quantity,
				timestamptz(item.AddedAt),
			)
			if err != nil {
				return fmt.Errorf("failed saving cart item with error=%w", err)
			}
		}
		return nil
	})
}

func (s *Postgres) DeleteCart(c context.Context, userID string) error {
	_, err := s.pool.Exec(c, "delete from carts where user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed deleting cart with error=%w", err)
	}
	return nil
}

// TakeStock locks every affected product row before checking and writing stock.
func (s *Postgres) TakeStock(
	c context.Context,
	changes []StockChange,
) ([]cartResponse.StockUpdate, error) {
	c, span := otel.Tracer.Start(c, "Postgres TakeStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Postgres TakeStock").
		Int(log.KeyCartItemsCount, len(changes)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "taking stock").Logger()
	logger.Info().Msg("taking stock")
	updates := []cartResponse.StockUpdate{}
	err := s.inTx(logger.WithContext(c), "Postgres TakeStock", func(tx pgx.Tx) error {
		changes := Merge(changes)
		products := make([]response.Product, 0, len(changes))
		for _, change := range changes {
			product, err := scanProduct(
				tx.QueryRow(c, selectProduct+" where id = $1 for update", change.ProductID),
			)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w id=%s", inErrors.ErrProductNotFound, change.ProductID)
			}
			if err != nil {
				return fmt.Errorf("failed locking product with error=%w", err)
			}
			if product.Stock < change.Quantity {
				return outOfStock(product, change.Quantity)
			}
			products = append(products, product)
		}

		for i, product := range products {
			update := stockUpdate(product, changes[i].Quantity)
			var err error
			if update.Result.Action == cartResponse.ActionDeleted {
				_, err = tx.Exec(c, "delete from products where id = $1", product.ID)
			} else {
				_, err = tx.Exec(
					c,
					"update products set stock = $2, updated_at = now() where id = $1",
					product.ID,
					update.Result.RemainingStock,
				)
			}
			if err != nil {
				return fmt.Errorf("failed writing stock with error=%w", err)
			}
			updates = append(updates, update)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed taking stock with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("took stock")

	return updates, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
