package response

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inHttp "github.com/Alturino/storefront/internal/http"
)

const (
	CategoryShirts      = "Camisetas"
	CategoryTrousers    = "Pantalones"
	CategoryDresses     = "Vestidos"
	CategoryShoes       = "Zapatos"
	CategoryAccessories = "Accesorios"
)

var (
	Categories = []string{
		CategoryShirts,
		CategoryTrousers,
		CategoryDresses,
		CategoryShoes,
		CategoryAccessories,
	}
	Sizes = []string{"XS", "S", "M", "L", "XL", "XXL"}
)

func init() {
	// the collaborator sends and expects prices as json numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry. ID is the canonical identifier and is always serialized as
// "id"; decoding also accepts the legacy "_id" field, see UnmarshalJSON.
type Product struct {
	ID          string          `json:"id"          redis:"id"`
	Name        string          `json:"name"        redis:"name"`
	Price       decimal.Decimal `json:"price"       redis:"price"`
	Description string          `json:"description" redis:"description"`
	Category    string          `json:"category"    redis:"category"`
	Image       string          `json:"image"       redis:"image"`
	Size        string          `json:"size"        redis:"size"`
	Color       string          `json:"color"       redis:"color"`
	Stock       int             `json:"stock"       redis:"stock"`
}

// UnmarshalJSON maps "id" or "_id" (string, number or {"$oid": ...}) onto ID, "id" taking
// precedence, and then applies Normalize.
func (p *Product) UnmarshalJSON(b []byte) error {
	type alias Product
	aux := struct {
		*alias
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	id := rawID(aux.ID)
	if id == "" {
		id = rawID(aux.MongoID)
	}
	p.ID = id
	p.Normalize()
	return nil
}

func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		s := ""
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{':
		oid := struct {
			Oid string `json:"$oid"`
		}{}
		if err := json.Unmarshal(raw, &oid); err != nil {
			return ""
		}
		return oid.Oid
	default:
		return string(raw)
	}
}

// Normalize fills the defaults a catalog entry must carry: a stable id, a placeholder
// image and a non-negative stock.
func (p *Product) Normalize() {
	if p.ID == "" {
		p.ID = DeriveID(*p)
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = inHttp.DefaultPlaceholderImage
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
}

// DeriveID returns a content based uuid for products that arrive without an identifier, so
// the same product keeps the same id across reloads. Products equal in every hashed field
// share an id and are deduplicated as one.
func DeriveID(p Product) string {
	name := strings.Join(
		[]string{p.Name, p.Category, p.Size, p.Color, p.Price.String(), p.Description},
		"|",
	)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (p Product) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", p.ID).
		Str("name", p.Name).
		Str("price", p.Price.String()).
		Str("category", p.Category).
		Int("stock", p.Stock)
}

func IsCategory(category string) bool {
	return slices.Contains(Categories, category)
}
