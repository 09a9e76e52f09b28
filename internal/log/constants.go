package log

const (
	KeyAppName        = "app"
	KeyRequestID      = "requestId"
	KeyTraceID        = "traceId"
	KeySpanID         = "spanId"
	KeyProcess        = "process"
	KeyEmail          = "email"
	KeyTag            = "tag"
	KeyConfig         = "config"
	KeyRequest        = "request"
	KeyRequestBody    = "requestBody"
	KeyRequestHeader  = "requestHeader"
	KeyRequestHost    = "host"
	KeyRequestIp      = "requesterIP"
	KeyRequestMethod  = "requestMethod"
	KeyRequestURI     = "requestURI"
	KeyRequestURL     = "requestURL"
	KeyResponse       = "response"
	KeyStatusCode     = "statusCode"
	KeyUserID         = "userId"
	KeyRole           = "role"
	KeyPrincipal      = "principal"
	KeyProductID      = "productId"
	KeyProduct        = "product"
	KeyProductsCount  = "productsCount"
	KeyQuery          = "query"
	KeyCategory       = "category"
	KeySize           = "size"
	KeyQuantity       = "quantity"
	KeyCart           = "cart"
	KeyCartItemsCount = "cartItemsCount"
	KeyCartState      = "cartState"
	KeySequence       = "sequence"
	KeyStockUpdates   = "stockUpdates"
	KeySource         = "source"
	KeyCacheKey       = "cacheKey"
	KeyURL            = "url"
	KeyDbURL          = "dbUrl"
	KeyStore          = "store"
	KeyFilteredCount  = "filteredCount"
	KeyDebounce       = "debounce"
)
