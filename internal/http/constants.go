package http

const (
	KeyHeaderContentType    = "Content-Type"
	KeyHeaderRequestID      = "X-Request-Id"
	ValueHeaderJson         = "application/json"
	ValueStatusSuccess      = "success"
	ValueStatusFailed       = "failed"
	DefaultPlaceholderImage = "https://via.placeholder.com/400x300"
)
