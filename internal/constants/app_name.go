package constants

const (
	AppStorefront = "storefront"
	AppCatalog    = "storefront-catalog"
	AppCart       = "storefront-cart"
	AppUser       = "storefront-user"
	AppClient     = "storefront-client"
	AppApi        = "storefront-api"
)
