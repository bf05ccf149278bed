package log

const (
	KeyAppName       = "app"
	KeyAuthToken     = "authToken"
	KeyBody          = "body"
	KeyCacheKey      = "cacheKey"
	KeyCart          = "cart"
	KeyCartItems     = "cartItems"
	KeyCartVersion   = "cartVersion"
	KeyConfig        = "config"
	KeyCoupon        = "coupon"
	KeyCouponCode    = "couponCode"
	KeyDbURL         = "dbUrl"
	KeyHeader        = "header"
	KeyPathValues    = "pathValues"
	KeyProcess       = "process"
	KeyProductID     = "productId"
	KeyQuantity      = "quantity"
	KeyRequest       = "request"
	KeyRequestHost   = "host"
	KeyRequestID     = "requestId"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"
	KeySubtotal      = "subtotal"
	KeyTag           = "tag"
	KeyToken         = "token"
	KeyUserID        = "userId"
)
