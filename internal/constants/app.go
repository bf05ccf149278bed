package constants

const (
	AppMainEcommerce = "velaire-ecommerce"
	AppCartService   = "cart-service"
	AppCouponService = "coupon-service"
)

const AudienceUser = "user"
