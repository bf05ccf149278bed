package cache

const KeyCoupons = "coupons:%s"
