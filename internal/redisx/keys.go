package redisx

import "time"

const (
	// Product cache: catalog:product:{product_id} -> product JSON
	KeyCatalogProduct = "catalog:product:%s"

	// List cache: catalog:list:v{version}:{query} -> []product JSON.
	// Bumping the version orphans every cached listing at once.
	KeyCatalogList        = "catalog:list:v%d:%s"
	KeyCatalogListVersion = "catalog:list:version"

	// Checkout idempotency: idem:checkout:{customer_id}:{key} -> "pending" | order_number
	KeyIdemCheckout = "idem:checkout:%s:%s"
)

const idemPending = "pending"

var (
	TTLCatalog     = time.Minute
	TTLIdempotency = 24 * time.Hour
)
