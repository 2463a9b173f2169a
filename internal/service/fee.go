package service

// CalculateAdminFee returns the admin fee for a product price. The tiers
// are a fixed business rule; totals are always price + fee in integer
// rupiah, snapshotted onto the transaction at creation time.
func CalculateAdminFee(price int64) int64 {
	switch {
	case price <= 10_000:
		return 750
	case price <= 25_000:
		return 1_000
	case price <= 50_000:
		return 1_500
	case price <= 100_000:
		return 2_000
	default:
		return 2_500
	}
}
