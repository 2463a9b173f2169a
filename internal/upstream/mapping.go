package upstream

import (
	"strings"

	"ppob-service/internal/models"
)

// categoryMap translates reseller category labels to internal slugs.
// Unmapped values pass through as lowercased, underscored slugs so the
// catalog stays usable as the reseller taxonomy grows.
var categoryMap = map[string]string{
	"Pulsa":              models.CategoryPulsa,
	"Data":               models.CategoryPulsa,
	"Paket Data":         models.CategoryPulsa,
	"Paket SMS & Telpon": models.CategoryPulsa,
	"eSIM":               models.CategoryPulsa,
	"PLN":                models.CategoryTokenListrik,
	"Token Listrik":      models.CategoryTokenListrik,
	"Games":              models.CategoryGameVoucher,
	"Voucher":            models.CategoryGameVoucher,
	"Voucher Game":       models.CategoryGameVoucher,
	"Aktivasi Voucher":   models.CategoryGameVoucher,
	"E-Money":            models.CategoryEwallet,
	"E-Wallet":           models.CategoryEwallet,
	"TV":                 models.CategoryTVStreaming,
}

// brandMap translates reseller brand labels to internal provider slugs,
// keyed by the uppercased label.
var brandMap = map[string]string{
	"TELKOMSEL":             "telkomsel",
	"INDOSAT":               "indosat",
	"XL":                    "xl",
	"XL AXIATA":             "xl",
	"TRI":                   "tri",
	"SMARTFREN":             "smartfren",
	"AXIS":                  "axis",
	"BY.U":                  "byu",
	"PLN":                   "pln",
	"MOBILE LEGENDS":        "mobile_legends",
	"FREE FIRE":             "free_fire",
	"PUBG MOBILE":           "pubg",
	"CALL OF DUTY MOBILE":   "cod_mobile",
	"GOOGLE PLAY INDONESIA": "google_play",
	"GOPAY":                 "gopay",
	"OVO":                   "ovo",
	"DANA":                  "dana",
	"SHOPEEPAY":             "shopeepay",
	"GRAB":                  "grab",
}

// MapCategory normalizes a reseller category label to an internal slug
func MapCategory(raw string) string {
	if mapped, ok := categoryMap[raw]; ok {
		return mapped
	}
	return slugify(raw)
}

// MapBrand normalizes a reseller brand label to an internal provider slug
func MapBrand(raw string) string {
	if mapped, ok := brandMap[strings.ToUpper(raw)]; ok {
		return mapped
	}
	return slugify(raw)
}

func slugify(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "_")
}
