package azure

import "strings"

// Static monthly list prices (East US, pay-as-you-go, 730h). Like the
// AWS tables these only rank recommendations.

// publicIPMonthlyCost is the static public IP charge ($0.004/h).
const publicIPMonthlyCost = 2.90

var vmPrices = map[string]float64{
	"Standard_B1s":     7.59,
	"Standard_B2s":     30.37,
	"Standard_B2ms":    60.74,
	"Standard_B4ms":    121.47,
	"Standard_D2s_v3":  70.08,
	"Standard_D4s_v3":  140.16,
	"Standard_D8s_v3":  280.32,
	"Standard_D16s_v3": 560.64,
	"Standard_E2s_v3":  91.98,
	"Standard_E4s_v3":  183.96,
	"Standard_E8s_v3":  367.92,
	"Standard_F2s_v2":  61.76,
	"Standard_F4s_v2":  123.52,
}

// Managed disk monthly price per GB by SKU family.
var diskGBPrices = map[string]float64{
	"Premium_LRS":     0.135,
	"PremiumV2_LRS":   0.095,
	"StandardSSD_LRS": 0.075,
	"Standard_LRS":    0.045,
	"UltraSSD_LRS":    0.15,
}

const snapshotGBPrice = 0.05

// Rough monthly prices by SQL database SKU tier prefix.
var sqlSKUPrices = map[string]float64{
	"Basic":    4.90,
	"S0":       14.72,
	"S1":       29.43,
	"S2":       73.58,
	"S3":       147.17,
	"P1":       457.00,
	"GP_S_Gen": 110.00,
	"GP_Gen":   380.00,
}

func vmMonthlyCost(size string) float64 {
	return vmPrices[size]
}

func diskMonthlyCost(sku string, sizeGB int32) float64 {
	price, ok := diskGBPrices[sku]
	if !ok {
		price = diskGBPrices["Standard_LRS"]
	}
	return price * float64(sizeGB)
}

func snapshotMonthlyCost(sizeGB int32) float64 {
	return snapshotGBPrice * float64(sizeGB)
}

func sqlDatabaseMonthlyCost(sku string) float64 {
	if price, ok := sqlSKUPrices[sku]; ok {
		return price
	}
	for prefix, price := range sqlSKUPrices {
		if strings.HasPrefix(sku, prefix) {
			return price
		}
	}
	return 0
}
