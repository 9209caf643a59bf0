package aws

import "strings"

// Static monthly list prices (us-east-1, on-demand, 730h). Cost
// Explorer gives exact spend for budgets; these estimates only rank
// recommendations, so being a few percent off is acceptable.

// addressMonthlyCost is the idle Elastic IP charge ($0.005/h).
const addressMonthlyCost = 3.60

var instancePrices = map[string]float64{
	"t3.nano":    3.80,
	"t3.micro":   7.59,
	"t3.small":   15.18,
	"t3.medium":  30.37,
	"t3.large":   60.74,
	"t3.xlarge":  121.47,
	"t3.2xlarge": 242.94,
	"m5.large":   70.08,
	"m5.xlarge":  140.16,
	"m5.2xlarge": 280.32,
	"m5.4xlarge": 560.64,
	"c5.large":   62.05,
	"c5.xlarge":  124.10,
	"c5.2xlarge": 248.20,
	"c5.4xlarge": 496.40,
	"r5.large":   91.98,
	"r5.xlarge":  183.96,
	"r5.2xlarge": 367.92,
}

var dbInstancePrices = map[string]float64{
	"db.t3.micro":   12.41,
	"db.t3.small":   24.82,
	"db.t3.medium":  49.64,
	"db.t3.large":   99.28,
	"db.m5.large":   124.83,
	"db.m5.xlarge":  249.66,
	"db.m5.2xlarge": 499.32,
	"db.r5.large":   172.28,
	"db.r5.xlarge":  344.56,
}

// Per-GB-month EBS prices by volume type.
var volumeGBPrices = map[string]float64{
	"gp2":      0.10,
	"gp3":      0.08,
	"io1":      0.125,
	"io2":      0.125,
	"st1":      0.045,
	"sc1":      0.015,
	"standard": 0.05,
}

const snapshotGBPrice = 0.05

func instanceMonthlyCost(instanceType string) float64 {
	if price, ok := instancePrices[instanceType]; ok {
		return price
	}
	return fallbackInstanceCost(instanceType, instancePrices)
}

func dbInstanceMonthlyCost(instanceClass string) float64 {
	if price, ok := dbInstancePrices[instanceClass]; ok {
		return price
	}
	return fallbackInstanceCost(instanceClass, dbInstancePrices)
}

func volumeMonthlyCost(volumeType string, sizeGB int32) float64 {
	price, ok := volumeGBPrices[volumeType]
	if !ok {
		price = volumeGBPrices["gp2"]
	}
	return price * float64(sizeGB)
}

func snapshotMonthlyCost(sizeGB int32) float64 {
	return snapshotGBPrice * float64(sizeGB)
}

// fallbackInstanceCost guesses an unknown size from a known one in
// the same family, scaling by the size suffix. The size is the last
// dot segment so "db.m5.xlarge" and "m5.xlarge" both parse.
func fallbackInstanceCost(instanceType string, prices map[string]float64) float64 {
	family, _, ok := splitSize(instanceType)
	if !ok {
		return 0
	}
	for known, price := range prices {
		if knownFamily, _, ok := splitSize(known); ok && knownFamily == family {
			return price * sizeRatio(instanceType, known)
		}
	}
	return 0
}

func splitSize(instanceType string) (family, size string, ok bool) {
	idx := strings.LastIndex(instanceType, ".")
	if idx <= 0 || idx == len(instanceType)-1 {
		return "", "", false
	}
	return instanceType[:idx], instanceType[idx+1:], true
}

var sizeWeights = map[string]float64{
	"nano":     0.25,
	"micro":    0.5,
	"small":    1,
	"medium":   2,
	"large":    4,
	"xlarge":   8,
	"2xlarge":  16,
	"4xlarge":  32,
	"8xlarge":  64,
	"12xlarge": 96,
	"16xlarge": 128,
	"24xlarge": 192,
}

func sizeRatio(a, b string) float64 {
	_, sizeA, okA := splitSize(a)
	_, sizeB, okB := splitSize(b)
	if !okA || !okB {
		return 1
	}
	wa, wb := sizeWeights[sizeA], sizeWeights[sizeB]
	if wa == 0 || wb == 0 {
		return 1
	}
	return wa / wb
}
