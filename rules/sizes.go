package rules

import (
	"strings"

	"github.com/frugalops/frugal/types"
)

// sizeEntry is one instance size with its relative cost within the
// family. The saving math only relies on the ratio between adjacent
// entries, not on absolute prices.
type sizeEntry struct {
	name  string
	units float64
}

// Ordered smallest-first per family. Right-sizing walks one step down.
var sizeFamilies = map[types.Provider]map[string][]sizeEntry{
	types.ProviderAWS: {
		"t3": {
			{"t3.nano", 1}, {"t3.micro", 2}, {"t3.small", 4},
			{"t3.medium", 8}, {"t3.large", 16}, {"t3.xlarge", 32}, {"t3.2xlarge", 64},
		},
		"m5": {
			{"m5.large", 16}, {"m5.xlarge", 32}, {"m5.2xlarge", 64},
			{"m5.4xlarge", 128}, {"m5.8xlarge", 256},
		},
		"c5": {
			{"c5.large", 14}, {"c5.xlarge", 28}, {"c5.2xlarge", 56}, {"c5.4xlarge", 112},
		},
		"r5": {
			{"r5.large", 21}, {"r5.xlarge", 42}, {"r5.2xlarge", 84}, {"r5.4xlarge", 168},
		},
	},
	types.ProviderAzure: {
		"Standard_B": {
			{"Standard_B1s", 1}, {"Standard_B2s", 4}, {"Standard_B2ms", 8},
			{"Standard_B4ms", 16}, {"Standard_B8ms", 32},
		},
		"Standard_D": {
			{"Standard_D2s_v3", 16}, {"Standard_D4s_v3", 32},
			{"Standard_D8s_v3", 64}, {"Standard_D16s_v3", 128},
		},
		"Standard_E": {
			{"Standard_E2s_v3", 21}, {"Standard_E4s_v3", 42}, {"Standard_E8s_v3", 84},
		},
	},
}

// smallerSize finds the next size down in the same family. The ratio
// is smaller/current cost, used as saving = cost * (1 - ratio).
func smallerSize(provider types.Provider, instanceType string) (name string, ratio float64, ok bool) {
	families, found := sizeFamilies[provider]
	if !found {
		return "", 0, false
	}
	family, found := families[familyOf(provider, instanceType)]
	if !found {
		return "", 0, false
	}
	for i, entry := range family {
		if entry.name != instanceType {
			continue
		}
		if i == 0 {
			return "", 0, false // already the smallest
		}
		prev := family[i-1]
		return prev.name, prev.units / entry.units, true
	}
	return "", 0, false
}

func familyOf(provider types.Provider, instanceType string) string {
	if provider == types.ProviderAWS {
		if i := strings.Index(instanceType, "."); i > 0 {
			return instanceType[:i]
		}
		return instanceType
	}
	// Azure sizes group by the letter after Standard_.
	if strings.HasPrefix(instanceType, "Standard_") && len(instanceType) > len("Standard_") {
		return instanceType[:len("Standard_")+1]
	}
	return instanceType
}
