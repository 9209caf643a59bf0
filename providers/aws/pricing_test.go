package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceMonthlyCost(t *testing.T) {
	assert.InDelta(t, 140.16, instanceMonthlyCost("m5.xlarge"), 0.001)

	// Unknown size in a known family scales off a known price.
	estimated := instanceMonthlyCost("m5.8xlarge")
	assert.Greater(t, estimated, instanceMonthlyCost("m5.4xlarge"))

	// Unknown family has no sane estimate.
	assert.Equal(t, 0.0, instanceMonthlyCost("z9.mega"))
}

func TestVolumeMonthlyCost(t *testing.T) {
	assert.InDelta(t, 10.0, volumeMonthlyCost("gp2", 100), 0.001)
	assert.InDelta(t, 8.0, volumeMonthlyCost("gp3", 100), 0.001)
	// Unknown volume types price as gp2.
	assert.InDelta(t, 10.0, volumeMonthlyCost("exotic", 100), 0.001)
}

func TestDBInstanceMonthlyCost(t *testing.T) {
	assert.InDelta(t, 124.83, dbInstanceMonthlyCost("db.m5.large"), 0.001)
}

func TestSplitSize(t *testing.T) {
	family, size, ok := splitSize("db.m5.xlarge")
	assert.True(t, ok)
	assert.Equal(t, "db.m5", family)
	assert.Equal(t, "xlarge", size)

	_, _, ok = splitSize("nodot")
	assert.False(t, ok)
}

func TestParseCostAmount(t *testing.T) {
	assert.InDelta(t, 123.45, parseCostAmount("123.45"), 0.0001)
	assert.Equal(t, 0.0, parseCostAmount("not-a-number"))
}
