package azure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vmID = "/subscriptions/sub-1/resourceGroups/prod-rg/providers/Microsoft.Compute/virtualMachines/web-01"
const dbID = "/subscriptions/sub-1/resourceGroups/prod-rg/providers/Microsoft.Sql/servers/sql-01/databases/orders"

func TestGroupAndName(t *testing.T) {
	resourceGroup, name, err := groupAndName(vmID)
	require.NoError(t, err)
	assert.Equal(t, "prod-rg", resourceGroup)
	assert.Equal(t, "web-01", name)

	_, _, err = groupAndName("/subscriptions/sub-1")
	assert.Error(t, err)
}

func TestDatabaseIDParts(t *testing.T) {
	resourceGroup, serverName, dbName, err := databaseIDParts(dbID)
	require.NoError(t, err)
	assert.Equal(t, "prod-rg", resourceGroup)
	assert.Equal(t, "sql-01", serverName)
	assert.Equal(t, "orders", dbName)

	_, _, _, err = databaseIDParts(vmID)
	assert.Error(t, err)
}

func TestDBState(t *testing.T) {
	assert.Equal(t, "online", dbState("Online"))
	assert.Equal(t, "stopped", dbState("Paused"))
	assert.Equal(t, "stopped", dbState("Pausing"))
	assert.Equal(t, "Disabled", dbState("Disabled"))
}

func TestDiskMonthlyCost(t *testing.T) {
	assert.InDelta(t, 13.5, diskMonthlyCost("Premium_LRS", 100), 0.001)
	// Unknown SKUs price as Standard HDD.
	assert.InDelta(t, 4.5, diskMonthlyCost("Mystery_LRS", 100), 0.001)
}

func TestSQLDatabaseMonthlyCost(t *testing.T) {
	assert.InDelta(t, 14.72, sqlDatabaseMonthlyCost("S0"), 0.001)
	// Prefix match covers vCore SKU variants.
	assert.InDelta(t, 110.0, sqlDatabaseMonthlyCost("GP_S_Gen5_2"), 0.001)
	assert.Equal(t, 0.0, sqlDatabaseMonthlyCost("HS_Gen5_4"))
}
