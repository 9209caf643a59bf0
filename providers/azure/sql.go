package azure

import (
	"context"
	"fmt"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// listDatabases walks SQL servers and lists their databases. The
// "master" system database is skipped; it cannot be paused or billed
// independently.
func (p *Provider) listDatabases(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	serverPager := p.serverClient.NewListPager(nil)
	for serverPager.More() {
		serverPage, err := serverPager.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAzure, "list_databases",
				"failed to list SQL servers", err)
		}

		for _, server := range serverPage.Value {
			if server == nil || server.ID == nil {
				continue
			}

			resourceGroup, serverName, err := groupAndName(*server.ID)
			if err != nil {
				continue
			}

			dbPager := p.dbClient.NewListByServerPager(resourceGroup, serverName, nil)
			for dbPager.More() {
				dbPage, err := dbPager.NextPage(ctx)
				if err != nil {
					return nil, providers.WrapError(types.ProviderAzure, "list_databases",
						fmt.Sprintf("failed to list databases of server %s", serverName), err)
				}

				for _, db := range dbPage.Value {
					if db == nil || stringValue(db.Name) == "master" {
						continue
					}

					sku := ""
					if db.SKU != nil && db.SKU.Name != nil {
						sku = *db.SKU.Name
					}

					state := "unknown"
					if db.Properties != nil && db.Properties.Status != nil {
						state = dbState(string(*db.Properties.Status))
					}

					resource := types.Resource{
						ID:          stringValue(db.ID),
						Name:        stringValue(db.Name),
						Kind:        types.KindDatabase,
						Provider:    types.ProviderAzure,
						Region:      stringValue(db.Location),
						State:       state,
						Size:        sku,
						MonthlyCost: sqlDatabaseMonthlyCost(sku),
						Tags:        convertTags(db.Tags),
					}
					if db.Properties != nil && db.Properties.CreationDate != nil {
						resource.CreatedAt = *db.Properties.CreationDate
					}
					resources = append(resources, resource)
				}
			}
		}
	}

	return resources, nil
}

// dbState folds ARM database statuses onto the neutral vocabulary.
func dbState(status string) string {
	switch status {
	case "Online":
		return "online"
	case "Paused", "Pausing":
		return "stopped"
	default:
		return status
	}
}

func (p *Provider) pauseDatabase(ctx context.Context, id string) error {
	resourceGroup, serverName, dbName, err := databaseIDParts(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "pause_database", "bad resource id", err)
	}

	poller, err := p.dbClient.BeginPause(ctx, resourceGroup, serverName, dbName, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "pause_database",
			fmt.Sprintf("failed to pause database %s", dbName), err)
	}
	return nil
}

func (p *Provider) resumeDatabase(ctx context.Context, id string) error {
	resourceGroup, serverName, dbName, err := databaseIDParts(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "resume_database", "bad resource id", err)
	}

	poller, err := p.dbClient.BeginResume(ctx, resourceGroup, serverName, dbName, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "resume_database",
			fmt.Sprintf("failed to resume database %s", dbName), err)
	}
	return nil
}

func databaseIDParts(id string) (resourceGroup, serverName, dbName string, err error) {
	parts := resourceIDParts(id)
	resourceGroup = parts["resourcegroups"]
	serverName = parts["servers"]
	dbName = parts["databases"]
	if resourceGroup == "" || serverName == "" || dbName == "" {
		return "", "", "", fmt.Errorf("malformed database id %q", id)
	}
	return resourceGroup, serverName, dbName, nil
}
