package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

var monitorMetricNames = map[providers.Metric]string{
	providers.MetricCPUAverage:    "Percentage CPU",
	providers.MetricDBConnections: "connection_successful",
}

// MetricAverage reads the average of a metric over the trailing
// window via Azure Monitor. The resource ID is the ARM ID, which is
// exactly what the metrics API takes as its resource URI.
func (p *Provider) MetricAverage(ctx context.Context, resourceID string, metric providers.Metric, windowDays int) (float64, bool, error) {
	metricName, ok := monitorMetricNames[metric]
	if !ok {
		return 0, false, providers.WrapError(types.ProviderAzure, "metric_average",
			fmt.Sprintf("unsupported metric %q", metric), nil)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)
	timespan := fmt.Sprintf("%s/%s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	resp, err := p.metricsClient.List(ctx, resourceID, &armmonitor.MetricsClientListOptions{
		Timespan:    to.Ptr(timespan),
		Interval:    to.Ptr("P1D"),
		Metricnames: to.Ptr(metricName),
		Aggregation: to.Ptr(string(armmonitor.AggregationTypeAverage)),
	})
	if err != nil {
		return 0, false, providers.WrapError(types.ProviderAzure, "metric_average",
			fmt.Sprintf("failed to get %s for %s", metricName, resourceID), err)
	}

	var sum float64
	var count int
	for _, m := range resp.Value {
		if m == nil {
			continue
		}
		for _, series := range m.Timeseries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				if point == nil || point.Average == nil {
					continue
				}
				sum += *point.Average
				count++
			}
		}
	}

	if count == 0 {
		return 0, false, nil
	}
	return sum / float64(count), true, nil
}
