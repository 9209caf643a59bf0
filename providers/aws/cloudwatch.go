package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// metricDimension maps the neutral metric names onto CloudWatch
// namespaces and dimensions.
type metricDimension struct {
	namespace  string
	metricName string
	dimension  string
}

var cloudwatchMetrics = map[providers.Metric]metricDimension{
	providers.MetricCPUAverage: {
		namespace:  "AWS/EC2",
		metricName: "CPUUtilization",
		dimension:  "InstanceId",
	},
	providers.MetricDBConnections: {
		namespace:  "AWS/RDS",
		metricName: "DatabaseConnections",
		dimension:  "DBInstanceIdentifier",
	},
}

// MetricAverage reads the average of a metric over the trailing
// window. CloudWatch returning no datapoints means the resource was
// not emitting; ok is false and the caller decides.
func (p *Provider) MetricAverage(ctx context.Context, resourceID string, metric providers.Metric, windowDays int) (float64, bool, error) {
	dim, ok := cloudwatchMetrics[metric]
	if !ok {
		return 0, false, providers.WrapError(types.ProviderAWS, "metric_average",
			fmt.Sprintf("unsupported metric %q", metric), nil)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	output, err := p.cwClient.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(dim.namespace),
		MetricName: aws.String(dim.metricName),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dim.dimension), Value: aws.String(resourceID)},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(86400), // daily datapoints
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return 0, false, providers.WrapError(types.ProviderAWS, "metric_average",
			fmt.Sprintf("failed to get %s for %s", dim.metricName, resourceID), err)
	}

	if len(output.Datapoints) == 0 {
		return 0, false, nil
	}

	var sum float64
	for _, dp := range output.Datapoints {
		sum += aws.ToFloat64(dp.Average)
	}
	return sum / float64(len(output.Datapoints)), true, nil
}
