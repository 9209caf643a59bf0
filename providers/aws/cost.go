package aws

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// MonthToDateSpend sums UnblendedCost from the first of the month
// through today. Cost Explorer wants [start, end) date strings.
func (p *Provider) MonthToDateSpend(ctx context.Context) (float64, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 1)

	var total float64
	var nextToken *string
	for {
		output, err := p.ceClient.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start.Format("2006-01-02")),
				End:   aws.String(end.Format("2006-01-02")),
			},
			Granularity:   cetypes.GranularityMonthly,
			Metrics:       []string{"UnblendedCost"},
			NextPageToken: nextToken,
		})
		if err != nil {
			return 0, providers.WrapError(types.ProviderAWS, "month_to_date_spend",
				"GetCostAndUsage failed", err)
		}

		for _, result := range output.ResultsByTime {
			metric, ok := result.Total["UnblendedCost"]
			if !ok {
				continue
			}
			total += parseCostAmount(aws.ToString(metric.Amount))
		}

		if output.NextPageToken == nil {
			break
		}
		nextToken = output.NextPageToken
	}

	return total, nil
}

// DailyServiceCosts returns per-day spend for one service over the
// trailing window, oldest day first. Feeds the anomaly detector.
func (p *Provider) DailyServiceCosts(ctx context.Context, service string, windowDays int) ([]float64, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -windowDays)

	var costs []float64
	var nextToken *string
	for {
		output, err := p.ceClient.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start.Format("2006-01-02")),
				End:   aws.String(now.Format("2006-01-02")),
			},
			Granularity: cetypes.GranularityDaily,
			Metrics:     []string{"UnblendedCost"},
			Filter: &cetypes.Expression{
				Dimensions: &cetypes.DimensionValues{
					Key:    cetypes.DimensionService,
					Values: []string{service},
				},
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, providers.WrapError(types.ProviderAWS, "daily_service_costs",
				"GetCostAndUsage failed", err)
		}

		for _, result := range output.ResultsByTime {
			metric, ok := result.Total["UnblendedCost"]
			if !ok {
				costs = append(costs, 0)
				continue
			}
			costs = append(costs, parseCostAmount(aws.ToString(metric.Amount)))
		}

		if output.NextPageToken == nil {
			break
		}
		nextToken = output.NextPageToken
	}

	return costs, nil
}

func parseCostAmount(amount string) float64 {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return value
}
