package whatsmybill

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

const (
	costExplorerLogPrefix = "whatsmybill:costexplorer"

	costExplorerRegion = "us-east-1"
	amortizedCost      = "AmortizedCost"
)

// CostAndUsageAPI is the slice of the Cost Explorer client the resource calls.
type CostAndUsageAPI interface {
	GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostExplorer reads amortized cost from AWS Cost Explorer.
type CostExplorer struct {
	api CostAndUsageAPI
}

// NewCostExplorer builds a client from the default AWS credential chain.
func NewCostExplorer(ctx context.Context) (*CostExplorer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(costExplorerRegion))
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load aws config: %w", costExplorerLogPrefix, err)
	}
	return NewCostExplorerFromAPI(costexplorer.NewFromConfig(cfg)), nil
}

// NewCostExplorerFromAPI wraps an existing client.
func NewCostExplorerFromAPI(api CostAndUsageAPI) *CostExplorer {
	return &CostExplorer{api: api}
}

// AmortizedCost returns the amortized cost between start and end (YYYY-MM-DD, end
// exclusive) as the decimal string Cost Explorer reports.
func (c *CostExplorer) AmortizedCost(ctx context.Context, start, end string) (string, error) {
	out, err := c.api.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  &types.DateInterval{Start: aws.String(start), End: aws.String(end)},
		Granularity: types.GranularityMonthly,
		Metrics:     []string{amortizedCost},
	})
	if err != nil {
		return "", fmt.Errorf("%s - GetCostAndUsage failed: %w", costExplorerLogPrefix, err)
	}

	if len(out.ResultsByTime) == 0 {
		return "", fmt.Errorf("%s - response has no results for %s..%s", costExplorerLogPrefix, start, end)
	}
	metric, ok := out.ResultsByTime[0].Total[amortizedCost]
	if !ok || metric.Amount == nil {
		return "", fmt.Errorf("%s - response has no amortized cost for %s..%s", costExplorerLogPrefix, start, end)
	}
	return aws.ToString(metric.Amount), nil
}
