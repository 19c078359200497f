package workflows

import (
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// PriceRefreshWorkflowID is the fixed ID of the cron run, so only one schedule exists
const PriceRefreshWorkflowID = "price-refresh"

// PriceRefreshWorkflow recomputes dynamic flight prices. It is started with a
// cron schedule by the worker.
func PriceRefreshWorkflow(ctx workflow.Context) (*models.PriceRefreshResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    MaxActivityAttempts,
		},
	})

	var result models.PriceRefreshResult
	if err := workflow.ExecuteActivity(ctx, models.ActivityRefreshPrices).Get(ctx, &result); err != nil {
		logger.Error("Price refresh failed", "error", err)
		return nil, err
	}

	logger.Info("Price refresh completed", "updated", result.Updated)
	return &result, nil
}
