package cron

import (
	"context"
	"fmt"

	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/metrics"
)

type expirySweeper interface {
	SweepExpired(ctx context.Context) (*subscriptions.SweepSummary, error)
}

// SubscriptionExpiryJobParams configures the expiry sweep job.
type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions expirySweeper
	Metrics       *metrics.CronJobMetrics
}

// NewSubscriptionExpiryJob constructs the daily subscription expiry sweep.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		sweeper: params.Subscriptions,
		metrics: params.Metrics,
	}, nil
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	sweeper expirySweeper
	metrics *metrics.CronJobMetrics
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

// Run downgrades every expired paid vendor. The sweep collects per-vendor
// errors, so a failure for one vendor still lets the rest complete; the
// combined error is returned for the cycle log after the summary is written.
func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	summary, err := j.sweeper.SweepExpired(ctx)
	if summary != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"checked":    summary.Checked,
			"downgraded": summary.Downgraded,
		})
		j.logg.Info(logCtx, "subscription expiry sweep complete")
		j.logResults(ctx, summary)
		if j.metrics != nil {
			j.metrics.AddVendorsDowngraded(summary.Downgraded)
		}
	}
	return err
}

func (j *subscriptionExpiryJob) logResults(ctx context.Context, summary *subscriptions.SweepSummary) {
	for _, result := range summary.Results {
		fields := map[string]any{
			"vendor_id":      result.VendorID,
			"locked_flavors": len(result.LockedFlavorIDs),
		}
		for _, delta := range result.StockDeltas {
			fields[fmt.Sprintf("stock_%s", delta.Size)] = fmt.Sprintf("%d->%d", delta.Previous, delta.Current)
		}
		if len(result.AvailabilityDeltas) > 0 {
			fields["availability_rows_adjusted"] = len(result.AvailabilityDeltas)
		}
		j.logg.Info(j.logg.WithFields(ctx, fields), "vendor downgraded to free plan")
	}
}
