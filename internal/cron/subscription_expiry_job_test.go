package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
)

type fakeSweeper struct {
	summary *subscriptions.SweepSummary
	err     error
	calls   int
}

func (f *fakeSweeper) SweepExpired(context.Context) (*subscriptions.SweepSummary, error) {
	f.calls++
	return f.summary, f.err
}

func TestSubscriptionExpiryJobRunsSweep(t *testing.T) {
	sweeper := &fakeSweeper{
		summary: &subscriptions.SweepSummary{
			Checked:    3,
			Downgraded: 1,
			Results: []*subscriptions.DowngradeResult{{
				VendorID:        7,
				Applied:         true,
				LockedFlavorIDs: []uint{1, 2},
				StockDeltas: []subscriptions.StockDelta{
					{Size: enums.DrumSizeLarge, Previous: 10, Current: 1},
				},
			}},
		},
	}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "cron-test"}),
		Subscriptions: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "subscription-expiry" {
		t.Fatalf("unexpected job name %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", sweeper.calls)
	}
}

func TestSubscriptionExpiryJobPropagatesSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{
		summary: &subscriptions.SweepSummary{Checked: 2, Downgraded: 1},
		err:     errors.New("vendor 9: boom"),
	}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "cron-test"}),
		Subscriptions: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error surfaced")
	}
}

func TestNewSubscriptionExpiryJobRequiresDependencies(t *testing.T) {
	if _, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Subscriptions: &fakeSweeper{},
	}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
	if _, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	}); err == nil {
		t.Fatal("expected missing service to fail")
	}
}
