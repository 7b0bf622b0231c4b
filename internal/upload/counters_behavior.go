package upload

import (
	"context"

	"marketboard/internal/metrics"
	"marketboard/internal/models"
)

type sourceIncrementer interface {
	Increment(ctx context.Context, apiKeyHash string) error
}

// TrustedSourceIncrementBehavior bumps the authenticated source's upload
// count. Runs on every non-blacklisted upload.
type TrustedSourceIncrementBehavior struct {
	registry sourceIncrementer
}

func NewTrustedSourceIncrementBehavior(registry sourceIncrementer) *TrustedSourceIncrementBehavior {
	return &TrustedSourceIncrementBehavior{registry: registry}
}

func (b *TrustedSourceIncrementBehavior) Name() string { return "trusted_source_increment" }

func (b *TrustedSourceIncrementBehavior) ShouldExecute(*Parameters) bool { return true }

func (b *TrustedSourceIncrementBehavior) Execute(ctx context.Context, src *models.TrustedSource, _ *Parameters) error {
	return b.registry.Increment(ctx, src.APIKeyHash)
}

type dailyCounter interface {
	Increment(ctx context.Context) error
}

// DailyUploadIncrementBehavior maintains the rolling 30-day upload count.
type DailyUploadIncrementBehavior struct {
	history dailyCounter
}

func NewDailyUploadIncrementBehavior(history dailyCounter) *DailyUploadIncrementBehavior {
	return &DailyUploadIncrementBehavior{history: history}
}

func (b *DailyUploadIncrementBehavior) Name() string { return "daily_upload_increment" }

func (b *DailyUploadIncrementBehavior) ShouldExecute(*Parameters) bool { return true }

func (b *DailyUploadIncrementBehavior) Execute(ctx context.Context, _ *models.TrustedSource, _ *Parameters) error {
	if err := b.history.Increment(ctx); err != nil {
		return err
	}
	metrics.Inc("upload.accepted")
	return nil
}
