package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultDLQRetention    = 90 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// pruneFunc deletes rows older than cutoff and reports how many went.
type pruneFunc func(tx *gorm.DB, cutoff time.Time) (int64, error)

type RetentionJobParams struct {
	Name      string
	Logger    *logger.Logger
	DB        txRunner
	Prune     pruneFunc
	Retention time.Duration
	Now       func() time.Time
}

// RetentionJob deletes rows that aged past a retention window.
type RetentionJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	prune     pruneFunc
	retention time.Duration
	now       func() time.Time
}

func NewRetentionJob(p RetentionJobParams) (*RetentionJob, error) {
	if p.Name == "" {
		return nil, errors.New("job name required")
	}
	if p.Logger == nil || p.DB == nil || p.Prune == nil {
		return nil, fmt.Errorf("%s: logger, db and prune are required", p.Name)
	}
	if p.Retention <= 0 {
		return nil, fmt.Errorf("%s: retention must be positive", p.Name)
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &RetentionJob{
		name:      p.Name,
		logg:      p.Logger,
		db:        p.DB,
		prune:     p.Prune,
		retention: p.Retention,
		now:       now,
	}, nil
}

// OutboxRetentionJob prunes relayed order events.
func OutboxRetentionJob(logg *logger.Logger, db txRunner, prune pruneFunc, retention time.Duration) (*RetentionJob, error) {
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return NewRetentionJob(RetentionJobParams{Name: "outbox-retention", Logger: logg, DB: db, Prune: prune, Retention: retention})
}

// DLQRetentionJob prunes dead-lettered order events.
func DLQRetentionJob(logg *logger.Logger, db txRunner, prune pruneFunc, retention time.Duration) (*RetentionJob, error) {
	if retention <= 0 {
		retention = defaultDLQRetention
	}
	return NewRetentionJob(RetentionJobParams{Name: "dlq-retention", Logger: logg, DB: db, Prune: prune, Retention: retention})
}

func (j *RetentionJob) Name() string { return j.name }

func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.prune(tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "retention sweep complete")
	return nil
}
