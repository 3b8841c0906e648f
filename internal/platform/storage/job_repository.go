package storage

import (
	"context"

	"gorm.io/gorm"

	"printpress-server-go/internal/platform/errors"
)

// JobRepository persists and queries resize-job audit rows.
type JobRepository interface {
	Save(ctx context.Context, job *ResizeJob) error
	Recent(ctx context.Context, limit int) ([]ResizeJob, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Save(ctx context.Context, job *ResizeJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "job.save", "failed to save resize job", err)
	}
	return nil
}

func (r *jobRepository) Recent(ctx context.Context, limit int) ([]ResizeJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []ResizeJob
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "job.recent", "failed to list resize jobs", err)
	}
	return jobs, nil
}

func (r *jobRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ResizeJob{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, errors.Wrap(errors.KindStorage, "job.count_by_status", "failed to count resize jobs", err)
	}
	return n, nil
}
