package service

import (
	"context"

	"github.com/rmottanelli/clareza/internal/activity"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

type activityService struct {
	records  repository.ActivityRepo
	recorder *activity.Recorder
}

func NewActivityService(records repository.ActivityRepo, recorder *activity.Recorder) ActivityService {
	return &activityService{records: records, recorder: recorder}
}

func (s *activityService) List(ctx context.Context, f repository.ActivityFilter) ([]*domain.ActivityRecord, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	return s.records.List(ctx, f)
}

func (s *activityService) Sweep(ctx context.Context, retentionDays int) (int64, error) {
	return s.recorder.Sweep(ctx, retentionDays)
}
