// Package activity appends immutable audit records for processed events and
// owns the age-based retention sweep.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

// DefaultRetentionDays is how long feed records are kept before the sweep
// removes them.
const DefaultRetentionDays = 30

type Recorder struct {
	records repository.ActivityRepo
	log     zerolog.Logger
}

func NewRecorder(records repository.ActivityRepo, log zerolog.Logger) *Recorder {
	return &Recorder{records: records, log: log}
}

// Record appends one activity record. It catches and logs its own errors and
// never propagates them: a failed audit write must not fail the event that
// produced it.
func (r *Recorder) Record(ctx context.Context, eventType domain.EventType, targetID, targetType string, actorID *string, workspaceID string, projectID *string, data map[string]any) {
	rec := &domain.ActivityRecord{
		ID:          uuid.New().String(),
		EventType:   eventType,
		ActorID:     actorID,
		TargetID:    targetID,
		TargetType:  targetType,
		ProjectID:   projectID,
		WorkspaceID: workspaceID,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.records.Create(ctx, rec); err != nil {
		r.log.Error().Err(err).
			Str("event_type", string(eventType)).
			Str("target_id", targetID).
			Msg("recording activity failed")
	}
}

// Sweep deletes records older than the given number of days and reports how
// many were removed. Maintenance path, not part of event processing.
func (r *Recorder) Sweep(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed, err := r.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("activity sweep complete")
	return removed, nil
}
