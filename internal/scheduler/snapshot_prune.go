package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/foliocore/foliocore/internal/database/repositories"
)

// SnapshotPruneJob deletes analysis snapshots older than the retention
// window.
type SnapshotPruneJob struct {
	snapshots *repositories.AnalysisRepository
	maxAge    time.Duration
	log       zerolog.Logger
}

// NewSnapshotPruneJob creates a snapshot prune job
func NewSnapshotPruneJob(snapshots *repositories.AnalysisRepository, maxAge time.Duration, log zerolog.Logger) *SnapshotPruneJob {
	return &SnapshotPruneJob{
		snapshots: snapshots,
		maxAge:    maxAge,
		log:       log.With().Str("job", "snapshot_prune").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotPruneJob) Name() string { return "snapshot_prune" }

// Run prunes old snapshots
func (j *SnapshotPruneJob) Run() error {
	removed, err := j.snapshots.Prune(j.maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("Pruned old analysis snapshots")
	}
	return nil
}
