package session

import (
	"os"
	"path/filepath"

	"github.com/tidewell/autopsy/internal/backlog"
	pipelineerrors "github.com/tidewell/autopsy/internal/errors"
)

// Load assembles the report inputs from one session directory: the
// metadata, the backlog snapshot, and the failure records. A missing
// failure file means a clean run and yields an empty failure map; a
// missing backlog yields a nil backlog (the analyzer treats it as
// empty). Only unreadable metadata and malformed files are errors.
func Load(dir string) (map[string]backlog.TaskFailure, backlog.ReportContext, error) {
	meta, err := readMetadata(dir)
	if err != nil {
		return nil, backlog.ReportContext{}, err
	}

	ctx := backlog.ReportContext{
		SessionPath:     dir,
		SessionID:       meta.ID,
		TotalTasks:      meta.TotalTasks,
		CompletedTasks:  meta.CompletedTasks,
		Mode:            meta.Mode,
		ContinueOnError: meta.ContinueOnError,
		StartTime:       meta.StartTime,
	}

	b, err := backlog.LoadBacklog(filepath.Join(dir, backlog.BacklogFileName))
	switch {
	case err == nil:
		ctx.Backlog = b
	case !pipelineerrors.Is(err, os.ErrNotExist):
		return nil, backlog.ReportContext{}, err
	}

	failures := map[string]backlog.TaskFailure{}
	loaded, err := backlog.LoadFailures(filepath.Join(dir, backlog.FailuresFileName))
	switch {
	case err == nil:
		failures = loaded
	case !pipelineerrors.Is(err, os.ErrNotExist):
		return nil, backlog.ReportContext{}, err
	}

	return failures, ctx, nil
}
