package job

import (
	"context"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"freshservice-items-exporter/internal/export"
	"freshservice-items-exporter/internal/freshservice"
)

// Recorder receives the outcome of each run.
type Recorder interface {
	RunSucceeded(items, empty int, at time.Time)
	RunFailed()
}

// Job is one export: enrich a view and write the rows to Output.
type Job struct {
	Enricher *freshservice.Enricher
	ViewID   string
	Policy   freshservice.EmptyPolicy
	Output   string
	Recorder Recorder
	Logger   logrus.FieldLogger
}

// Run performs one export and returns the number of rows written.
func (j *Job) Run(ctx context.Context) (int, error) {
	logger := j.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("run_id", shortuuid.New())

	n, res, err := j.run(ctx, logger)
	if err != nil {
		if j.Recorder != nil {
			j.Recorder.RunFailed()
		}
		return 0, err
	}
	if j.Recorder != nil {
		j.Recorder.RunSucceeded(len(res.Items)-res.Empty(), res.Empty(), time.Now())
	}
	logger.WithFields(logrus.Fields{
		"rows":   n,
		"output": j.Output,
	}).Info("Export written")
	return n, nil
}

func (j *Job) run(ctx context.Context, logger logrus.FieldLogger) (int, *freshservice.Result, error) {
	ctx = freshservice.ContextWithLogger(ctx, logger)
	res, err := j.Enricher.EnrichBatch(ctx, j.ViewID)
	if err != nil {
		return 0, nil, err
	}
	out, err := res.Rows(j.Policy)
	if err != nil {
		return 0, nil, err
	}
	if err := export.WriteFile(j.Output, out); err != nil {
		return 0, nil, fmt.Errorf("export: %w", err)
	}
	return len(out), res, nil
}
