package export

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// JobConfig configures the scheduled export
type JobConfig struct {
	// Schedule is a standard 5-field cron spec
	Schedule  string
	Directory string
	// Weeks is the number of weeks exported, starting with the current one
	Weeks int
	// Recurrence optionally restricts the dates on which a scheduled run exports
	Recurrence string
	Location   *time.Location
}

// Job periodically writes the upcoming weeks' registrations to a directory
type Job struct {
	store  db.ExportStore
	logger *zap.Logger
	cfg    JobConfig
	rule   *rrule.ROption
	cron   *cron.Cron
	now    func() time.Time
}

// NewJob validates cfg and prepares a job; call Start to schedule it
func NewJob(store db.ExportStore, logger *zap.Logger, cfg JobConfig) (*Job, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Weeks < 1 {
		cfg.Weeks = 1
	}

	job := &Job{
		store:  store,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
		cron:   cron.New(cron.WithLocation(cfg.Location)),
	}

	if cfg.Recurrence != "" {
		opts, err := rrule.StrToROptionInLocation(cfg.Recurrence, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid export recurrence: %w", err)
		}
		if _, err := rrule.NewRRule(*opts); err != nil {
			return nil, fmt.Errorf("invalid export recurrence: %w", err)
		}
		job.rule = opts
	}

	if _, err := job.cron.AddFunc(cfg.Schedule, func() { job.runScheduled() }); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", cfg.Schedule, err)
	}
	return job, nil
}

// Start runs the scheduler in the background
func (j *Job) Start() {
	j.logger.Info("Export job scheduled", zap.String("schedule", j.cfg.Schedule), zap.String("directory", j.cfg.Directory))
	j.cron.Start()
}

// Stop stops the scheduler and waits for a running export to finish
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Job) runScheduled() {
	now := j.now().In(j.cfg.Location)
	if !j.appliesOn(now) {
		j.logger.Debug("Export skipped by recurrence", zap.Time("now", now))
		return
	}
	if _, err := j.Run(context.Background(), now); err != nil {
		j.logger.Error("Scheduled export failed", zap.Error(err))
	}
}

// appliesOn reports whether the recurrence allows an export on day
func (j *Job) appliesOn(day time.Time) bool {
	if j.rule == nil {
		return true
	}
	opts := *j.rule
	if opts.Dtstart.IsZero() {
		opts.Dtstart = week.StartOfDay(day).AddDate(0, 0, -7)
	}
	rule, err := rrule.NewRRule(opts)
	if err != nil {
		j.logger.Error("Failed to build export recurrence", zap.Error(err))
		return false
	}
	return len(rule.Between(week.StartOfDay(day), week.EndOfDay(day), true)) > 0
}

// Run exports the configured number of weeks starting with now's week and returns the file path
func (j *Job) Run(ctx context.Context, now time.Time) (string, error) {
	start, end := services.ExportRange(week.WindowFor(now.In(j.cfg.Location)), j.cfg.Weeks)

	registrations, err := services.ExportRegistrations(ctx, j.store, j.logger, start, end)
	if err != nil {
		return "", err
	}

	path, err := WriteFile(j.cfg.Directory, now, Rows(registrations, j.cfg.Location))
	if err != nil {
		return "", err
	}

	j.logger.Info("Export written", zap.String("path", path), zap.Int("rows", len(registrations)))
	return path, nil
}
