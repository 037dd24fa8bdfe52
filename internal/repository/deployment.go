package repository

import (
	"strings"
	"time"

	"github.com/sagebind/robo-ftp/internal/db"
	"github.com/sagebind/robo-ftp/internal/deploy"
	"github.com/sagebind/robo-ftp/internal/model"
)

type DeploymentRepository struct{}

func NewDeploymentRepository() *DeploymentRepository {
	return &DeploymentRepository{}
}

func (r *DeploymentRepository) Save(cfg deploy.Config, report *deploy.Report) error {
	status := model.DeploySuccess
	var errMsg string

	switch report.Outcome() {
	case deploy.OutcomeFatal:
		status = model.DeployFatal
		errMsg = report.Fatal.Error()
	case deploy.OutcomePartial:
		status = model.DeployPartial
		var failed []string
		for _, res := range report.FailedResults() {
			failed = append(failed, res.Entry.RelPath+": "+res.Err.Error())
		}
		errMsg = strings.Join(failed, "; ")
	}

	dep := model.Deployment{
		Host:       cfg.Host,
		TargetRoot: cfg.TargetRoot,
		SourceRoot: cfg.SourceRoot,
		Revision:   report.Revision,
		Status:     status,
		Uploaded:   report.Uploaded,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		DryRun:     cfg.DryRun,
		ErrMsg:     errMsg,
		FinishedAt: time.Now(),
	}

	return db.DB.Create(&dep).Error
}

type Stats struct {
	Total   int64
	Success int64
	Failed  int64
}

func (r *DeploymentRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.Deployment{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.Deployment{}).
		Where("status = ?", model.DeploySuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *DeploymentRepository) GetRecent(limit int) ([]model.Deployment, error) {
	var deployments []model.Deployment
	result := db.DB.
		Order("finished_at desc").
		Limit(limit).
		Find(&deployments)

	return deployments, result.Error
}
