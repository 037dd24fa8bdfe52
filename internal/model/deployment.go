package model

import (
	"time"

	"gorm.io/gorm"
)

type DeployStatus string

const (
	DeploySuccess DeployStatus = "SUCCESS"
	DeployPartial DeployStatus = "PARTIAL"
	DeployFatal   DeployStatus = "FATAL"
)

type Deployment struct {
	gorm.Model
	Host       string       `gorm:"not null"`
	TargetRoot string       `gorm:"not null"`
	SourceRoot string       `gorm:"not null"`
	Revision   string
	Status     DeployStatus `gorm:"not null"`
	Uploaded   int          `gorm:"not null"`
	Skipped    int          `gorm:"not null"`
	Failed     int          `gorm:"not null"`
	DryRun     bool         `gorm:"not null"`
	ErrMsg     string
	FinishedAt time.Time    `gorm:"not null"`
}
