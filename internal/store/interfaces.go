package store

import (
	"context"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Directory 提供已报名用户列表 — the read-only view of users enrolled for
// automatic signal execution.
type Directory interface {
	// EnrolledUsers lists the users enrolled for automatic execution,
	// credentials included
	EnrolledUsers(ctx context.Context) ([]models.User, error)
}

// SignalStore 处理信号的持久化
type SignalStore interface {
	// SaveSignals stores or overwrites signal records
	SaveSignals(ctx context.Context, signals []models.Signal) error

	// RemoveSignals deletes signal records
	RemoveSignals(ctx context.Context, signals []models.Signal) error

	// ActiveSignals lists all stored signals
	ActiveSignals(ctx context.Context) ([]models.Signal, error)

	// EnrollUser adds a user to the automatic execution set
	EnrollUser(ctx context.Context, username string) error

	// UnenrollUser removes a user from the automatic execution set
	UnenrollUser(ctx context.Context, username string) error
}

// ReportSink 处理执行报告的持久化 — persists run-level execution reports.
// The engine itself never persists anything; the cmd layer feeds the sink.
type ReportSink interface {
	// SaveReport stores one execution report
	SaveReport(ctx context.Context, report *models.ExecutionReport) error
}
