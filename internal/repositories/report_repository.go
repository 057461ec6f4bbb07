package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// ReportRepository defines the interface for user reports
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	ListReports(ctx context.Context, page Page) ([]models.Report, error)
	GetReportByID(ctx context.Context, id uint) (*models.Report, error)
	DeleteReport(ctx context.Context, id uint) error
}

type postgresReportRepository struct {
	db *gorm.DB
}

func NewPostgresReportRepository(db *gorm.DB) ReportRepository {
	return &postgresReportRepository{db: db}
}

func (r *postgresReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// ListReports returns reports newest first
func (r *postgresReportRepository) ListReports(ctx context.Context, page Page) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Scopes(page.scope).Find(&reports).Error
	return reports, err
}

func (r *postgresReportRepository) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *postgresReportRepository) DeleteReport(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
