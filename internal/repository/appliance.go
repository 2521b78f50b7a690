package repository

import (
	"context"
	"strings"

	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplianceRepository is a repository for kitchen appliances.
type ApplianceRepository struct {
	DB *gorm.DB
}

// NewApplianceRepository creates a new ApplianceRepository.
func NewApplianceRepository(db *gorm.DB) *ApplianceRepository {
	return &ApplianceRepository{DB: db}
}

// ListAppliances returns the appliances, optionally filtered by category.
func (r *ApplianceRepository) ListAppliances(ctx context.Context, category string) ([]models.Appliance, error) {
	var appliances []models.Appliance
	q := r.DB.WithContext(ctx).Order("name")
	if category != "" {
		q = q.Where("category ILIKE ?", category)
	}
	if err := q.Find(&appliances).Error; err != nil {
		return nil, err
	}
	return appliances, nil
}

// FindApplianceByName returns the first appliance whose name contains name.
func (r *ApplianceRepository) FindApplianceByName(ctx context.Context, name string) (*models.Appliance, error) {
	var appliance models.Appliance
	err := r.DB.WithContext(ctx).
		Where("name ILIKE ?", "%"+strings.TrimSpace(name)+"%").
		Order("id").
		First(&appliance).Error
	if err != nil {
		return nil, notFoundOr(err, "Appliance not found")
	}
	return &appliance, nil
}

// AddAppliance stores a new appliance.
func (r *ApplianceRepository) AddAppliance(ctx context.Context, appliance *models.Appliance) error {
	if err := r.DB.WithContext(ctx).Create(appliance).Error; err != nil {
		logger.Get().Error("failed to add appliance", zap.String("name", appliance.Name), zap.Error(err))
		return err
	}
	return nil
}

// DeleteAppliance removes an appliance.
func (r *ApplianceRepository) DeleteAppliance(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Appliance{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFoundError{message: "Appliance not found"}
	}
	return nil
}
