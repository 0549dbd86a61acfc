package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

type DeviceRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDeviceRepository(db *gorm.DB, log *zap.Logger) ports.DeviceRepository {
	return &DeviceRepository{
		db:  db,
		log: log,
	}
}

func (r *DeviceRepository) Save(ctx context.Context, d *domain.Device) error {
	result := r.db.WithContext(ctx).Save(d)
	if result.Error != nil {
		r.log.Error("Failed to save device", zap.String("device_id", d.ID), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *DeviceRepository) FindByID(ctx context.Context, id string) (*domain.Device, error) {
	var d domain.Device
	result := r.db.WithContext(ctx).Preload("Site").First(&d, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &d, nil
}

func (r *DeviceRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error) {
	var devices []domain.Device
	query := r.db.WithContext(ctx).Preload("Site")
	if status, ok := filter["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if siteID, ok := filter["site_id"]; ok {
		query = query.Where("site_id = ?", siteID)
	}

	result := query.Order("id").Find(&devices)
	if result.Error != nil {
		return nil, result.Error
	}
	return devices, nil
}

func (r *DeviceRepository) ListActive(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	result := r.db.WithContext(ctx).
		Where("status = ?", domain.DeviceStatusActive).
		Order("id").
		Find(&devices)
	if result.Error != nil {
		return nil, result.Error
	}
	return devices, nil
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Device{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
