package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

// groupableColumns guards CountGroupedBy against arbitrary SQL identifiers.
var groupableColumns = map[string]bool{
	"anomaly_type": true,
	"severity":     true,
	"status":       true,
}

type AnomalyRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAnomalyRepository(db *gorm.DB, log *zap.Logger) ports.AnomalyRepository {
	return &AnomalyRepository{
		db:  db,
		log: log,
	}
}

// Insert persists a new anomaly. The composite unique index on the dedup key
// turns a concurrent duplicate into gorm.ErrDuplicatedKey, surfaced as the
// domain sentinel so the job runner can treat it as benign.
func (r *AnomalyRepository) Insert(ctx context.Context, a *domain.Anomaly) error {
	result := r.db.WithContext(ctx).Create(a)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateAnomaly
		}
		r.log.Error("Failed to insert anomaly",
			zap.String("device_id", a.DeviceID),
			zap.String("type", string(a.Type)),
			zap.Error(result.Error),
		)
		return result.Error
	}
	return nil
}

func (r *AnomalyRepository) Update(ctx context.Context, a *domain.Anomaly) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AnomalyRepository) FindByID(ctx context.Context, id string) (*domain.Anomaly, error) {
	var a domain.Anomaly
	result := r.db.WithContext(ctx).First(&a, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &a, nil
}

func (r *AnomalyRepository) FindEquivalent(ctx context.Context, deviceID string, t domain.AnomalyType, start, end time.Time) (*domain.Anomaly, error) {
	var a domain.Anomaly
	result := r.db.WithContext(ctx).
		Where("device_id = ? AND anomaly_type = ? AND start_date = ? AND end_date = ?", deviceID, t, start, end).
		First(&a)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &a, nil
}

func (r *AnomalyRepository) FindAll(ctx context.Context, filter ports.AnomalyFilter) ([]domain.Anomaly, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Anomaly{})
	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.Type != "" {
		query = query.Where("anomaly_type = ?", filter.Type)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		query = query.Where("detected_at >= ?", filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var anomalies []domain.Anomaly
	if err := query.Order("detected_at DESC").Find(&anomalies).Error; err != nil {
		return nil, 0, err
	}
	return anomalies, total, nil
}

func (r *AnomalyRepository) CountGroupedBy(ctx context.Context, column string, deviceID string) ([]ports.GroupCount, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group anomalies by column %q", column)
	}

	query := r.db.WithContext(ctx).Model(&domain.Anomaly{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var counts []ports.GroupCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *AnomalyRepository) SumEstimatedLoss(ctx context.Context, deviceID string) (float64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Anomaly{}).
		Select("COALESCE(SUM(estimated_loss_kwh), 0)")
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var total float64
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *AnomalyRepository) Trend(ctx context.Context, deviceID string, since time.Time) ([]domain.TrendBucket, error) {
	type row struct {
		Day      time.Time
		Severity domain.AnomalySeverity
		Count    int64
	}

	sql := `
		SELECT DATE(detected_at) AS day, severity, COUNT(*) AS count
		FROM anomalies
		WHERE detected_at >= ?`
	args := []interface{}{since}
	if deviceID != "" {
		sql += " AND device_id = ?"
		args = append(args, deviceID)
	}
	sql += `
		GROUP BY DATE(detected_at), severity
		ORDER BY day ASC`

	var rows []row
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	var buckets []domain.TrendBucket
	byDay := make(map[time.Time]int)
	for _, rw := range rows {
		idx, ok := byDay[rw.Day]
		if !ok {
			buckets = append(buckets, domain.TrendBucket{Date: rw.Day})
			idx = len(buckets) - 1
			byDay[rw.Day] = idx
		}
		switch rw.Severity {
		case domain.SeverityCritical:
			buckets[idx].Critical = rw.Count
		case domain.SeverityWarning:
			buckets[idx].Warning = rw.Count
		case domain.SeverityInfo:
			buckets[idx].Info = rw.Count
		}
	}
	return buckets, nil
}
