package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "woodshop/internal/errors"
	"woodshop/internal/logger"
	"woodshop/internal/metrics"
	"woodshop/internal/models"
	"woodshop/internal/pagination"
)

const (
	statisticsPeriodDays = 30
	histogramDays        = 7
)

// auditService records and queries audit entries.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record writes an audit entry. Errors are logged and counted but never
// propagate, so a failed write leaves the primary mutation in place.
func (s *auditService) Record(input RecordInput) *models.AuditEntry {
	entry := &models.AuditEntry{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Operation:  input.Operation,
		Note:       input.Note,
		IPAddress:  truncate(input.Actor.IP, maxIPLength),
		UserAgent:  truncate(input.Actor.UserAgent, maxUserAgentLength),
	}
	if input.Actor.UserID != 0 {
		actorID := input.Actor.UserID
		entry.ActorID = &actorID
	}

	var err error
	if entry.Before, err = encodeSnapshot(input.Before); err == nil {
		if entry.After, err = encodeSnapshot(input.After); err == nil {
			entry.ChangedFields, err = json.Marshal(ChangedFields(input.Before, input.After))
		}
	}
	if err == nil {
		err = s.db.Create(entry).Error
	}

	if err != nil {
		metrics.AuditEntriesTotal.WithLabelValues(string(input.Operation), "failed").Inc()
		logger.Get().Errorw("failed to record audit entry",
			"error", err,
			"entity_type", input.EntityType,
			"entity_id", input.EntityID,
			"operation", input.Operation,
			"actor_id", input.Actor.UserID,
		)
		return nil
	}

	metrics.AuditEntriesTotal.WithLabelValues(string(input.Operation), "written").Inc()
	return entry
}

func encodeSnapshot(snapshot map[string]any) (datatypes.JSON, error) {
	if snapshot == nil {
		return nil, nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// ListEntries returns filtered audit entries, newest first.
func (s *auditService) ListEntries(filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditEntry], error) {
	page.Defaults()

	query := s.applyFilter(s.db.Model(&models.AuditEntry{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditEntry
	if err := query.Preload("Actor").
		Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *auditService) applyFilter(query *gorm.DB, filter AuditFilter) *gorm.DB {
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Operation != "" {
		query = query.Where("operation = ?", filter.Operation)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}
	return query
}

// GetEntry retrieves one audit entry by ID.
func (s *auditService) GetEntry(id uint) (*models.AuditEntry, error) {
	var entry models.AuditEntry
	if err := s.db.Preload("Actor").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuditEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// EntityHistory returns every entry for one row, newest first.
func (s *auditService) EntityHistory(entityType string, entityID uint) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := s.db.Preload("Actor").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

// Statistics aggregates the last 30 days of activity by operation, entity
// type and actor, plus a 7-day daily histogram ordered oldest first.
func (s *auditService) Statistics(now time.Time) (*AuditStatistics, error) {
	since := now.AddDate(0, 0, -statisticsPeriodDays).UTC()
	stats := &AuditStatistics{PeriodDays: statisticsPeriodDays}

	recent := func() *gorm.DB {
		return s.db.Model(&models.AuditEntry{}).Where("audit_entries.created_at >= ?", since)
	}

	if err := recent().Count(&stats.TotalEntries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := recent().
		Select("operation AS label, COUNT(*) AS count").
		Group("operation").
		Order("count DESC").
		Scan(&stats.ByOperation).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := recent().
		Select("entity_type AS label, COUNT(*) AS count").
		Group("entity_type").
		Order("count DESC").
		Scan(&stats.ByEntityType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := recent().
		Select("audit_entries.actor_id AS actor_id, COALESCE(users.username, '') AS username, COUNT(*) AS count").
		Joins("LEFT JOIN users ON users.id = audit_entries.actor_id").
		Group("audit_entries.actor_id, users.username").
		Order("count DESC").
		Scan(&stats.ByActor).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	daily, err := s.dailyHistogram(now)
	if err != nil {
		return nil, err
	}
	stats.Daily = daily

	return stats, nil
}

// dailyHistogram buckets the last seven calendar days in Go so the query
// stays portable across postgres and sqlite.
func (s *auditService) dailyHistogram(now time.Time) ([]DailyCount, error) {
	today := models.CalendarDay(now.UTC())
	start := today.AddDate(0, 0, -(histogramDays - 1))

	var stamps []time.Time
	if err := s.db.Model(&models.AuditEntry{}).
		Where("created_at >= ?", start).
		Pluck("created_at", &stamps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := make(map[string]int64, histogramDays)
	for _, ts := range stamps {
		counts[ts.UTC().Format("2006-01-02")]++
	}

	daily := make([]DailyCount, 0, histogramDays)
	for i := 0; i < histogramDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		daily = append(daily, DailyCount{Date: day, Count: counts[day]})
	}
	return daily, nil
}

// Report returns every entry in the optional range, newest first.
func (s *auditService) Report(from, to *time.Time) ([]models.AuditEntry, error) {
	query := s.applyFilter(s.db.Model(&models.AuditEntry{}), AuditFilter{From: from, To: to})

	var entries []models.AuditEntry
	if err := query.Preload("Actor").Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}
