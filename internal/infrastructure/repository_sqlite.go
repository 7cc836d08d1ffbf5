package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/vidbatch-go/internal/domain"
)

// SQLiteBatchRepository implements BatchRepository using SQLite
type SQLiteBatchRepository struct {
	db *gorm.DB
}

// NewSQLiteBatchRepository creates a new SQLite repository
func NewSQLiteBatchRepository(dbPath string) (*SQLiteBatchRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.BatchTask{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteBatchRepository{db: db}, nil
}

// Create creates a new batch task record
func (r *SQLiteBatchRepository) Create(task *domain.BatchTask) error {
	return r.db.Create(task).Error
}

// Update updates an existing batch task record
func (r *SQLiteBatchRepository) Update(task *domain.BatchTask) error {
	return r.db.Save(task).Error
}

// Delete deletes a batch task by ID
func (r *SQLiteBatchRepository) Delete(id string) error {
	return r.db.Delete(&domain.BatchTask{}, "id = ?", id).Error
}

// FindByID finds a batch task by ID
func (r *SQLiteBatchRepository) FindByID(id string) (*domain.BatchTask, error) {
	var task domain.BatchTask
	err := r.db.First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByStatus finds batch tasks by status
func (r *SQLiteBatchRepository) FindByStatus(status domain.BatchStatus) ([]*domain.BatchTask, error) {
	var tasks []*domain.BatchTask
	err := r.db.Where("status = ?", status).Find(&tasks).Error
	return tasks, err
}

// FindAll returns all batch tasks, newest first
func (r *SQLiteBatchRepository) FindAll() ([]*domain.BatchTask, error) {
	var tasks []*domain.BatchTask
	err := r.db.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// Count returns the total number of batch tasks
func (r *SQLiteBatchRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.BatchTask{}).Count(&count).Error
	return count, err
}

// AggregateStats sums the stats of all terminal batch tasks
func (r *SQLiteBatchRepository) AggregateStats() (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}
	err := r.db.Model(&domain.BatchTask{}).
		Where("status IN ?", []domain.BatchStatus{domain.BatchCompleted, domain.BatchStopped, domain.BatchFailed}).
		Select(
			"COALESCE(SUM(stats_total), 0) as total, " +
				"COALESCE(SUM(stats_successful), 0) as successful, " +
				"COALESCE(SUM(stats_failed), 0) as failed, " +
				"COALESCE(SUM(stats_skipped), 0) as skipped, " +
				"COALESCE(SUM(stats_total_bytes), 0) as total_bytes, " +
				"COALESCE(SUM(stats_total_time_seconds), 0) as total_time_seconds").
		Scan(stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close closes the database connection
func (r *SQLiteBatchRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
