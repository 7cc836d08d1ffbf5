package domain

// BatchRepository defines the interface for batch task persistence
type BatchRepository interface {
	// Create creates a new batch task record
	Create(task *BatchTask) error

	// Update updates an existing batch task record
	Update(task *BatchTask) error

	// Delete deletes a batch task by ID
	Delete(id string) error

	// FindByID finds a batch task by ID
	FindByID(id string) (*BatchTask, error)

	// FindByStatus finds batch tasks by status
	FindByStatus(status BatchStatus) ([]*BatchTask, error)

	// FindAll returns all batch tasks, newest first
	FindAll() ([]*BatchTask, error)

	// Count returns the total number of batch tasks
	Count() (int64, error)

	// AggregateStats sums the stats of all terminal batch tasks
	AggregateStats() (*DownloadStats, error)
}
