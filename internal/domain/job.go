package domain

// JobStatus represents the state of a single-item download job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobCancelled JobStatus = "cancelled"
	JobFailed    JobStatus = "failed"
)

// DownloadJobSpec describes one URL-to-file download. It is consumed
// once by a download job and never persisted.
type DownloadJobSpec struct {
	Video        VideoReference
	OutputDir    string
	Format       string // explicit format selector; empty selects the default
	IncludeSubs  bool
	SubtitleLang string
	CookieFile   string // silently omitted from the command when missing on disk
	RateLimit    string // e.g. "2M"; empty disables rate limiting
	MaxRetries   int
}

// JobResult is the terminal outcome of one download job.
type JobResult struct {
	Status   JobStatus
	Attempts int
	Message  string
}
