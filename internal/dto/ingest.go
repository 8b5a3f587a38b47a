package dto

// Failure reasons surfaced per file in a batch ingest result.
const (
	FailureMissingCaptureTime = "MissingCaptureTime"
	FailureNoSessionWithin    = "NoSessionWithinWindow"
	FailureStorage            = "StorageFailure"
	FailureDatabase           = "DatabaseFailure"
)

// IngestFile is one camera-card file submitted for ingestion.
type IngestFile struct {
	Name string
	Data []byte
}

// IngestFailure names one file that could not be ingested and why.
type IngestFailure struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// IngestResult aggregates a whole batch run. Per-file failures never fail
// the batch; they are returned here for operator review.
type IngestResult struct {
	EventID    string          `json:"eventId"`
	New        int             `json:"new"`
	Duplicates int             `json:"duplicates"`
	Failures   []IngestFailure `json:"failures"`
}
