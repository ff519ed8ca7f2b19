package constants

// ScanStatus labels the stages of one retried extraction run in logs.
type ScanStatus string

const (
	ScanStatusAttempting ScanStatus = "ATTEMPTING" // request in flight
	ScanStatusDone       ScanStatus = "DONE"       // usable result obtained
	ScanStatusSoftRetry  ScanStatus = "SOFT_RETRY" // parsed but empty, retrying immediately
	ScanStatusRetrying   ScanStatus = "RETRYING"   // transport or parse failure, backing off
	ScanStatusFailed     ScanStatus = "FAILED"     // attempts exhausted
)
