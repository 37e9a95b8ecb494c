package constants

import (
	"time"
)

// Application identity
const (
	AppName     = "pdfmerge"
	AppTitle    = "PDF Merge"
	AppID       = "com.rescale.pdfmerge"
	ConfigDir   = "pdfmerge"
	ConfigFile  = "config"
	DefaultURL  = "http://localhost:5000"
	UserAgent   = "pdfmerge-client"
	EnvBaseURL  = "PDFMERGE_BASE_URL"
	EnvProxyPwd = "PDFMERGE_PROXY_PASSWORD"
	EnvS3Secret = "PDFMERGE_S3_SECRET_ACCESS_KEY"
)

// Merge service endpoints. Paths are relative to the configured base URL.
const (
	PathSession = "/"
	PathUpload  = "/upload"
	PathRemove  = "/remove_file"
	PathClear   = "/clear"
	PathMerge   = "/merge"

	// UploadFieldName is the multipart field repeated once per uploaded file.
	UploadFieldName = "files"
)

// Ingress
const (
	// PDFMIMEType is the only content type accepted by the ingress filter.
	PDFMIMEType = "application/pdf"

	// DropDebounce groups filesystem events from a drop folder into one batch.
	DropDebounce = 500 * time.Millisecond
)

// Merge flow
const (
	// MinMergeFiles is the smallest collection the merge action accepts.
	MinMergeFiles = 2

	// MergeClearDelay is the grace period between initiating the merged
	// document download and clearing the collection.
	MergeClearDelay = 1 * time.Second

	// MergedFileName is the filename suggested for the merged document.
	MergedFileName = "merged_document.pdf"
)

// Notifications
const (
	// ToastLifetime is how long a toast stays visible before auto-dismissal.
	ToastLifetime = 5 * time.Second

	// ToastExitTransition is the exit animation played before a toast is detached.
	ToastExitTransition = 300 * time.Millisecond
)

// View
const (
	// MaxDisplayNameLength is the longest filename rendered without truncation.
	MaxDisplayNameLength = 50
)

// Busy overlay labels
const (
	BusyLabelDefault = "Processing your PDFs..."
	BusyLabelMerge   = "Merging your PDFs..."
)

// Event bus buffer sizes
const (
	// EventBusDefaultBuffer is the per-subscriber channel buffer.
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer caps caller-requested buffer sizes.
	EventBusMaxBuffer = 4096
)

// HTTP transport
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 15 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second
	HTTPMaxIdleConnsPerHost   = 8
)

// Logging
const (
	LogFileMaxSizeMB  = 10
	LogFileMaxBackups = 5
	LogFileMaxAgeDays = 30
)
