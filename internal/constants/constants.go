// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// MatchDistanceThreshold is the Euclidean distance below which a known face
	// counts as a plausible match for a detected face
	MatchDistanceThreshold = 0.6

	// AcceptConfidenceThreshold is the confidence a best match must exceed
	// for the identity to be accepted
	AcceptConfidenceThreshold = 0.45

	// UnknownName is the display name for faces without an accepted match
	UnknownName = "Unknown"
)

// Attendance constants
const (
	// LogConfidenceThreshold is the minimum confidence for a recognized face
	// to be written to the attendance log. Independent of AcceptConfidenceThreshold.
	LogConfidenceThreshold = 0.50

	// LogFileSuffix is appended to the run start timestamp to form the log file name
	LogFileSuffix = "_attendance.csv"

	// LogFileTimeFormat formats the run start time in the log file name
	LogFileTimeFormat = "2006-01-02_15-04-05"

	// TimestampFormat formats entry timestamps in the log
	TimestampFormat = "2006-01-02 15:04:05"

	// DateFormat formats the calendar day of an attendance key
	DateFormat = "2006-01-02"
)

// Processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) sent to the embedding server.
	// Frames and reference images larger than this are downscaled first.
	MaxImageSize = 1280

	// DefaultMaxImagesPerIdentity is the number of reference images encoded per person.
	// Loading stops at the first image that yields a face.
	DefaultMaxImagesPerIdentity = 1

	// DefaultReferenceDir is the reference library directory used when none is configured
	DefaultReferenceDir = "lfw_funneled"

	// DefaultSnapshotInterval is the delay between camera snapshot requests in milliseconds
	DefaultSnapshotInterval = 250
)
