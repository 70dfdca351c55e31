// validate.go holds payload validation shared by the ingest handlers.
package ingest

import "regexp"

// YouTube video ids are exactly 11 characters from the base64url alphabet.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Channel ids are "UC" plus 22 base64url characters.
var channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// ValidVideoID reports whether id looks like a YouTube video id.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ValidChannelID reports whether id looks like a YouTube channel id.
func ValidChannelID(id string) bool {
	return channelIDPattern.MatchString(id)
}

// retryableErrorTypes are upstream fetch failures worth retrying — rate
// limits and IP blocks clear up on their own, unlike disabled or missing
// transcripts.
var retryableErrorTypes = map[string]bool{
	"RequestBlocked":       true,
	"IpBlocked":            true,
	"YouTubeRequestFailed": true,
}

// IsRetryable reports whether a recorded fetch error type is transient.
// The retry queue only surfaces videos whose every failure is of this
// kind.
func IsRetryable(errorType string) bool {
	return retryableErrorTypes[errorType]
}

// RetryableErrorTypes returns the transient error-type names, for the
// store's retry-candidate query.
func RetryableErrorTypes() []string {
	types := make([]string, 0, len(retryableErrorTypes))
	for t := range retryableErrorTypes {
		types = append(types, t)
	}
	return types
}
