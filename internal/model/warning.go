package model

// WarningCode classifies a recoverable pipeline condition.
type WarningCode string

const (
	WarnDegradedFilter    WarningCode = "degraded_filter"
	WarnUnresolvableName  WarningCode = "unresolvable_name"
	WarnLookupMiss        WarningCode = "lookup_miss"
	WarnLookupError       WarningCode = "lookup_error"
	WarnUnknownSection    WarningCode = "unknown_section"
	WarnDuplicateClass    WarningCode = "duplicate_class"
	WarnMissingClass      WarningCode = "missing_class"
	WarnUnparsableMeeting WarningCode = "unparsable_meeting"
	WarnMalformedRecord   WarningCode = "malformed_record"
)

// Warning is a caller-visible, non-fatal condition raised during a run.
type Warning struct {
	Code    WarningCode `json:"code"`
	Subject string      `json:"subject,omitempty"`
	Message string      `json:"message"`
}
