// Package logging configures the process-wide structured logger.
//
// Decision explanations are audit data and stay verbatim, but raw
// command text in log attributes can carry secrets pasted into
// requests; the optional redaction handler strips those attributes
// above debug level.
package logging
