// Package eventlog recovers a typed event stream from approach-avoidance task
// logs: it decodes the raw bytes, skips the preamble, drops truncated lines,
// parses the delimited records and splits them into position samples and
// stimulus changes.
package eventlog
