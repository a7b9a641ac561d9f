// Logscrub redacts user PII from plain-text log files for user-deletion
// requests.
//
// It compiles templated detection rules against one user's identity, streams
// each log file line by line, replaces matched occurrences with a pseudonym,
// and writes an audit report of every replacement decision. Rewritten copies
// are placed beside the originals for an external replace step, or swapped in
// directly with --finalize.
//
// Usage:
//
//	logscrub run --username jdoe --pseudonym a1b2c3 server.log audit.log
//	logscrub watch                    # process queued requests from a spool dir
//	logscrub rules                    # compile-check configured rules
//	logscrub version
package main
