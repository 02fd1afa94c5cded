// Package observability provides structured logging, the JSONL event history,
// metrics derived from that history, prometheus collectors for the headless
// watcher, and outbound webhook notifications for fired reminders.
package observability
