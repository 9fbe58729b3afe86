// Package uploads exposes the upload queue over HTTP.
//
// Routes, relative to the mount point:
//
//	POST   /            multipart form, one or more "files" fields; spools and enqueues them
//	GET    /            snapshot of every task in insertion order
//	GET    /view        tasks grouped as uploading, queued and completed
//	GET    /{id}        one task
//	DELETE /{id}        remove a task in any state
//	DELETE /completed   clear succeeded and failed tasks
//	GET    /stream      DataStar server-sent events with live queue state
//
// Requests made by DataStar receive the re-rendered queue fragment instead of
// JSON, so a page wired with data-on-click="@delete(...)" stays in sync.
package uploads
