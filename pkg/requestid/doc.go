// Package requestid correlates log records of one HTTP request.
//
// Middleware accepts a client supplied X-Request-ID when it is at most 128
// characters of letters, digits, '-' and '_', otherwise it generates a uuid.
// The id is stored in the request context (FromContext) and echoed in the
// response header. LoggerExtractor plugs the id into loggers built by
// pkg/logger so every record written with the request context carries it.
package requestid
