package middleware

// IdempotencyKeyHeader exposes the header name to external tests.
const IdempotencyKeyHeader = idempotencyKeyHeader
