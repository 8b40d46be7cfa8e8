// Package backend provides the Clipstream API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/ratelimit: Rolling-window upload admission control
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/cache: Redis client wrapper
// - internal/metrics: Prometheus metrics
// - internal/telemetry: OpenTelemetry tracing setup

// See the individual package documentation for detailed API reference.
package backend
