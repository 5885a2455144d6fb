// Package incident provides the business boundary for Warden's incident
// pipeline. It defines the Service (ingestion pipeline, lifecycle, remediation
// entry point), the stage interfaces it drives, the Store interface
// (persistence), and domain models.
package incident
