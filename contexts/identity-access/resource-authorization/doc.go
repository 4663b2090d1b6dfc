// Package authorization implements the resource-permission Authorization
// Core inside Aegis.
//
// Layering:
// - domain: core entities, ordered access/tier enums, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence/idempotency/events
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under identity-access context.
// - Do not import platform packages into domain/application.
// - Explicit grants always override subscription defaults; the evaluator
//   reads grant state fresh on every check.
package authorization
