// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditEvent is published for every admin decision and workflow
// milestone: visit approvals, status changes, payment status changes,
// move-outs, deletions.  It carries enough context for downstream
// consumers to log or notify without querying the primary database.
type AuditEvent struct {
    Action       string `json:"action"`        // e.g. "reservation.confirmed", "bed.moved_out"
    ResourceType string `json:"resource_type"` // "reservation" | "room" | "bed"
    ResourceID   uint64 `json:"resource_id"`
    ActorID      uint64 `json:"actor_id"`
    ActorRole    string `json:"actor_role"`
    Branch       string `json:"branch"`
    Detail       string `json:"detail,omitempty"`
    OccurredAt   string `json:"occurred_at"` // RFC 3339
}
