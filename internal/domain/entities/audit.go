package entities

import "time"

// Audit actions recorded by the local store.
const (
	AuditCaseCreated         = "case_created"
	AuditCaseUpdated         = "case_updated"
	AuditPersonCreated       = "person_created"
	AuditPersonUpdated       = "person_updated"
	AuditPersonDeleted       = "person_deleted"
	AuditRelationshipCreated = "relationship_created"
	AuditRelationshipDeleted = "relationship_deleted"
)

// AuditEntry represents a logged change to a case.
type AuditEntry struct {
	ID        int64          `json:"id"`
	CaseID    int64          `json:"case_id"`
	Action    string         `json:"action"`
	SubjectID int64          `json:"subject_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
