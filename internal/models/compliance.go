package models

import "strings"

// ComplianceViolationMarker is the substring the backend puts into the
// compliance status when a trip breaks the hours-of-service cycle limit.
// There is no typed status on the wire; this substring is the whole contract.
const ComplianceViolationMarker = "Warning"

// IsComplianceViolation reports whether a compliance status signals a violation.
func IsComplianceViolation(status string) bool {
	return strings.Contains(status, ComplianceViolationMarker)
}
