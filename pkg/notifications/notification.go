package notifications

import (
	"strings"
	"time"
)

// Type is the fixed vocabulary of notification categories.
type Type string

const (
	TypeAppointment Type = "APPOINTMENT"
	TypePayment     Type = "PAYMENT"
	TypeService     Type = "SERVICE"
	TypeProject     Type = "PROJECT"
	TypeInvoice     Type = "INVOICE"
	TypeGeneral     Type = "GENERAL"
	TypeSystem      Type = "SYSTEM"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAppointment, TypePayment, TypeService, TypeProject, TypeInvoice, TypeGeneral, TypeSystem:
		return true
	}
	return false
}

// ParseType normalizes s into the vocabulary. Unknown values become TypeGeneral.
func ParseType(s string) Type {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return TypeGeneral
	}
	return t
}

// Notification is a single notification record as known to the client.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	EntityID  string    `json:"entityId,omitempty"`
	Progress  *int      `json:"progress,omitempty"` // 0..100
	Status    string    `json:"status,omitempty"`
}

// Clone returns a copy that shares no memory with n.
func (n Notification) Clone() Notification {
	if n.Progress != nil {
		p := *n.Progress
		n.Progress = &p
	}
	return n
}

// ClampProgress bounds p to 0..100.
func ClampProgress(p int) int {
	return min(max(p, 0), 100)
}
