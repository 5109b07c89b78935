package models

import "time"

// Agent personas that can own a support ticket.
const (
	AgentSupport    = "support"
	AgentSupervisor = "supervisor"
	AgentManager    = "manager"
)

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Message senders.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// SupportTicket is a conversation with the tiered support agents.
type SupportTicket struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	UserID       string    `gorm:"size:64;not null;index" json:"userId"`
	Subject      string    `gorm:"size:255;not null" json:"subject"`
	Category     string    `gorm:"size:32;not null" json:"category"`
	Status       string    `gorm:"size:16;not null;default:open" json:"status"`
	CurrentAgent string    `gorm:"size:16;not null;default:support" json:"currentAgent"`
	Rating       string    `gorm:"size:8" json:"rating,omitempty"`
	Feedback     *string   `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SupportMessage is one turn of a ticket. Agent records which persona was active.
type SupportMessage struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	TicketID  string    `gorm:"size:64;not null;index" json:"ticketId"`
	Sender    string    `gorm:"size:16;not null" json:"sender"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Agent     string    `gorm:"size:16;not null" json:"agent"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
