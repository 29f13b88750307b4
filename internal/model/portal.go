package model

import "time"

// PortalKind names one of the "other services" portals.
type PortalKind string

const (
	PortalHackathons       PortalKind = "hackathons"
	PortalLostFound        PortalKind = "lost-found"
	PortalGrievances       PortalKind = "grievances"
	PortalDocumentRequests PortalKind = "document-reissue"
	PortalSuggestions      PortalKind = "suggestions"
)

// Comment is one entry in a portal item's discussion thread.
type Comment struct {
	ID       string    `json:"id"`
	UserID   int       `json:"user_id"`
	User     string    `json:"user"`
	Text     string    `json:"text"`
	Internal bool      `json:"internal"`
	Time     time.Time `json:"time"`
}

// PortalItem is a record of any portal. Kind-specific attributes such as a
// hackathon venue or a requested document type live in Details.
type PortalItem struct {
	ID            string            `json:"id"`
	Kind          PortalKind        `json:"kind"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Status        string            `json:"status"`
	Priority      string            `json:"priority,omitempty"`
	Location      string            `json:"location,omitempty"`
	EventDate     *time.Time        `json:"event_date,omitempty"`
	SubmittedBy   int               `json:"submitted_by"`
	SubmitterName string            `json:"submitter_name"`
	Details       map[string]string `json:"details,omitempty"`
	Comments      []Comment         `json:"comments"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ListID implements listview.Record.
func (p PortalItem) ListID() string { return p.ID }

// FieldValue implements listview.Record.
func (p PortalItem) FieldValue(name string) any {
	switch name {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "description":
		return p.Description
	case "category":
		return p.Category
	case "status":
		return p.Status
	case "priority":
		return p.Priority
	case "location":
		return p.Location
	case "submitter_name":
		return p.SubmitterName
	case "event_date":
		if p.EventDate == nil {
			return nil
		}
		return *p.EventDate
	case "created_at":
		return p.CreatedAt
	case "updated_at":
		return p.UpdatedAt
	case "comments":
		return len(p.Comments)
	}
	if v, ok := p.Details[name]; ok {
		return v
	}
	return nil
}

// CreatePortalItemRequest files a new portal record.
type CreatePortalItemRequest struct {
	Title       string            `json:"title" binding:"required,max=255"`
	Description string            `json:"description" binding:"required,max=5000"`
	Category    string            `json:"category" binding:"required,max=80"`
	Priority    string            `json:"priority" binding:"omitempty,oneof=Low Medium High Urgent"`
	Location    string            `json:"location" binding:"omitempty,max=255"`
	EventDate   *time.Time        `json:"event_date"`
	Details     map[string]string `json:"details" binding:"omitempty,max=20"`
}

// UpdatePortalStatusRequest moves an item through its status workflow.
type UpdatePortalStatusRequest struct {
	Status  string `json:"status" binding:"required,max=40"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// AddCommentRequest replies to a portal item.
type AddCommentRequest struct {
	Text     string `json:"text" binding:"required,max=2000"`
	Internal bool   `json:"internal"`
}
