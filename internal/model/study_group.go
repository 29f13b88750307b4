package model

import "time"

// CreationType records who created a study group, which decides where it is stored.
type CreationType string

const (
	CreatedByFaculty CreationType = "faculty"
	CreatedByStudent CreationType = "student"
)

// GroupMember is a student entry inside a class roster or a group.
type GroupMember struct {
	ID   string  `json:"id" binding:"required"`
	Name string  `json:"name" binding:"required"`
	PRN  string  `json:"prn"`
	CGPA float64 `json:"cgpa" binding:"gte=0,lte=10"`
}

// StudyClass is a class roster used to build groups.
type StudyClass struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	Year       string        `json:"year"`
	FacultyID  int           `json:"faculty_id"`
	Students   []GroupMember `json:"students"`
	CreatedAt  time.Time     `json:"created_at"`
}

// StudyGroup is a group of students within a class.
type StudyGroup struct {
	ID           string        `json:"id"`
	ClassID      string        `json:"class_id"`
	Name         string        `json:"name"`
	Members      []GroupMember `json:"members"`
	CreationType CreationType  `json:"creation_type"`
	CreatedBy    int           `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ListID implements listview.Record.
func (g StudyGroup) ListID() string { return g.ID }

// FieldValue implements listview.Record.
func (g StudyGroup) FieldValue(name string) any {
	switch name {
	case "id":
		return g.ID
	case "name":
		return g.Name
	case "creation_type":
		return string(g.CreationType)
	case "created_at":
		return g.CreatedAt
	case "members":
		return len(g.Members)
	}
	return nil
}

// GroupTask is work assigned by faculty to a study group.
type GroupTask struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"group_id"`
	ClassID     string     `json:"class_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedBy  int        `json:"assigned_by"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateStudyClassRequest registers a class roster.
type CreateStudyClassRequest struct {
	Name       string        `json:"name" binding:"required,max=120"`
	Department string        `json:"department" binding:"required,max=120"`
	Year       string        `json:"year" binding:"required,max=20"`
	Students   []GroupMember `json:"students" binding:"omitempty,dive"`
}

// GroupSpec describes one group in a bulk create.
type GroupSpec struct {
	Name      string   `json:"name" binding:"required,max=120"`
	MemberIDs []string `json:"member_ids" binding:"required,min=1,dive,required"`
}

// BulkCreateGroupsRequest creates faculty groups either from explicit specs or
// by chunking the roster into groups of GroupSize.
type BulkCreateGroupsRequest struct {
	Groups    []GroupSpec `json:"groups" binding:"omitempty,dive"`
	GroupSize int         `json:"group_size" binding:"omitempty,min=1,max=50"`
}

// CreateStudentGroupRequest is a student forming a group in a class.
type CreateStudentGroupRequest struct {
	Name      string   `json:"name" binding:"required,max=120"`
	MemberIDs []string `json:"member_ids" binding:"omitempty,dive,required"`
}

// AddMemberRequest adds a roster student to a group.
type AddMemberRequest struct {
	MemberID string `json:"member_id" binding:"required"`
}

// AssignGroupTaskRequest assigns a task to a group.
type AssignGroupTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"omitempty,max=5000"`
	DueDate     *time.Time `json:"due_date"`
}
