package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active JTI for a user.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// WizardDraftKey returns the cache key for a user's in-progress wizard draft.
func (r *CacheKeyStruct) WizardDraftKey(flow string, userID int) string {
	return fmt.Sprintf("wizard:%s:%d", flow, userID)
}

// WizardFinalizeLockKey returns the lock key held while a draft is being finalized.
func (r *CacheKeyStruct) WizardFinalizeLockKey(flow string, userID int) string {
	return fmt.Sprintf("wizard:%s:%d:finalize_lock", flow, userID)
}

// AssignmentKey returns the cache key for a published assignment payload.
func (r *CacheKeyStruct) AssignmentKey(assignmentID string) string {
	return fmt.Sprintf("assignment:%s:payload", assignmentID)
}

// NotificationChannel returns the Redis PubSub channel for a user's notifications.
func (r *CacheKeyStruct) NotificationChannel(userID int) string {
	return fmt.Sprintf("user:%d:notifications", userID)
}

var CacheKey = NewCacheKeyStruct()

// Keyed store layout shared by the exam, study group and portal services.
const (
	KeyCodingExams          = "coding_exams"
	KeyStudyClasses         = "study_classes"
	KeyStudentStudyGroups   = "student_study_groups"
	KeyFacultyAssignedTasks = "faculty_assigned_tasks"
	KeyHackathons           = "hackathons"
	KeyLostFoundItems       = "lost_found_items"
	KeyGrievances           = "grievances"
	KeyDocumentRequests     = "document_requests"
	KeySuggestions          = "suggestions"
)

// StudyGroupsKey returns the keyed store entry for faculty-created groups of a class.
func StudyGroupsKey(classID string) string {
	return "study_groups_" + classID
}

// GroupTasksKey returns the keyed store entry for tasks assigned to a group.
func GroupTasksKey(groupID string) string {
	return "group_tasks_" + groupID
}
