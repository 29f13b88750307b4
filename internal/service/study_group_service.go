package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/kvstore"
	"github.com/techsynergy/campus-backend/internal/listview"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// Sentinel errors for study groups.
var (
	ErrStudyClassNotFound   = errors.New("study class not found")
	ErrStudyGroupNotFound   = errors.New("study group not found")
	ErrMemberNotInClass     = errors.New("member not on class roster")
	ErrMemberAlreadyGrouped = errors.New("member already in a group")
	ErrMemberNotInGroup     = errors.New("member not in group")
	ErrNotGroupOwner        = errors.New("not allowed to modify this group")
)

// StudyGroupView configures search, filters and sort of group lists.
var StudyGroupView = listview.View{
	TextFields:   []string{"name", "id"},
	FilterFields: []string{"creation_type"},
	SortFields:   []string{"name", "created_at", "members"},
	DefaultSort:  listview.Sort{Field: "created_at", Direction: listview.Desc},
}

// StudyGroupService manages class rosters, groups and group tasks in the
// keyed store. Faculty groups live under study_groups_<classId>, student
// groups of every class share student_study_groups.
type StudyGroupService struct {
	store    kvstore.Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewStudyGroupService creates a new StudyGroupService.
func NewStudyGroupService(store kvstore.Store, notifier Notifier, log zerolog.Logger) *StudyGroupService {
	return &StudyGroupService{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "study_group_service").Logger(),
		now:      time.Now,
	}
}

// ─── Classes ────────────────────────────────────────────────────────

// CreateClass registers a class roster.
func (s *StudyGroupService) CreateClass(ctx context.Context, facultyID int, req model.CreateStudyClassRequest) (*model.StudyClass, error) {
	class := model.StudyClass{
		ID:         "CLS-" + shortID(),
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Year:       strings.TrimSpace(req.Year),
		FacultyID:  facultyID,
		Students:   req.Students,
		CreatedAt:  s.now(),
	}
	if class.Students == nil {
		class.Students = []model.GroupMember{}
	}

	err := kvstore.UpdateList(ctx, s.store, config.KeyStudyClasses, func(classes []model.StudyClass) ([]model.StudyClass, error) {
		return append(classes, class), nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// ImportClass replaces the roster of the class with the same name,
// department and year, or adds it as a new class.
func (s *StudyGroupService) ImportClass(ctx context.Context, class model.StudyClass) (*model.StudyClass, bool, error) {
	created := false
	err := kvstore.UpdateList(ctx, s.store, config.KeyStudyClasses, func(classes []model.StudyClass) ([]model.StudyClass, error) {
		for i := range classes {
			c := &classes[i]
			if strings.EqualFold(c.Name, class.Name) && strings.EqualFold(c.Department, class.Department) && c.Year == class.Year {
				c.Students = class.Students
				class = *c
				return classes, nil
			}
		}
		created = true
		class.ID = "CLS-" + shortID()
		class.CreatedAt = s.now()
		return append(classes, class), nil
	})
	if err != nil {
		return nil, false, err
	}
	return &class, created, nil
}

// ListClasses returns every class roster.
func (s *StudyGroupService) ListClasses(ctx context.Context) ([]model.StudyClass, error) {
	return kvstore.LoadList[model.StudyClass](ctx, s.store, config.KeyStudyClasses)
}

// GetClass returns one class roster.
func (s *StudyGroupService) GetClass(ctx context.Context, classID string) (*model.StudyClass, error) {
	classes, err := s.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].ID == classID {
			return &classes[i], nil
		}
	}
	return nil, ErrStudyClassNotFound
}

// ─── Groups ─────────────────────────────────────────────────────────

// BulkCreate adds faculty groups to a class, either from explicit member
// lists or by splitting the not-yet-grouped roster into groups of GroupSize
// in roster order. A student belongs to at most one faculty group per class.
func (s *StudyGroupService) BulkCreate(ctx context.Context, facultyID int, classID string, req model.BulkCreateGroupsRequest) ([]model.StudyGroup, error) {
	if len(req.Groups) == 0 && req.GroupSize == 0 {
		return nil, &wizard.ValidationError{Fields: wizard.FieldErrors{"groups": "groups or group_size is required"}}
	}

	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	roster := rosterIndex(class)
	now := s.now()

	var created []model.StudyGroup
	err = kvstore.UpdateList(ctx, s.store, config.StudyGroupsKey(classID), func(groups []model.StudyGroup) ([]model.StudyGroup, error) {
		created = created[:0]
		grouped := map[string]bool{}
		for _, g := range groups {
			for _, m := range g.Members {
				grouped[m.ID] = true
			}
		}

		newGroup := func(name string, members []model.GroupMember) model.StudyGroup {
			return model.StudyGroup{
				ID:           "GRP-" + shortID(),
				ClassID:      classID,
				Name:         name,
				Members:      members,
				CreationType: model.CreatedByFaculty,
				CreatedBy:    facultyID,
				CreatedAt:    now,
			}
		}

		if len(req.Groups) > 0 {
			for _, spec := range req.Groups {
				members := make([]model.GroupMember, 0, len(spec.MemberIDs))
				for _, id := range spec.MemberIDs {
					m, ok := roster[id]
					if !ok {
						return nil, fmt.Errorf("%w: %s", ErrMemberNotInClass, id)
					}
					if grouped[id] {
						return nil, fmt.Errorf("%w: %s", ErrMemberAlreadyGrouped, id)
					}
					grouped[id] = true
					members = append(members, m)
				}
				created = append(created, newGroup(strings.TrimSpace(spec.Name), members))
			}
		} else {
			var pending []model.GroupMember
			for _, m := range class.Students {
				if !grouped[m.ID] {
					pending = append(pending, m)
				}
			}
			for start := 0; start < len(pending); start += req.GroupSize {
				end := min(start+req.GroupSize, len(pending))
				name := fmt.Sprintf("Group %d", len(groups)+len(created)+1)
				created = append(created, newGroup(name, append([]model.GroupMember(nil), pending[start:end]...)))
			}
		}

		if len(created) == 0 {
			return nil, &wizard.ValidationError{Fields: wizard.FieldErrors{"group_size": "every student is already in a group"}}
		}
		return append(groups, created...), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("class_id", classID).Int("groups", len(created)).Msg("Study groups created")
	return created, nil
}

// CreateStudentGroup lets a student form a group. The creator joins
// automatically when on the roster.
func (s *StudyGroupService) CreateStudentGroup(ctx context.Context, claims *Claims, classID string, req model.CreateStudentGroupRequest) (*model.StudyGroup, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	roster := rosterIndex(class)

	ids := req.MemberIDs
	self := strconv.Itoa(claims.UserID)
	if _, ok := roster[self]; ok && !containsString(ids, self) {
		ids = append([]string{self}, ids...)
	}

	group := model.StudyGroup{
		ID:           "GRP-" + shortID(),
		ClassID:      classID,
		Name:         strings.TrimSpace(req.Name),
		CreationType: model.CreatedByStudent,
		CreatedBy:    claims.UserID,
		CreatedAt:    s.now(),
	}

	err = kvstore.UpdateList(ctx, s.store, config.KeyStudentStudyGroups, func(groups []model.StudyGroup) ([]model.StudyGroup, error) {
		grouped := map[string]bool{}
		for _, g := range groups {
			if g.ClassID != classID {
				continue
			}
			for _, m := range g.Members {
				grouped[m.ID] = true
			}
		}

		group.Members = make([]model.GroupMember, 0, len(ids))
		for _, id := range ids {
			m, ok := roster[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMemberNotInClass, id)
			}
			if grouped[id] {
				return nil, fmt.Errorf("%w: %s", ErrMemberAlreadyGrouped, id)
			}
			grouped[id] = true
			group.Members = append(group.Members, m)
		}
		return append(groups, group), nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups merges the faculty and student groups of a class.
func (s *StudyGroupService) ListGroups(ctx context.Context, classID string, q listview.Query) (listview.Result[model.StudyGroup], error) {
	groups, err := s.classGroups(ctx, classID)
	if err != nil {
		return listview.Result[model.StudyGroup]{}, err
	}
	return listview.Apply(StudyGroupView, groups, q), nil
}

// GetGroup returns one group of a class.
func (s *StudyGroupService) GetGroup(ctx context.Context, classID, groupID string) (*model.StudyGroup, error) {
	groups, err := s.classGroups(ctx, classID)
	if err != nil {
		return nil, err
	}
	g, ok := listview.Detail(groups, groupID)
	if !ok {
		return nil, ErrStudyGroupNotFound
	}
	return &g, nil
}

// AddMember adds a roster student to a group.
func (s *StudyGroupService) AddMember(ctx context.Context, claims *Claims, classID, groupID, memberID string) (*model.StudyGroup, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	m, ok := rosterIndex(class)[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotInClass, memberID)
	}

	return s.updateGroup(ctx, claims, classID, groupID, func(groups []model.StudyGroup, i int) ([]model.StudyGroup, error) {
		for _, g := range groups {
			if g.ClassID != classID {
				continue
			}
			for _, existing := range g.Members {
				if existing.ID == memberID {
					return nil, fmt.Errorf("%w: %s", ErrMemberAlreadyGrouped, memberID)
				}
			}
		}
		groups[i].Members = append(groups[i].Members, m)
		return groups, nil
	})
}

// RemoveMember removes a student from a group.
func (s *StudyGroupService) RemoveMember(ctx context.Context, claims *Claims, classID, groupID, memberID string) (*model.StudyGroup, error) {
	return s.updateGroup(ctx, claims, classID, groupID, func(groups []model.StudyGroup, i int) ([]model.StudyGroup, error) {
		members := groups[i].Members
		for j := range members {
			if members[j].ID == memberID {
				groups[i].Members = append(members[:j:j], members[j+1:]...)
				return groups, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrMemberNotInGroup, memberID)
	})
}

// DeleteGroup removes one group from whichever key holds it. Other groups,
// under that key or any other, are left untouched.
func (s *StudyGroupService) DeleteGroup(ctx context.Context, claims *Claims, classID, groupID string) error {
	_, err := s.updateGroup(ctx, claims, classID, groupID, func(groups []model.StudyGroup, i int) ([]model.StudyGroup, error) {
		return append(groups[:i:i], groups[i+1:]...), nil
	})
	return err
}

// ─── Tasks ──────────────────────────────────────────────────────────

// AssignTask records a task for a group and notifies its members.
func (s *StudyGroupService) AssignTask(ctx context.Context, facultyID int, classID, groupID string, req model.AssignGroupTaskRequest) (*model.GroupTask, error) {
	group, err := s.GetGroup(ctx, classID, groupID)
	if err != nil {
		return nil, err
	}

	task := model.GroupTask{
		ID:          "TASK-" + shortID(),
		GroupID:     groupID,
		ClassID:     classID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate,
		AssignedBy:  facultyID,
		Status:      "assigned",
		CreatedAt:   s.now(),
	}

	appendTask := func(tasks []model.GroupTask) ([]model.GroupTask, error) { return append(tasks, task), nil }
	if err := kvstore.UpdateList(ctx, s.store, config.GroupTasksKey(groupID), appendTask); err != nil {
		return nil, err
	}
	if err := kvstore.UpdateList(ctx, s.store, config.KeyFacultyAssignedTasks, appendTask); err != nil {
		return nil, err
	}

	batch := make([]model.Notification, 0, len(group.Members))
	for _, m := range group.Members {
		uid, err := strconv.Atoi(m.ID)
		if err != nil {
			continue
		}
		batch = append(batch, model.Notification{
			UserID:  uid,
			Type:    model.NotificationGroupTaskAssigned,
			Title:   "New group task: " + task.Title,
			Message: fmt.Sprintf("Assigned to %s.", group.Name),
			Data:    map[string]string{"group_id": groupID, "task_id": task.ID, "class_id": classID},
		})
	}
	if err := s.notifier.Enqueue(ctx, batch...); err != nil {
		s.log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to queue task notifications")
	}
	return &task, nil
}

// ListTasks returns the tasks of a group.
func (s *StudyGroupService) ListTasks(ctx context.Context, groupID string) ([]model.GroupTask, error) {
	return kvstore.LoadList[model.GroupTask](ctx, s.store, config.GroupTasksKey(groupID))
}

// ListAssignedTasks returns every task assigned by a faculty member.
func (s *StudyGroupService) ListAssignedTasks(ctx context.Context, facultyID int) ([]model.GroupTask, error) {
	tasks, err := kvstore.LoadList[model.GroupTask](ctx, s.store, config.KeyFacultyAssignedTasks)
	if err != nil {
		return nil, err
	}
	out := tasks[:0:0]
	for _, t := range tasks {
		if t.AssignedBy == facultyID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ─── Internal ───────────────────────────────────────────────────────

func (s *StudyGroupService) classGroups(ctx context.Context, classID string) ([]model.StudyGroup, error) {
	faculty, err := kvstore.LoadList[model.StudyGroup](ctx, s.store, config.StudyGroupsKey(classID))
	if err != nil {
		return nil, err
	}
	students, err := kvstore.LoadList[model.StudyGroup](ctx, s.store, config.KeyStudentStudyGroups)
	if err != nil {
		return nil, err
	}

	out := make([]model.StudyGroup, 0, len(faculty)+len(students))
	for _, g := range faculty {
		g.CreationType = model.CreatedByFaculty
		out = append(out, g)
	}
	for _, g := range students {
		if g.ClassID == classID {
			g.CreationType = model.CreatedByStudent
			out = append(out, g)
		}
	}
	return out, nil
}

// updateGroup runs fn against the list holding the group, chosen by the
// group's creation type. fn gets the index of the group within that list.
func (s *StudyGroupService) updateGroup(
	ctx context.Context,
	claims *Claims,
	classID, groupID string,
	fn func(groups []model.StudyGroup, i int) ([]model.StudyGroup, error),
) (*model.StudyGroup, error) {
	g, err := s.GetGroup(ctx, classID, groupID)
	if err != nil {
		return nil, err
	}

	key := config.StudyGroupsKey(classID)
	if g.CreationType == model.CreatedByStudent {
		key = config.KeyStudentStudyGroups
	}

	var out *model.StudyGroup
	err = kvstore.UpdateList(ctx, s.store, key, func(groups []model.StudyGroup) ([]model.StudyGroup, error) {
		for i := range groups {
			if groups[i].ID != groupID {
				continue
			}
			if !canModifyGroup(claims, groups[i]) {
				return nil, ErrNotGroupOwner
			}
			next, err := fn(groups, i)
			if err != nil {
				return nil, err
			}
			if i < len(next) && next[i].ID == groupID {
				updated := next[i]
				out = &updated
			}
			return next, nil
		}
		return nil, ErrStudyGroupNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Faculty may change any group; students only groups they created.
func canModifyGroup(claims *Claims, g model.StudyGroup) bool {
	if claims.IsFaculty() {
		return true
	}
	return g.CreationType == model.CreatedByStudent && g.CreatedBy == claims.UserID
}

func rosterIndex(class *model.StudyClass) map[string]model.GroupMember {
	idx := make(map[string]model.GroupMember, len(class.Students))
	for _, m := range class.Students {
		idx[m.ID] = m
	}
	return idx
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
