package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/kvstore"
	"github.com/techsynergy/campus-backend/internal/listview"
	"github.com/techsynergy/campus-backend/internal/model"
)

// Sentinel errors for the service portals.
var (
	ErrUnknownPortal      = errors.New("unknown portal")
	ErrPortalItemNotFound = errors.New("portal item not found")
	ErrInvalidStatus      = errors.New("status not valid for this portal")
	ErrInvalidCategory    = errors.New("category not valid for this portal")
	ErrPortalActionDenied = errors.New("action not allowed on this portal")
)

// PortalDefinition describes one portal: where its records live and how
// they move through statuses.
type PortalDefinition struct {
	Kind          model.PortalKind `json:"kind"`
	Key           string           `json:"-"`
	IDPrefix      string           `json:"id_prefix"`
	Statuses      []string         `json:"statuses"`
	InitialStatus string           `json:"initial_status"`
	Categories    []string         `json:"categories,omitempty"`
	View          listview.View    `json:"-"`
	// Private portals show students only their own records.
	Private bool `json:"private"`
	// FacultyCreatesOnly restricts new records to faculty.
	FacultyCreatesOnly bool `json:"faculty_creates_only"`
	// SubmitterUpdates lets the submitter move their own record.
	SubmitterUpdates bool `json:"submitter_updates"`
}

func portalView(defaultSort listview.Sort) listview.View {
	return listview.View{
		TextFields:   []string{"title", "description", "category", "location", "submitter_name", "id"},
		FilterFields: []string{"status", "category", "priority"},
		SortFields:   []string{"created_at", "updated_at", "title", "status", "priority", "event_date", "comments"},
		DefaultSort:  defaultSort,
	}
}

var newestFirst = listview.Sort{Field: "created_at", Direction: listview.Desc}

// Portals lists every portal definition by kind.
var Portals = map[model.PortalKind]*PortalDefinition{
	model.PortalHackathons: {
		Kind:               model.PortalHackathons,
		Key:                config.KeyHackathons,
		IDPrefix:           "HCK",
		Statuses:           []string{"Upcoming", "Open", "Closed", "Completed"},
		InitialStatus:      "Upcoming",
		Categories:         []string{"Web", "Mobile", "AI/ML", "Blockchain", "IoT", "Open Innovation"},
		View:               portalView(listview.Sort{Field: "event_date", Direction: listview.Asc}),
		FacultyCreatesOnly: true,
	},
	model.PortalLostFound: {
		Kind:             model.PortalLostFound,
		Key:              config.KeyLostFoundItems,
		IDPrefix:         "LF",
		Statuses:         []string{"Pending", "Found", "Claimed", "Closed"},
		InitialStatus:    "Pending",
		Categories:       []string{"Lost", "Found"},
		View:             portalView(newestFirst),
		SubmitterUpdates: true,
	},
	model.PortalGrievances: {
		Kind:          model.PortalGrievances,
		Key:           config.KeyGrievances,
		IDPrefix:      "GRV",
		Statuses:      []string{"Pending", "In Progress", "Resolved", "Rejected"},
		InitialStatus: "Pending",
		Categories:    []string{"Academic", "Infrastructure", "Hostel", "Administration", "Harassment", "Other"},
		View:          portalView(newestFirst),
		Private:       true,
	},
	model.PortalDocumentRequests: {
		Kind:          model.PortalDocumentRequests,
		Key:           config.KeyDocumentRequests,
		IDPrefix:      "DOC",
		Statuses:      []string{"Pending", "In Progress", "Completed", "Rejected"},
		InitialStatus: "Pending",
		Categories:    []string{"Marksheet", "ID Card", "Bonafide Certificate", "Transfer Certificate", "Other"},
		View:          portalView(newestFirst),
		Private:       true,
	},
	model.PortalSuggestions: {
		Kind:          model.PortalSuggestions,
		Key:           config.KeySuggestions,
		IDPrefix:      "SUG",
		Statuses:      []string{"Pending", "In Progress", "Under Review", "Implemented", "Rejected"},
		InitialStatus: "Pending",
		Categories:    []string{"Academics", "Campus", "Events", "Technology", "Other"},
		View:          portalView(newestFirst),
	},
}

// PortalService manages the records of every portal in the keyed store.
type PortalService struct {
	store    kvstore.Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewPortalService creates a new PortalService.
func NewPortalService(store kvstore.Store, notifier Notifier, log zerolog.Logger) *PortalService {
	return &PortalService{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "portal_service").Logger(),
		now:      time.Now,
	}
}

// Definition returns the portal registered under kind.
func (s *PortalService) Definition(kind string) (*PortalDefinition, error) {
	def, ok := Portals[model.PortalKind(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPortal, kind)
	}
	return def, nil
}

// List returns the records of a portal visible to the caller.
func (s *PortalService) List(ctx context.Context, claims *Claims, kind string, q listview.Query) (listview.Result[model.PortalItem], error) {
	def, err := s.Definition(kind)
	if err != nil {
		return listview.Result[model.PortalItem]{}, err
	}
	items, err := kvstore.LoadList[model.PortalItem](ctx, s.store, def.Key)
	if err != nil {
		return listview.Result[model.PortalItem]{}, err
	}

	visible := items[:0:0]
	for _, it := range items {
		if canSee(def, claims, it) {
			visible = append(visible, redact(claims, it))
		}
	}
	return listview.Apply(def.View, visible, q), nil
}

// Get returns one record visible to the caller.
func (s *PortalService) Get(ctx context.Context, claims *Claims, kind, id string) (*model.PortalItem, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}
	items, err := kvstore.LoadList[model.PortalItem](ctx, s.store, def.Key)
	if err != nil {
		return nil, err
	}
	it, ok := listview.Detail(items, id)
	if !ok || !canSee(def, claims, it) {
		return nil, ErrPortalItemNotFound
	}
	it = redact(claims, it)
	return &it, nil
}

// Create files a new record with a PREFIX-YEAR-NNN id in the portal's
// initial status.
func (s *PortalService) Create(ctx context.Context, claims *Claims, kind string, req model.CreatePortalItemRequest) (*model.PortalItem, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}
	if def.FacultyCreatesOnly && !claims.IsFaculty() {
		return nil, ErrPortalActionDenied
	}
	if !slices.Contains(def.Categories, req.Category) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidCategory, req.Category, strings.Join(def.Categories, ", "))
	}

	now := s.now()
	item := model.PortalItem{
		Kind:          def.Kind,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Category:      req.Category,
		Status:        def.InitialStatus,
		Priority:      req.Priority,
		Location:      req.Location,
		EventDate:     req.EventDate,
		SubmittedBy:   claims.UserID,
		SubmitterName: claims.Name,
		Details:       req.Details,
		Comments:      []model.Comment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = kvstore.UpdateList(ctx, s.store, def.Key, func(items []model.PortalItem) ([]model.PortalItem, error) {
		item.ID = nextPortalID(def.IDPrefix, now.Year(), items)
		return append(items, item), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("portal", kind).Str("id", item.ID).Int("user_id", claims.UserID).Msg("Portal item created")
	return &item, nil
}

// UpdateStatus moves a record to another status of its portal, optionally
// with a comment, and notifies the submitter.
func (s *PortalService) UpdateStatus(ctx context.Context, claims *Claims, kind, id string, req model.UpdatePortalStatusRequest) (*model.PortalItem, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(def.Statuses, req.Status) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidStatus, req.Status, strings.Join(def.Statuses, ", "))
	}

	var out model.PortalItem
	err = s.update(ctx, def, claims, id, func(it *model.PortalItem) error {
		if !claims.IsFaculty() && !(def.SubmitterUpdates && it.SubmittedBy == claims.UserID) {
			return ErrPortalActionDenied
		}
		it.Status = req.Status
		if c := strings.TrimSpace(req.Comment); c != "" {
			it.Comments = append(it.Comments, s.comment(claims, c, false))
		}
		out = *it
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.SubmittedBy != claims.UserID {
		n := model.Notification{
			UserID:  out.SubmittedBy,
			Type:    model.NotificationPortalStatusChanged,
			Title:   fmt.Sprintf("%s is now %s", out.ID, out.Status),
			Message: out.Title,
			Data:    map[string]string{"portal": kind, "id": out.ID, "status": out.Status},
		}
		if err := s.notifier.Enqueue(ctx, n); err != nil {
			s.log.Error().Err(err).Str("id", out.ID).Msg("Failed to queue status notification")
		}
	}

	out = redact(claims, out)
	return &out, nil
}

// AddComment appends to a record's thread. Only faculty may post internal
// comments, which students never see.
func (s *PortalService) AddComment(ctx context.Context, claims *Claims, kind, id string, req model.AddCommentRequest) (*model.Comment, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}

	c := s.comment(claims, strings.TrimSpace(req.Text), req.Internal && claims.IsFaculty())
	err = s.update(ctx, def, claims, id, func(it *model.PortalItem) error {
		it.Comments = append(it.Comments, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a record. Faculty may delete any record, others only
// their own.
func (s *PortalService) Delete(ctx context.Context, claims *Claims, kind, id string) error {
	def, err := s.Definition(kind)
	if err != nil {
		return err
	}
	return kvstore.UpdateList(ctx, s.store, def.Key, func(items []model.PortalItem) ([]model.PortalItem, error) {
		for i := range items {
			if items[i].ID != id || !canSee(def, claims, items[i]) {
				continue
			}
			if !claims.IsFaculty() && items[i].SubmittedBy != claims.UserID {
				return nil, ErrPortalActionDenied
			}
			return append(items[:i:i], items[i+1:]...), nil
		}
		return nil, ErrPortalItemNotFound
	})
}

func (s *PortalService) update(ctx context.Context, def *PortalDefinition, claims *Claims, id string, fn func(*model.PortalItem) error) error {
	return kvstore.UpdateList(ctx, s.store, def.Key, func(items []model.PortalItem) ([]model.PortalItem, error) {
		for i := range items {
			if items[i].ID != id || !canSee(def, claims, items[i]) {
				continue
			}
			if err := fn(&items[i]); err != nil {
				return nil, err
			}
			items[i].UpdatedAt = s.now()
			return items, nil
		}
		return nil, ErrPortalItemNotFound
	})
}

func (s *PortalService) comment(claims *Claims, text string, internal bool) model.Comment {
	return model.Comment{
		ID:       "CMT-" + shortID(),
		UserID:   claims.UserID,
		User:     claims.Name,
		Text:     text,
		Internal: internal,
		Time:     s.now(),
	}
}

func canSee(def *PortalDefinition, claims *Claims, it model.PortalItem) bool {
	return !def.Private || claims.IsFaculty() || it.SubmittedBy == claims.UserID
}

// redact drops internal comments for students. The item's comment slice is
// copied so stored data is never aliased.
func redact(claims *Claims, it model.PortalItem) model.PortalItem {
	if claims.IsFaculty() {
		return it
	}
	public := make([]model.Comment, 0, len(it.Comments))
	for _, c := range it.Comments {
		if !c.Internal {
			public = append(public, c)
		}
	}
	it.Comments = public
	return it
}

// nextPortalID numbers records per prefix and year, continuing after the
// highest number already used.
func nextPortalID(prefix string, year int, items []model.PortalItem) string {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	highest := 0
	for _, it := range items {
		var n int
		if _, err := fmt.Sscanf(strings.TrimPrefix(it.ID, head), "%d", &n); err == nil && strings.HasPrefix(it.ID, head) && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", head, highest+1)
}
