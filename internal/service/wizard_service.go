package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

// Wizard service errors.
var (
	ErrUnknownFlow      = errors.New("unknown wizard flow")
	ErrFlowForbidden    = errors.New("flow not available for this user")
	ErrGenerateNotFound = errors.New("flow has no generation step")
)

// FinalizeOptions carries per-request switches for finalize.
type FinalizeOptions struct {
	Publish bool `json:"publish"`
}

// Flow binds a wizard definition to who may run it, how it is seeded and
// where a finalized draft goes.
type Flow interface {
	Definition() *wizard.Definition
	Allows(claims *Claims) bool
	Initial(ctx context.Context, claims *Claims) (wizard.Fields, error)
	Persist(ctx context.Context, claims *Claims, f wizard.Fields, opts FinalizeOptions) (any, error)
}

// Generator is implemented by flows with an AI generation sub-path.
// It returns the field values to write back into the draft.
type Generator interface {
	Generate(ctx context.Context, claims *Claims, f wizard.Fields) (wizard.Fields, error)
}

// WizardView is the draft as returned to clients.
type WizardView struct {
	*wizard.State
	Step  wizard.Step   `json:"step"`
	Steps []wizard.Step `json:"steps"`
}

// FinalizeResult pairs the completed draft with whatever the flow created.
type FinalizeResult struct {
	Draft  *WizardView `json:"draft"`
	Result any         `json:"result"`
}

// WizardService drives drafts for every registered flow.
type WizardService struct {
	flows  map[string]Flow
	drafts DraftStore
	log    zerolog.Logger
}

// NewWizardService creates a new WizardService.
func NewWizardService(drafts DraftStore, log zerolog.Logger, flows ...Flow) *WizardService {
	m := make(map[string]Flow, len(flows))
	for _, f := range flows {
		m[f.Definition().Flow] = f
	}
	return &WizardService{
		flows:  m,
		drafts: drafts,
		log:    log.With().Str("component", "wizard_service").Logger(),
	}
}

// Definition returns a flow's steps for rendering.
func (s *WizardService) Definition(claims *Claims, flow string) (*wizard.Definition, error) {
	f, err := s.flow(claims, flow)
	if err != nil {
		return nil, err
	}
	return f.Definition(), nil
}

// Start discards any existing draft and begins a fresh one on step 1.
func (s *WizardService) Start(ctx context.Context, claims *Claims, flow string) (*WizardView, error) {
	f, err := s.flow(claims, flow)
	if err != nil {
		return nil, err
	}

	initial, err := f.Initial(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("seed draft: %w", err)
	}

	def := f.Definition()
	st := def.New(initial)
	if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
		return nil, err
	}

	s.log.Debug().Str("flow", flow).Int("user_id", claims.UserID).Msg("Draft started")
	return view(def, st), nil
}

// Get returns the user's current draft.
func (s *WizardService) Get(ctx context.Context, claims *Claims, flow string) (*WizardView, error) {
	f, st, err := s.load(ctx, claims, flow)
	if err != nil {
		return nil, err
	}
	return view(f.Definition(), st), nil
}

// SetFields applies a patch. Either every field is written or none is.
func (s *WizardService) SetFields(ctx context.Context, claims *Claims, flow string, values map[string]json.RawMessage) (*WizardView, error) {
	f, st, err := s.edit(ctx, claims, flow)
	if err != nil {
		return nil, err
	}
	def := f.Definition()

	if err := applyFields(def, st, values); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
		return nil, err
	}
	return view(def, st), nil
}

// Advance validates the current step and moves forward. The recorded errors
// are saved either way so the client can render them after a reload.
func (s *WizardService) Advance(ctx context.Context, claims *Claims, flow string) (*WizardView, error) {
	f, st, err := s.edit(ctx, claims, flow)
	if err != nil {
		return nil, err
	}
	def := f.Definition()

	advErr := def.Advance(st)
	if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
		return nil, err
	}
	return view(def, st), advErr
}

// Retreat moves back one step.
func (s *WizardService) Retreat(ctx context.Context, claims *Claims, flow string) (*WizardView, error) {
	f, st, err := s.edit(ctx, claims, flow)
	if err != nil {
		return nil, err
	}
	def := f.Definition()

	def.Retreat(st)
	if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
		return nil, err
	}
	return view(def, st), nil
}

// Finalize persists the draft once. Only one finalize per user and flow may
// run at a time; a concurrent call fails with wizard.ErrInFlight. The stored
// draft reports submitting while the flow persists, and edits are refused
// until it finishes. On success the draft is removed. On failure it is kept
// for a manual retry.
func (s *WizardService) Finalize(ctx context.Context, claims *Claims, flow string, opts FinalizeOptions) (*FinalizeResult, error) {
	f, err := s.flow(claims, flow)
	if err != nil {
		return nil, err
	}

	release, err := s.drafts.Lock(ctx, flow, claims.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.drafts.Load(ctx, flow, claims.UserID)
	if err != nil {
		return nil, err
	}
	def := f.Definition()

	// The lock is ours, so a stored submitting flag is left over from a
	// finalize that never cleared it.
	st.Submitting = false

	var result any
	finErr := def.Finalize(ctx, st, func(ctx context.Context, fields wizard.Fields) error {
		if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
			return err
		}
		r, err := f.Persist(ctx, claims, fields, opts)
		result = r
		return err
	})
	if finErr != nil {
		var ve *wizard.ValidationError
		if errors.As(finErr, &ve) {
			st.Errors = ve.Fields
		}
		if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
			return nil, err
		}
		if !isClientError(finErr) {
			s.log.Error().Err(finErr).Str("flow", flow).Int("user_id", claims.UserID).Msg("Finalize failed")
		}
		return &FinalizeResult{Draft: view(def, st)}, finErr
	}

	if err := s.drafts.Delete(ctx, flow, claims.UserID); err != nil {
		s.log.Warn().Err(err).Str("flow", flow).Msg("Failed to clear finalized draft")
	}

	s.log.Info().Str("flow", flow).Int("user_id", claims.UserID).Msg("Draft finalized")
	return &FinalizeResult{Draft: view(def, st), Result: result}, nil
}

// Discard drops the user's draft. It is refused while a finalize runs.
func (s *WizardService) Discard(ctx context.Context, claims *Claims, flow string) error {
	if _, err := s.flow(claims, flow); err != nil {
		return err
	}
	if err := s.checkIdle(ctx, flow, claims.UserID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, flow, claims.UserID)
}

// Generate runs the flow's generation sub-path and writes its output into
// the draft.
func (s *WizardService) Generate(ctx context.Context, claims *Claims, flow string) (*WizardView, error) {
	f, st, err := s.edit(ctx, claims, flow)
	if err != nil {
		return nil, err
	}
	gen, ok := f.(Generator)
	if !ok {
		return nil, ErrGenerateNotFound
	}
	def := f.Definition()

	out, err := gen.Generate(ctx, claims, st.Fields.Clone())
	if err != nil {
		return nil, err
	}

	if err := applyFields(def, st, out); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, claims.UserID, st); err != nil {
		return nil, err
	}
	return view(def, st), nil
}

func (s *WizardService) flow(claims *Claims, name string) (Flow, error) {
	f, ok := s.flows[name]
	if !ok {
		return nil, ErrUnknownFlow
	}
	if !f.Allows(claims) {
		return nil, ErrFlowForbidden
	}
	return f, nil
}

func (s *WizardService) load(ctx context.Context, claims *Claims, name string) (Flow, *wizard.State, error) {
	f, err := s.flow(claims, name)
	if err != nil {
		return nil, nil, err
	}
	st, err := s.drafts.Load(ctx, name, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return f, st, nil
}

// edit loads a draft for mutation. It fails with wizard.ErrInFlight while a
// finalize holds the lock or the stored draft is mid-submit.
func (s *WizardService) edit(ctx context.Context, claims *Claims, name string) (Flow, *wizard.State, error) {
	if err := s.checkIdle(ctx, name, claims.UserID); err != nil {
		return nil, nil, err
	}
	f, st, err := s.load(ctx, claims, name)
	if err != nil {
		return nil, nil, err
	}
	if st.Submitting {
		if err := s.checkIdle(ctx, name, claims.UserID); err != nil {
			return nil, nil, err
		}
		// Nobody holds the lock, so the flag is stale.
		st.Submitting = false
	}
	return f, st, nil
}

func (s *WizardService) checkIdle(ctx context.Context, flow string, userID int) error {
	locked, err := s.drafts.Locked(ctx, flow, userID)
	if err != nil {
		return err
	}
	if locked {
		return wizard.ErrInFlight
	}
	return nil
}

// applyFields writes values in name order onto a copy, then swaps it in.
func applyFields(def *wizard.Definition, st *wizard.State, values map[string]json.RawMessage) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	work := *st
	work.Fields = st.Fields.Clone()
	work.Errors = make(wizard.FieldErrors, len(st.Errors))
	for k, v := range st.Errors {
		work.Errors[k] = v
	}

	for _, name := range names {
		if err := def.SetField(&work, name, values[name]); err != nil {
			return err
		}
	}
	if len(work.Errors) == 0 {
		work.Errors = nil
	}
	*st = work
	return nil
}

func view(def *wizard.Definition, st *wizard.State) *WizardView {
	return &WizardView{State: st, Step: def.StepAt(st.CurrentStep), Steps: def.Steps}
}

// isClientError reports errors caused by the request rather than the server.
func isClientError(err error) bool {
	var ve *wizard.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, wizard.ErrNotFinalStep) ||
		errors.Is(err, wizard.ErrAlreadyFinalized) ||
		errors.Is(err, wizard.ErrInFlight)
}
