package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/workflow"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// Session is one operator's walk through the log pages: a navigator, the selected page's
// workflow state and the sign-off dialog they share
type Session struct {
	ID     string
	UserID uint

	mu       sync.Mutex
	closed   bool
	dialog   *capture.Controller
	nav      *workflow.Navigator
	lastUsed time.Time
}

// SessionView is the JSON shape of a session after every operation
type SessionView struct {
	ID            string                         `json:"id"`
	Logs          []models.LogSummary            `json:"logs"`
	SelectedIndex int                            `json:"selected_index"`
	CurrentIndex  int                            `json:"current_index"`
	CanPrevious   bool                           `json:"can_previous"`
	CanNext       bool                           `json:"can_next"`
	Log           models.LogSummary              `json:"log"`
	Entries       []models.LogEntryResponse      `json:"entries"`
	Checks        []models.CheckStatus           `json:"checks"`
	Fluids        *models.FluidsRecord           `json:"fluids"`
	Pending       *workflow.PendingAuthorization `json:"pending"`
	ExpiresAt     time.Time                      `json:"expires_at"`
}

// WorkflowService keeps the open workflow sessions in memory and routes every request
// for a session through its lock
type WorkflowService struct {
	store       workflow.Store
	verifier    capture.Verifier
	signatures  workflow.SignatureSink
	auditSvc    *AuditService
	allocator   *identifier.Allocator
	idleTimeout time.Duration
	validate    *validator.Validate
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewWorkflowService(
	store workflow.Store,
	verifier capture.Verifier,
	signatures workflow.SignatureSink,
	auditSvc *AuditService,
	allocator *identifier.Allocator,
	idleTimeout time.Duration,
) *WorkflowService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &WorkflowService{
		store:       store,
		verifier:    verifier,
		signatures:  signatures,
		auditSvc:    auditSvc,
		allocator:   allocator,
		idleTimeout: idleTimeout,
		validate:    validate,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a session on the current flight's log page
func (s *WorkflowService) Create(ctx context.Context, userID uint) (*SessionView, error) {
	sess := &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		dialog:   capture.NewController(s.verifier),
		lastUsed: s.now(),
	}

	opts := workflow.Options{
		Allocator:  s.allocator,
		Signatures: s.signatures,
		Now:        s.now,
	}
	if s.auditSvc != nil {
		opts.Recorder = s.auditSvc.Recorder(userID)
	}

	sess.nav = workflow.NewNavigator(s.store, func(ctx context.Context, logID uint) (*workflow.LogWorkflowState, error) {
		return workflow.Load(ctx, s.store, sess.dialog, logID, opts)
	})
	if err := sess.nav.Load(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	logger.Info("Workflow session opened", "session_id", sess.ID, "user_id", userID, "log_id", sess.nav.State().LogID())
	return s.view(sess), nil
}

// Get returns the session as last loaded
func (s *WorkflowService) Get(ctx context.Context, id string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error { return nil })
}

// Close ends a session, cancelling any open authorization
func (s *WorkflowService) Close(ctx context.Context, id string) error {
	sess, err := s.lock(id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	sess.shutdown()
	logger.Info("Workflow session closed", "session_id", id)
	return nil
}

// Previous moves to the older log page
func (s *WorkflowService) Previous(ctx context.Context, id string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		_, err := sess.nav.Previous(ctx)
		return err
	})
}

// Next moves to the newer log page, never past the current flight's
func (s *WorkflowService) Next(ctx context.Context, id string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		_, err := sess.nav.Next(ctx)
		return err
	})
}

// Reload re-reads the selected log page
func (s *WorkflowService) Reload(ctx context.Context, id string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.Reload(ctx)
	})
}

func (s *WorkflowService) AddEntry(ctx context.Context, id string, patch workflow.EntryPatch) (*SessionView, error) {
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}
	return s.withSession(id, func(sess *Session) error {
		_, err := sess.nav.State().AddEntry(ctx, patch)
		return err
	})
}

func (s *WorkflowService) UpdateEntry(ctx context.Context, id string, seq int, patch workflow.EntryPatch) (*SessionView, error) {
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}
	return s.withSession(id, func(sess *Session) error {
		_, err := sess.nav.State().UpdateEntry(ctx, seq, patch)
		return err
	})
}

func (s *WorkflowService) RemoveEntry(ctx context.Context, id string, seq int) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.State().RemoveEntry(ctx, seq)
	})
}

// RequestShortSign opens the sign-off dialog for an entry's short sign
func (s *WorkflowService) RequestShortSign(ctx context.Context, id string, seq int) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.State().RequestShortSign(ctx, seq)
	})
}

// RequestActionAuth opens the sign-off dialog for an entry's action authorization
func (s *WorkflowService) RequestActionAuth(ctx context.Context, id string, seq int) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.State().RequestActionAuth(ctx, seq)
	})
}

// RequestCheck opens the sign-off dialog for a check. svcOption only applies to LETTER.
func (s *WorkflowService) RequestCheck(ctx context.Context, id string, checkType, svcOption string) (*SessionView, error) {
	t, ok := models.ParseCheckType(strings.ToUpper(checkType))
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrUnknownCheck, checkType)
	}
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.State().RequestCheckAuthorization(ctx, t, strings.ToUpper(svcOption))
	})
}

// UpdateFluids saves the fluids sheet of the selected page while it is unsigned
func (s *WorkflowService) UpdateFluids(ctx context.Context, id string, data json.RawMessage, description string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		_, err := sess.nav.State().UpdateFluids(ctx, data, description)
		return err
	})
}

// RequestDeicing opens the sign-off dialog for the DEICING authorization
func (s *WorkflowService) RequestDeicing(ctx context.Context, id string, data json.RawMessage, description string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.nav.State().RequestDeicingAuthorization(ctx, data, description)
	})
}

// DrawSignature attaches a signature bitmap to the open authorization
func (s *WorkflowService) DrawSignature(ctx context.Context, id string, image []byte, issuedAt, expiresAt time.Time) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.dialog.DrawSignature(image, issuedAt, expiresAt)
	})
}

// Confirm resolves the open authorization with the operator's credentials
func (s *WorkflowService) Confirm(ctx context.Context, id string, creds capture.Credentials) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.dialog.Resolve(ctx, creds)
	})
}

// Cancel closes the open authorization without applying it
func (s *WorkflowService) Cancel(ctx context.Context, id string) (*SessionView, error) {
	return s.withSession(id, func(sess *Session) error {
		return sess.dialog.Cancel()
	})
}

// EvictIdle closes sessions unused for longer than the idle timeout. Busy sessions are
// skipped until the next sweep.
func (s *WorkflowService) EvictIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, sess)
			continue
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.shutdown()
		sess.mu.Unlock()
		logger.Info("Workflow session evicted", "session_id", sess.ID, "user_id", sess.UserID)
	}
	return len(expired)
}

// Owner returns the user that opened the session
func (s *WorkflowService) Owner(id string) (uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return sess.UserID, nil
}

// SessionCount returns the number of open sessions
func (s *WorkflowService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll closes every session, cancelling open authorizations. Used on shutdown.
func (s *WorkflowService) CloseAll(ctx context.Context) int {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.mu.Lock()
		sess.shutdown()
		sess.mu.Unlock()
	}
	return len(all)
}

// withSession runs fn under the session lock and returns the resulting view. The view is
// returned alongside fn's error so callers can show the unchanged state.
func (s *WorkflowService) withSession(id string, fn func(sess *Session) error) (*SessionView, error) {
	sess, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	sess.lastUsed = s.now()
	if err := fn(sess); err != nil {
		return s.view(sess), err
	}
	return s.view(sess), nil
}

func (s *WorkflowService) lock(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *WorkflowService) view(sess *Session) *SessionView {
	state := sess.nav.State()
	log := state.Log()

	entries := state.Entries()
	resp := make([]models.LogEntryResponse, len(entries))
	for i := range entries {
		resp[i] = entries[i].ToResponse()
	}

	return &SessionView{
		ID:            sess.ID,
		Logs:          sess.nav.Logs(),
		SelectedIndex: sess.nav.SelectedIndex(),
		CurrentIndex:  sess.nav.CurrentIndex(),
		CanPrevious:   sess.nav.CanPrevious(),
		CanNext:       sess.nav.CanNext(),
		Log:           log.ToSummary(),
		Entries:       resp,
		Checks:        state.CheckStatuses(),
		Fluids:        state.Fluids(),
		Pending:       state.Pending(),
		ExpiresAt:     sess.lastUsed.Add(s.idleTimeout),
	}
}

func (s *WorkflowService) validatePatch(patch workflow.EntryPatch) error {
	err := s.validate.Struct(patch)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &workflow.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %s validation", fe.Tag()),
		}
	}
	return err
}

// shutdown must run with the session lock held
func (sess *Session) shutdown() {
	sess.closed = true
	if _, open := sess.dialog.Pending(); open {
		_ = sess.dialog.Cancel()
	}
}
