package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/domain/dialog"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// ErrNoSession is returned for dialog input when no entry is in progress.
var ErrNoSession = fmt.Errorf("%w: no record entry in progress", entity.ErrNotFound)

// DialogResult is the reply to one dialog input. Outcome is set when the
// input confirmed and stored a record.
type DialogResult struct {
	Reply   dialog.Reply
	Outcome *workflow.Outcome
}

// DialogService runs record entry dialogs, one per user per chat.
type DialogService interface {
	// Start opens a new session, replacing any previous one for key.
	Start(ctx context.Context, key dialog.Key, initiator entity.Actor) (dialog.Reply, error)
	SubmitText(ctx context.Context, key dialog.Key, text string) (*DialogResult, error)
	// SubmitSelection answers the prompt identified by token with an option index.
	SubmitSelection(ctx context.Context, key dialog.Key, token string, index int) (*DialogResult, error)

	// Cancel discards the session. It reports false when none existed.
	Cancel(ctx context.Context, key dialog.Key) (dialog.Reply, bool)

	Active(key dialog.Key) bool
}

type entry struct {
	session   *dialog.Session
	initiator entity.Actor
}

type dialogServiceImpl struct {
	mu       sync.Mutex
	sessions map[dialog.Key]*entry

	taxonomy  port.TaxonomyProvider
	approvals ApprovalService
	methods   []string
	logger    Logger
}

// NewDialogService creates a new DialogService
func NewDialogService(
	taxonomy port.TaxonomyProvider,
	approvals ApprovalService,
	methods []string,
	logger Logger,
) DialogService {
	return &dialogServiceImpl{
		sessions:  make(map[dialog.Key]*entry),
		taxonomy:  taxonomy,
		approvals: approvals,
		methods:   methods,
		logger:    logger,
	}
}

func (s *dialogServiceImpl) Start(ctx context.Context, key dialog.Key, initiator entity.Actor) (dialog.Reply, error) {
	tax, err := s.taxonomy.Fetch(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch taxonomy", "error", err, "user", key.UserID)
		return dialog.Reply{}, err
	}

	session := dialog.NewSession(key, tax, s.methods)
	reply := session.Start()

	s.mu.Lock()
	s.sessions[key] = &entry{session: session, initiator: initiator}
	s.mu.Unlock()

	s.logger.Info("Dialog started", "user", key.UserID, "chat", key.ChatID, "categories", len(tax.Categories))
	return reply, nil
}

func (s *dialogServiceImpl) SubmitText(ctx context.Context, key dialog.Key, text string) (*DialogResult, error) {
	return s.feed(ctx, key, func(sess *dialog.Session) dialog.Reply {
		return sess.SubmitText(text)
	})
}

func (s *dialogServiceImpl) SubmitSelection(ctx context.Context, key dialog.Key, token string, index int) (*DialogResult, error) {
	return s.feed(ctx, key, func(sess *dialog.Session) dialog.Reply {
		return sess.SubmitSelection(token, index)
	})
}

// feed applies one input under the registry lock and drops finished sessions.
// The record is stored after the lock is released.
func (s *dialogServiceImpl) feed(ctx context.Context, key dialog.Key, input func(*dialog.Session) dialog.Reply) (*DialogResult, error) {
	s.mu.Lock()
	e, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	reply := input(e.session)
	if reply.Outcome != dialog.OutcomeContinue {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	result := &DialogResult{Reply: reply}
	if reply.Outcome != dialog.OutcomeSubmitted || reply.Proposal == nil {
		return result, nil
	}

	out, err := s.approvals.Submit(ctx, *reply.Proposal, e.initiator)
	if err != nil {
		return nil, err
	}
	result.Outcome = out
	return result, nil
}

func (s *dialogServiceImpl) Cancel(ctx context.Context, key dialog.Key) (dialog.Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return dialog.Reply{Outcome: dialog.OutcomeCancelled}, false
	}
	delete(s.sessions, key)
	return e.session.Cancel(), true
}

func (s *dialogServiceImpl) Active(key dialog.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[key]
	return ok
}
