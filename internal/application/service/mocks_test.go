package service

import (
	"context"
	"sync"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockEngine struct {
	submitFunc func(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*workflow.Outcome, error)
	applyFunc  func(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error)
}

func (m *mockEngine) Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*workflow.Outcome, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, proposal, initiator)
	}
	rec := entity.NewRecord(proposal, initiator.ID)
	rec.ID = 1
	return &workflow.Outcome{Record: rec}, nil
}

func (m *mockEngine) Apply(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
	if m.applyFunc != nil {
		return m.applyFunc(ctx, id, action, actor)
	}
	return &workflow.Outcome{}, nil
}

type mockRecordRepo struct {
	getByIDFunc       func(ctx context.Context, id int64) (*entity.ExpenseRecord, error)
	listUnsettledFunc func(ctx context.Context) ([]*entity.ExpenseRecord, error)
}

func (m *mockRecordRepo) Create(ctx context.Context, rec *entity.ExpenseRecord) error {
	return nil
}

func (m *mockRecordRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, entity.ErrNotFound
}

func (m *mockRecordRepo) Update(ctx context.Context, id int64, upd entity.RecordUpdate) error {
	return nil
}

func (m *mockRecordRepo) ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error) {
	if m.listUnsettledFunc != nil {
		return m.listUnsettledFunc(ctx)
	}
	return nil, nil
}

type mockHistoryRepo struct {
	listByRecordIDFunc func(ctx context.Context, recordID int64) ([]*entity.ApprovalHistory, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	return nil
}

func (m *mockHistoryRepo) ListByRecordID(ctx context.Context, recordID int64) ([]*entity.ApprovalHistory, error) {
	if m.listByRecordIDFunc != nil {
		return m.listByRecordIDFunc(ctx, recordID)
	}
	return nil, nil
}

type mockTaxonomy struct {
	fetchFunc func(ctx context.Context) (entity.Taxonomy, error)
}

func (m *mockTaxonomy) Fetch(ctx context.Context) (entity.Taxonomy, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx)
	}
	return entity.Taxonomy{}, nil
}

type sentMessage struct {
	recipient string
	text      string
}

type mockNotifier struct {
	mu       sync.Mutex
	posted   []string
	edited   []entity.MessageRef
	sent     []sentMessage
	postFunc func(ctx context.Context, recipients []string, text string, buttons []port.Button) ([]entity.MessageRef, error)
	editFunc func(ctx context.Context, ref entity.MessageRef, text string) error
	sendFunc func(ctx context.Context, recipient, text string) error
}

func (m *mockNotifier) Post(ctx context.Context, recipients []string, text string, buttons []port.Button) ([]entity.MessageRef, error) {
	m.mu.Lock()
	m.posted = append(m.posted, recipients...)
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(ctx, recipients, text, buttons)
	}
	refs := make([]entity.MessageRef, 0, len(recipients))
	for _, r := range recipients {
		refs = append(refs, entity.MessageRef{ChatID: r, MessageID: "om_" + r})
	}
	return refs, nil
}

func (m *mockNotifier) Edit(ctx context.Context, ref entity.MessageRef, text string) error {
	m.mu.Lock()
	m.edited = append(m.edited, ref)
	m.mu.Unlock()
	if m.editFunc != nil {
		return m.editFunc(ctx, ref, text)
	}
	return nil
}

func (m *mockNotifier) Send(ctx context.Context, recipient, text string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{recipient: recipient, text: text})
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, recipient, text)
	}
	return nil
}

// memInteractionStore is an in-memory port.InteractionStore.
type memInteractionStore struct {
	mu    sync.Mutex
	items map[entity.InteractionKey]*entity.PendingInteraction
}

func newMemInteractionStore() *memInteractionStore {
	return &memInteractionStore{items: make(map[entity.InteractionKey]*entity.PendingInteraction)}
}

func (m *memInteractionStore) Save(ctx context.Context, p entity.PendingInteraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[p.Key()]
	if !ok {
		cur = &entity.PendingInteraction{RecordID: p.RecordID, Department: p.Department}
		m.items[p.Key()] = cur
	}
	cur.Messages = append(cur.Messages, p.Messages...)
	return nil
}

func (m *memInteractionStore) Get(ctx context.Context, key entity.InteractionKey) (*entity.PendingInteraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memInteractionStore) Delete(ctx context.Context, key entity.InteractionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
