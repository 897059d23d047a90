package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
)

type memoryConversationRepo struct {
	conversations map[string]*models.Conversation
}

func newMemoryConversationRepo() *memoryConversationRepo {
	return &memoryConversationRepo{conversations: make(map[string]*models.Conversation)}
}

func (m *memoryConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	m.conversations[conv.ID] = conv
	return nil
}

func (m *memoryConversationRepo) Get(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, ok := m.conversations[conversationID]
	if !ok || conv.UserID != userID || conv.IsDeleted {
		return nil, domain.ErrNotFound
	}
	copied := *conv
	// Row-level load only; history comes from the message repo.
	copied.Messages = nil
	return &copied, nil
}

func (m *memoryConversationRepo) List(ctx context.Context, userID string, page, pageSize int) ([]models.Conversation, int, error) {
	var all []models.Conversation
	for _, conv := range m.conversations {
		if conv.UserID == userID && !conv.IsDeleted {
			all = append(all, *conv)
		}
	}
	return all, len(all), nil
}

func (m *memoryConversationRepo) Update(ctx context.Context, conv *models.Conversation) error {
	if _, ok := m.conversations[conv.ID]; !ok {
		return domain.ErrNotFound
	}
	m.conversations[conv.ID] = conv
	return nil
}

func (m *memoryConversationRepo) SoftDelete(ctx context.Context, conversationID, userID string) error {
	conv, ok := m.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return domain.ErrNotFound
	}
	conv.IsDeleted = true
	return nil
}

func (m *memoryConversationRepo) Touch(ctx context.Context, conversationID string) error {
	return nil
}

type memoryMessageRepo struct {
	messages []models.Message
}

func (m *memoryMessageRepo) Append(ctx context.Context, msg *models.Message) error {
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memoryMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestService() (*Service, *memoryConversationRepo, *memoryMessageRepo) {
	convRepo := newMemoryConversationRepo()
	msgRepo := &memoryMessageRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(convRepo, msgRepo, passthroughTx{}, logger), convRepo, msgRepo
}

func TestCreateDefaultsTitleFromInitialMessage(t *testing.T) {
	svc, _, msgRepo := newTestService()

	message := "What is the capital of France?"
	conv, err := svc.Create(context.Background(), "u1", nil, "", &message)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if conv.Title == nil || *conv.Title != message {
		t.Errorf("title = %v, want %q", conv.Title, message)
	}
	if conv.Model != DefaultModel {
		t.Errorf("model = %q, want %q", conv.Model, DefaultModel)
	}
	if len(msgRepo.messages) != 1 || msgRepo.messages[0].Content != message {
		t.Errorf("seed message not stored: %+v", msgRepo.messages)
	}
}

func TestCreateClipsLongTitle(t *testing.T) {
	svc, _, _ := newTestService()

	message := strings.Repeat("a", 80)
	conv, err := svc.Create(context.Background(), "u1", nil, "llama3.2", &message)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := strings.Repeat("a", 50) + "..."
	if conv.Title == nil || *conv.Title != want {
		t.Errorf("title = %v, want %d chars plus ellipsis", conv.Title, 50)
	}
}

func TestCreateExplicitTitleNotClipped(t *testing.T) {
	svc, _, _ := newTestService()

	title := strings.Repeat("t", 80)
	message := "hello"
	conv, err := svc.Create(context.Background(), "u1", &title, "", &message)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.Title == nil || *conv.Title != title {
		t.Errorf("explicit title was altered: %v", conv.Title)
	}
}

func TestCreateWithoutInitialMessage(t *testing.T) {
	svc, _, msgRepo := newTestService()

	conv, err := svc.Create(context.Background(), "u1", nil, "", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.Title != nil {
		t.Errorf("title = %v, want nil", conv.Title)
	}
	if len(msgRepo.messages) != 0 {
		t.Errorf("stored %d messages, want 0", len(msgRepo.messages))
	}
}

func TestGetIncludesMessages(t *testing.T) {
	svc, _, _ := newTestService()

	message := "hi"
	conv, err := svc.Create(context.Background(), "u1", nil, "", &message)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(context.Background(), conv.ID, "u1", true)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Messages) != 1 {
		t.Errorf("got %d messages, want 1", len(got.Messages))
	}

	bare, err := svc.Get(context.Background(), conv.ID, "u1", false)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(bare.Messages) != 0 {
		t.Errorf("got %d messages without includeMessages, want 0", len(bare.Messages))
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestService()

	conv, err := svc.Create(context.Background(), "owner", nil, "", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), conv.ID, "intruder", false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateLeavesNilFieldsUntouched(t *testing.T) {
	svc, _, _ := newTestService()

	title := "original"
	conv, err := svc.Create(context.Background(), "u1", &title, "llama3.2", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	model := "deepseek-r1:8b"
	updated, err := svc.Update(context.Background(), conv.ID, "u1", nil, &model)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title == nil || *updated.Title != "original" {
		t.Errorf("title changed: %v", updated.Title)
	}
	if updated.Model != "deepseek-r1:8b" {
		t.Errorf("model = %q, want deepseek-r1:8b", updated.Model)
	}
}

func TestDeleteHidesConversation(t *testing.T) {
	svc, _, _ := newTestService()

	conv, err := svc.Create(context.Background(), "u1", nil, "", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Delete(context.Background(), conv.ID, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), conv.ID, "u1", false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Delete(context.Background(), "missing", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
