package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-portal/internal/db"
)

var (
	testDBOnce sync.Once
	testDB     *db.Database
	testDBErr  error
)

// integrationRepository connects to TEST_DB_DSN and skips the test when it
// is unset or unreachable.
func integrationRepository(t *testing.T) *Repository {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dsn := os.Getenv("TEST_DB_DSN")
		if dsn == "" {
			testDBErr = fmt.Errorf("TEST_DB_DSN is not set")
			return
		}
		testDB, testDBErr = db.NewDatabase(dsn)
		if testDBErr != nil {
			return
		}
		testDBErr = testDB.AutoMigrate()
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return NewRepository(testDB.Conn)
}

func createTestConversation(t *testing.T, repo *Repository) *Conversation {
	t.Helper()
	ctx := context.Background()

	c, created, err := repo.CreateOrGet(ctx, &Conversation{
		ID:          uuid.NewString(),
		Slug:        "it-services",
		Name:        "IT Services",
		StudentName: "Juan Dela Cruz",
		StudentID:   uuid.NewString() + "@nbsc.edu.ph",
		LastMessage: emptyLastMessage,
	})
	require.NoError(t, err)
	require.True(t, created)

	t.Cleanup(func() {
		_, _ = repo.db.ExecContext(context.Background(), `DELETE FROM conversations WHERE id = $1`, c.ID)
	})
	return c
}

func appendText(t *testing.T, repo *Repository, conversationID, text string, sender Sender, viewing bool) *Conversation {
	t.Helper()
	m := &Message{ID: uuid.NewString(), ConversationID: conversationID, Text: text, Sender: sender}
	c, err := repo.AppendMessage(context.Background(), m, viewing)
	require.NoError(t, err)
	return c
}

func TestRepositoryAppendMessageCounters(t *testing.T) {
	repo := integrationRepository(t)
	ctx := context.Background()
	conv := createTestConversation(t, repo)

	c := appendText(t, repo, conv.ID, "Hello", StudentSender(), false)
	assert.Equal(t, 1, c.Unread)
	assert.Equal(t, 0, c.UnreadStudent)
	assert.Equal(t, "Hello", c.LastMessage)

	c = appendText(t, repo, conv.ID, "Thank you", StudentSender(), false)
	assert.Equal(t, 2, c.Unread)
	assert.Equal(t, 0, c.UnreadStudent)

	c = appendText(t, repo, conv.ID, "You're welcome", DepartmentSender("IT Services"), false)
	assert.Equal(t, 2, c.Unread)
	assert.Equal(t, 1, c.UnreadStudent)

	// The student has the thread open, so the reply stays read.
	c = appendText(t, repo, conv.ID, "Anything else?", AdminSender(), true)
	assert.Equal(t, 2, c.Unread)
	assert.Equal(t, 0, c.UnreadStudent)

	c, err := repo.ResetUnread(ctx, conv.ID, PartyAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Unread)

	messages, err := repo.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "Anything else?", messages[3].Text)
	assert.Equal(t, AdminSender(), messages[3].Sender)
	assert.Equal(t, DepartmentSender("IT Services"), messages[2].Sender)

	_, err = repo.AppendMessage(ctx, &Message{ID: uuid.NewString(), ConversationID: "missing", Text: "x", Sender: StudentSender()}, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryConcurrentAppendsKeepOrderAndCount(t *testing.T) {
	repo := integrationRepository(t)
	ctx := context.Background()
	conv := createTestConversation(t, repo)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := StudentSender()
			if i%2 == 1 {
				sender = AdminSender()
			}
			m := &Message{ID: uuid.NewString(), ConversationID: conv.ID, Text: uuid.NewString(), Sender: sender}
			_, err := repo.AppendMessage(ctx, m, false)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	c, err := repo.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, writers/2, c.Unread)
	assert.Equal(t, writers/2, c.UnreadStudent)

	messages, err := repo.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, writers)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp), "message %d is stamped before its predecessor", i)
	}
	last := messages[len(messages)-1]
	assert.Equal(t, c.LastMessage, last.Text)
	assert.True(t, c.Timestamp.Equal(last.Timestamp))
}
