package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/filestorage"
	"github.com/yigit/peerlearn/internal/pkg/websocket"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []*websocket.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *websocket.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, msg)
}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	env, _, hub, owner := newHubFixture(t, models.HubPublic)
	ctx := context.Background()
	outsider := env.addUser(t, "Outsider", models.RoleLearner)

	bc := &recordingBroadcaster{}
	svc := NewChatService(env.chat, env.authz, bc, env.logger)

	msg, err := svc.SendMessage(ctx, hub.ID, owner.ID, "  hello hub  ")
	require.NoError(t, err)
	assert.Equal(t, "hello hub", msg.Content)
	assert.Equal(t, "Hub Owner", msg.SenderName)

	require.Len(t, bc.sent, 1)
	assert.Equal(t, websocket.MessageTypeChat, bc.sent[0].Type)
	assert.Equal(t, msg.ID, bc.sent[0].ID)
	assert.Equal(t, hub.ID, bc.sent[0].HubID)

	_, err = svc.SendMessage(ctx, hub.ID, owner.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.ErrorIs(t, svc.PostMessage(ctx, hub.ID, outsider.ID, "hi"), apperrors.ErrPermissionDenied)
	assert.Len(t, bc.sent, 1)

	ok, err := svc.IsMember(ctx, hub.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.IsMember(ctx, hub.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMessagesPagesBackwards(t *testing.T) {
	env, _, hub, owner := newHubFixture(t, models.HubPublic)
	ctx := context.Background()
	svc := NewChatService(env.chat, env.authz, &recordingBroadcaster{}, env.logger)

	var ids []int64
	for _, text := range []string{"one", "two", "three"} {
		msg, err := svc.SendMessage(ctx, hub.ID, owner.ID, text)
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	latest, err := svc.GetMessages(ctx, hub.ID, owner.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "two", latest[0].Content)
	assert.Equal(t, "three", latest[1].Content)

	older, err := svc.GetMessages(ctx, hub.ID, owner.ID, ids[1], 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "one", older[0].Content)

	outsider := env.addUser(t, "Outsider", models.RoleLearner)
	_, err = svc.GetMessages(ctx, hub.ID, outsider.ID, 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func uploadHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestResourceLifecycle(t *testing.T) {
	env, hubs, hub, owner := newHubFixture(t, models.HubPublic)
	ctx := context.Background()
	member := env.addUser(t, "Member", models.RoleLearner)
	other := env.addUser(t, "Other", models.RoleLearner)
	outsider := env.addUser(t, "Outsider", models.RoleLearner)
	for _, u := range []*models.User{member, other} {
		_, err := hubs.JoinHub(ctx, hub.ID, u.ID, "")
		require.NoError(t, err)
	}

	dir := t.TempDir()
	storage, err := filestorage.NewLocalStorage(dir, "http://localhost:8080")
	require.NoError(t, err)
	svc := NewResourceService(env.resources, storage, env.authz, 1<<10, env.logger)

	res, err := svc.UploadResource(ctx, hub.ID, member.ID, uploadHeader(t, "notes.txt", []byte("channels and goroutines")))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", res.FileName)
	assert.Equal(t, "text/plain", res.MimeType)
	assert.Contains(t, res.FileURL, "/uploads/hubs/")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.FilePath)))
	require.NoError(t, err)

	_, err = svc.UploadResource(ctx, hub.ID, member.ID, uploadHeader(t, "image.png", []byte("png")))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
	_, err = svc.UploadResource(ctx, hub.ID, member.ID, uploadHeader(t, "big.txt", bytes.Repeat([]byte("a"), 2<<10)))
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
	_, err = svc.UploadResource(ctx, hub.ID, outsider.ID, uploadHeader(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	listed, err := svc.ListResources(ctx, hub.ID, other.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	assert.ErrorIs(t, svc.DeleteResource(ctx, hub.ID, res.ID, other.ID), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, svc.DeleteResource(ctx, hub.ID+100, res.ID, member.ID), apperrors.ErrFileNotFound)

	// hub admins may delete anyone's upload
	require.NoError(t, svc.DeleteResource(ctx, hub.ID, res.ID, owner.ID))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.FilePath)))
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, svc.DeleteResource(ctx, hub.ID, res.ID, owner.ID), apperrors.ErrFileNotFound)
}
