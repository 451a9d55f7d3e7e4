package app

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/api/apitest"
	"github.com/fakeyudi/storyapp/internal/config"
	"github.com/fakeyudi/storyapp/internal/output"
	"github.com/fakeyudi/storyapp/internal/repository"
)

func newApp(t *testing.T, srv *apitest.Server, dataDir string) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseURL = srv.BaseURL()
	a, err := New(Options{Config: cfg, DataDir: dataDir, Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func await[T any](t *testing.T, ch <-chan output.Output[T]) output.Output[T] {
	t.Helper()
	o, ok := output.Await(context.Background(), ch, nil)
	require.True(t, ok, "channel closed without a terminal value")
	return o
}

func TestLoginSurvivesRestartAndAuthenticatesFeed(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Me", "me@example.com", "password1")
	dataDir := t.TempDir()

	first := newApp(t, srv, dataDir)
	got := await(t, first.Users.Login(context.Background(), "me@example.com", "password1"))
	require.Equal(t, output.KindSuccess, got.Kind())
	require.True(t, first.Users.Session().IsLogin)

	// a second process sees the persisted session without logging in again
	second := newApp(t, srv, dataDir)
	sess := second.Users.Session()
	assert.True(t, sess.IsLogin)
	assert.Equal(t, "me@example.com", sess.Email)

	feed := await(t, second.Stories.ListStories(context.Background()))
	resp := output.Match(feed,
		func() bool { return true },
		func(r *api.StoryResponse) bool { return r.Error },
		func(string) bool { return true },
	)
	assert.False(t, resp, "authenticated feed request succeeds")

	auths := srv.Auths()
	assert.Equal(t, "Bearer "+sess.Token, auths[len(auths)-1])
}

func TestLogoutSendsEmptyBearerUntilNextLogin(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Me", "me@example.com", "password1")
	a := newApp(t, srv, t.TempDir())

	await(t, a.Users.Login(context.Background(), "me@example.com", "password1"))
	require.NoError(t, a.Users.Logout())
	assert.False(t, a.Users.Session().IsLogin)

	feed := await(t, a.Stories.ListStories(context.Background()))
	flagged := output.Match(feed,
		func() bool { return false },
		func(r *api.StoryResponse) bool { return r.Error },
		func(string) bool { return false },
	)
	assert.True(t, flagged, "server rejects the anonymous request inside a normal body")

	auths := srv.Auths()
	assert.Equal(t, "Bearer", auths[len(auths)-1], "empty token, header still sent")
}

func TestUploadEndToEnd(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Me", "me@example.com", "password1")
	a := newApp(t, srv, t.TempDir())
	await(t, a.Users.Login(context.Background(), "me@example.com", "password1"))

	src := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, imaging.Save(imaging.New(1800, 900, color.White), src))

	raw, err := a.Pictures.ImportFile(context.Background(), src)
	require.NoError(t, err)
	pending, err := a.Pictures.Prepare(context.Background(), raw)
	require.NoError(t, err)
	req, err := repository.NewUploadRequest(pending.Reduced, "sunset")
	require.NoError(t, err)

	got := await(t, a.Stories.UploadStory(context.Background(), req))
	require.Equal(t, output.KindSuccess, got.Kind())

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "sunset", uploads[0].Description)
	assert.Equal(t, "image/jpeg", uploads[0].PhotoType)
	assert.Equal(t, filepath.Base(pending.Reduced), uploads[0].FileName)
}

func TestNewDefaultsPicturesDirUnderDataDir(t *testing.T) {
	srv := apitest.NewServer(t)
	dataDir := t.TempDir()
	a := newApp(t, srv, dataDir)

	assert.Equal(t, filepath.Join(dataDir, "Pictures"), a.Pictures.Dir())
	info, err := os.Stat(a.Pictures.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	cfg := config.Defaults()
	cfg.BaseURL = "story-api/v1"
	_, err := New(Options{Config: cfg, DataDir: t.TempDir(), Logger: zap.NewNop()})
	assert.Error(t, err)
}
