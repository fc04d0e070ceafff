package services

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/database"
	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/internal/repository"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	store        *repository.Store
	tokens       *utils.TokenService
	cache        *memoryCache
	notifier     *recordingNotifier
	storage      *LocalStorage
	users        *UserService
	admins       *AdminService
	parcels      *ParcelService
	destinations *DestinationService
	reports      *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()

	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { database.Close(db) })

	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	env := &testEnv{
		store:    repository.NewStore(db),
		tokens:   utils.NewTokenService("test-secret", 0),
		cache:    newMemoryCache(),
		notifier: &recordingNotifier{},
		storage:  storage,
	}
	env.users = NewUserService(env.store, env.tokens, bcrypt.MinCost, false, log)
	env.admins = NewAdminService(env.store, env.tokens, bcrypt.MinCost, log)
	env.parcels = NewParcelService(env.store, storage, env.notifier, log)
	env.destinations = NewDestinationService(env.store, env.cache, log)
	env.reports = NewReportService(env.store, log)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) models.Identity {
	t.Helper()
	view, err := e.users.Create(context.Background(), CreateUserInput{Email: email, Password: "p1"})
	require.NoError(t, err)
	return models.UserIdentity(view.ID)
}

func (e *testEnv) createAdmin(t *testing.T, email string) models.Identity {
	t.Helper()
	view, err := e.admins.Register(context.Background(), RegisterAdminInput{
		FirstName: "Ada", LastName: "Admin", Email: email, Password: "root",
	})
	require.NoError(t, err)
	return models.AdminIdentity(view.ID)
}

func (e *testEnv) createParcel(t *testing.T, owner models.Identity) models.ParcelView {
	t.Helper()
	view, err := e.parcels.Create(context.Background(), owner, CreateParcelInput{Item: "box", Weight: 2})
	require.NoError(t, err)
	return view
}

func imageHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("parcel_image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["parcel_image"][0]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ParcelStatusEvent
}

func (n *recordingNotifier) NotifyParcelStatus(_ context.Context, event ParcelStatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []ParcelStatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ParcelStatusEvent(nil), n.events...)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes++
	return nil
}
