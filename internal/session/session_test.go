package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/ident"
)

func newTestManager(t *testing.T, loginBody string) (*Manager, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(loginBody))
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "session.json")
	client := api.New(srv.URL, zerolog.Nop())
	return NewManager(client, path, zerolog.Nop()), path
}

func TestLoginActivatesAndPersists(t *testing.T) {
	m, path := newTestManager(t, `{"data":{"id":"11111111-2222-3333-4444-555555555555","email":"a@b.com"}}`)

	sess, err := m.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, ident.ID("11111111-2222-3333-4444-555555555555"), sess.ID)
	assert.Equal(t, "a@b.com", sess.Email)
	assert.Equal(t, sess, m.Current())

	todosPath, err := m.TodosPath()
	require.NoError(t, err)
	assert.Equal(t, "/users/11111111-2222-3333-4444-555555555555/todos", todosPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"11111111-2222-3333-4444-555555555555","email":"a@b.com"}`, string(data))
}

func TestLoginNormalizesByteArrayIdentifier(t *testing.T) {
	m, _ := newTestManager(t, `{"data":{"id":[17,17,17,17,34,34,51,51,68,68,85,85,85,85,85,85],"email":"a@b.com"}}`)

	sess, err := m.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, ident.ID("11111111-2222-3333-4444-555555555555"), sess.ID)
}

func TestLoginRejectsUnusableIdentifier(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"numeric id", `{"data":{"id":42,"email":"a@b.com"}}`},
		{"null id", `{"data":{"id":null,"email":"a@b.com"}}`},
		{"object id", `{"data":{"id":{"n":1},"email":"a@b.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, path := newTestManager(t, tt.body)

			_, err := m.Login(context.Background(), "a@b.com", "secret")
			require.ErrorIs(t, err, ErrInvalidLogin)
			assert.Nil(t, m.Current())
			assert.NoFileExists(t, path)
		})
	}
}

func TestRestoreMissingRecord(t *testing.T) {
	m, _ := newTestManager(t, `{}`)
	assert.Nil(t, m.Restore())
	assert.Nil(t, m.Current())
}

func TestRestoreValidRecord(t *testing.T) {
	m, path := newTestManager(t, `{}`)
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"11111111-2222-3333-4444-555555555555","email":"a@b.com"}`), 0o600))

	sess := m.Restore()
	require.NotNil(t, sess)
	assert.Equal(t, ident.ID("11111111-2222-3333-4444-555555555555"), sess.ID)
	assert.Equal(t, "a@b.com", sess.Email)
}

func TestRestoreHealsByteArrayRecord(t *testing.T) {
	m, path := newTestManager(t, `{}`)
	stored := `{"id":[17,17,17,17,34,34,51,51,68,68,85,85,85,85,85,85],"email":"a@b.com"}`
	require.NoError(t, os.WriteFile(path, []byte(stored), 0o600))

	sess := m.Restore()
	require.NotNil(t, sess)
	assert.Equal(t, ident.ID("11111111-2222-3333-4444-555555555555"), sess.ID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"11111111-2222-3333-4444-555555555555","email":"a@b.com"}`, string(data))
}

func TestRestoreDiscardsBadRecords(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"malformed json", `{not json`},
		{"missing email", `{"id":"11111111-2222-3333-4444-555555555555"}`},
		{"missing id", `{"email":"a@b.com"}`},
		{"non-string email", `{"id":"11111111-2222-3333-4444-555555555555","email":7}`},
		{"unusable id", `{"id":42,"email":"a@b.com"}`},
		{"not an object", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, path := newTestManager(t, `{}`)
			require.NoError(t, os.WriteFile(path, []byte(tt.stored), 0o600))

			assert.Nil(t, m.Restore())
			assert.Nil(t, m.Current())
			assert.NoFileExists(t, path)
		})
	}
}

func TestLogoutClearsSessionAndRecord(t *testing.T) {
	m, path := newTestManager(t, `{"data":{"id":"11111111-2222-3333-4444-555555555555","email":"a@b.com"}}`)

	_, err := m.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	m.Logout()
	assert.Nil(t, m.Current())
	assert.NoFileExists(t, path)

	_, err = m.TodosPath()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTodosPathRequiresSession(t *testing.T) {
	m, _ := newTestManager(t, `{}`)
	_, err := m.TodosPath()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidate(t *testing.T) {
	m, _ := newTestManager(t, `{}`)

	assert.NoError(t, m.Validate([]byte(`{"id":"x","email":"a@b.com"}`)))
	assert.Error(t, m.Validate([]byte(`{"email":"a@b.com"}`)))
	assert.Error(t, m.Validate([]byte(`not json`)))
}
