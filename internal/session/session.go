// Package session owns the authenticated identity and its durable record.
//
// Exactly one or zero sessions exist per process. A session is created by a
// successful login or by restoring the on-disk record, and destroyed by an
// explicit logout or by a failed restore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/ident"
)

var (
	// ErrNotAuthenticated is returned when an operation requires an active
	// session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidLogin is returned when the login response lacks a usable
	// identifier.
	ErrInvalidLogin = errors.New("invalid response from server")
)

// recordSchema validates the shape of the persisted session record. The id is
// left untyped: normalization accepts both the canonical string and the raw
// 16-byte array form.
const recordSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "email"],
	"properties": {
		"email": {"type": "string"}
	}
}`

// Session is the authenticated identity.
type Session struct {
	ID    ident.ID `json:"id"`
	Email string   `json:"email"`
}

// record mirrors Session with the identifier kept raw, so a restore can judge
// usability the same way login does.
type record struct {
	ID    json.RawMessage `json:"id"`
	Email string          `json:"email"`
}

// Manager tracks the active session and its file-backed record.
type Manager struct {
	client  *api.Client
	path    string
	schema  *jsonschema.Schema
	log     zerolog.Logger
	current *Session
}

// NewManager creates a session manager persisting to path.
func NewManager(client *api.Client, path string, log zerolog.Logger) *Manager {
	return &Manager{
		client: client,
		path:   path,
		schema: jsonschema.MustCompileString("session.schema.json", recordSchema),
		log:    log,
	}
}

// Current returns the active session, or nil when anonymous.
func (m *Manager) Current() *Session {
	return m.current
}

// Login authenticates against the service, activates the session, and
// persists it. The response must carry a usable identifier; anything else
// fails with ErrInvalidLogin and leaves the manager anonymous.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	id, usable := ident.NormalizeJSON(user.ID)
	if !usable || id == "" {
		return nil, ErrInvalidLogin
	}

	sess := &Session{ID: id, Email: user.Email}
	if err := m.save(sess); err != nil {
		m.log.Error().Err(err).Msg("persisting session")
	}
	m.current = sess
	m.log.Info().Str("email", sess.Email).Msg("logged in")
	return sess, nil
}

// Restore activates the session from the on-disk record, best effort. A
// missing record leaves the manager anonymous. A malformed record, or one
// whose identifier is unusable, is discarded and leaves the manager anonymous
// without surfacing an error. A usable record is re-serialized in normalized
// form before activation, so a raw byte-array identifier written by an older
// record heals itself.
func (m *Manager) Restore() *Session {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil
	}

	rec, err := m.validate(data)
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding stored session")
		m.discard()
		return nil
	}

	id, usable := ident.NormalizeJSON(rec.ID)
	if !usable || id == "" {
		m.log.Warn().Msg("discarding stored session: unusable identifier")
		m.discard()
		return nil
	}

	sess := &Session{ID: id, Email: rec.Email}
	if err := m.save(sess); err != nil {
		m.log.Error().Err(err).Msg("rewriting session record")
	}
	m.current = sess
	m.log.Info().Str("email", sess.Email).Msg("session restored")
	return sess
}

// Logout clears the active session from memory and disk.
func (m *Manager) Logout() {
	m.current = nil
	m.discard()
	m.log.Info().Msg("logged out")
}

// TodosPath returns the per-user task collection path for the active session.
func (m *Manager) TodosPath() (string, error) {
	if m.current == nil || m.current.ID == "" {
		return "", ErrNotAuthenticated
	}
	return fmt.Sprintf("/users/%s/todos", m.current.ID), nil
}

// Validate checks a raw session record against the schema and returns the
// decoded record. Exposed for the doctor command, which inspects the stored
// record without Restore's discard side effect.
func (m *Manager) Validate(data []byte) error {
	_, err := m.validate(data)
	return err
}

func (m *Manager) validate(data []byte) (*record, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse session record: %w", err)
	}
	if err := m.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("validate session record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

func (m *Manager) save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

func (m *Manager) discard() {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.log.Error().Err(err).Msg("removing session record")
	}
}
