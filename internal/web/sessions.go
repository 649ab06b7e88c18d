package web

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/pipeline"
)

// Session carries one processed catalog between upload and export. The
// extracted grid is retained so mapping updates can re-assemble records
// without re-running inference.
type Session struct {
	ID        string           `json:"id"`
	FileName  string           `json:"file_name"`
	CreatedAt time.Time        `json:"created_at"`
	Grid      *extract.Result  `json:"grid"`
	Outcome   *pipeline.Outcome `json:"outcome"`
}

// sessionStore persists sessions as JSON files under a directory, one file
// per session ID.
type sessionStore struct {
	dir string
	ttl time.Duration
}

func newSessionStore(dir string, ttl time.Duration) (*sessionStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "catalogstd-sessions")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &sessionStore{dir: dir, ttl: ttl}, nil
}

func (st *sessionStore) path(id string) string {
	return filepath.Join(st.dir, id+".json")
}

// Create persists a new session and returns it with a fresh ID.
func (st *sessionStore) Create(fileName string, grid *extract.Result, out *pipeline.Outcome) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
		Grid:      grid,
		Outcome:   out,
	}
	if err := st.save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (st *sessionStore) save(sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := st.path(sess.ID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, st.path(sess.ID))
}

// Get loads a session by ID. Expired or missing sessions return
// ErrSessionNotFound.
func (st *sessionStore) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	raw, err := os.ReadFile(st.path(id))
	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if st.ttl > 0 && time.Since(sess.CreatedAt) > st.ttl {
		os.Remove(st.path(id))
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}
