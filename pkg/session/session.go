package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/pkg/auth"
)

const (
	keyUserID   = "user_id"
	keyEmail    = "email"
	keyName     = "name"
	keyRole     = "role"
	keyMemberID = "member_id"
	keyLoginAt  = "login_at"

	keyFlashSuccess = "flash_success"
	keyFlashError   = "flash_error"
)

type Config struct {
	Lifetime      time.Duration
	SecureCookies bool
}

// Manager keeps the signed-in identity and flash messages of the page UI.
type Manager struct {
	*scs.SessionManager
}

// NewManager stores sessions in the postgres "sessions" table created by the migrations.
func NewManager(db *sql.DB, cfg Config) *Manager {
	return NewManagerWithStore(postgresstore.New(db), cfg)
}

func NewManagerWithStore(store scs.Store, cfg Config) *Manager {
	sm := scs.New()
	sm.Store = store
	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = "library_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm}
}

// SignIn renews the token to prevent fixation and stores the identity.
func (m *Manager) SignIn(ctx context.Context, id auth.Identity) error {
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, keyUserID, id.UserID.String())
	m.Put(ctx, keyEmail, id.Email)
	m.Put(ctx, keyName, id.Name)
	m.Put(ctx, keyRole, id.Role.String())
	if id.MemberID != uuid.Nil {
		m.Put(ctx, keyMemberID, id.MemberID.String())
	}
	m.Put(ctx, keyLoginAt, time.Now().UTC().Format(time.RFC3339))
	return nil
}

func (m *Manager) SignOut(ctx context.Context) error {
	return m.Destroy(ctx)
}

// Identity returns the signed-in identity, or false for an anonymous session.
func (m *Manager) Identity(ctx context.Context) (auth.Identity, bool) {
	userID, err := uuid.Parse(m.GetString(ctx, keyUserID))
	if err != nil {
		return auth.Identity{}, false
	}
	role, err := auth.ParseRole(m.GetString(ctx, keyRole))
	if err != nil {
		return auth.Identity{}, false
	}
	id := auth.Identity{
		UserID: userID,
		Email:  m.GetString(ctx, keyEmail),
		Name:   m.GetString(ctx, keyName),
		Role:   role,
	}
	if memberID, err := uuid.Parse(m.GetString(ctx, keyMemberID)); err == nil {
		id.MemberID = memberID
	}
	return id, true
}

// Peek loads the identity straight from the request cookie without committing the session.
// It serves handlers that hijack the connection and cannot run behind LoadAndSave.
func (m *Manager) Peek(r *http.Request) (auth.Identity, bool) {
	c, err := r.Cookie(m.Cookie.Name)
	if err != nil {
		return auth.Identity{}, false
	}
	ctx, err := m.Load(r.Context(), c.Value)
	if err != nil {
		return auth.Identity{}, false
	}
	return m.Identity(ctx)
}

func (m *Manager) FlashSuccess(ctx context.Context, msg string) {
	m.Put(ctx, keyFlashSuccess, msg)
}

func (m *Manager) FlashError(ctx context.Context, msg string) {
	m.Put(ctx, keyFlashError, msg)
}

type Flash struct {
	Success string
	Error   string
}

// PopFlash reads and clears the pending flash messages.
func (m *Manager) PopFlash(ctx context.Context) Flash {
	return Flash{
		Success: m.PopString(ctx, keyFlashSuccess),
		Error:   m.PopString(ctx, keyFlashError),
	}
}
