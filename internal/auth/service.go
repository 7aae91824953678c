package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rivohq/rivo/internal/database"
	"github.com/rivohq/rivo/internal/scheduling"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

// PasswordCost is the bcrypt work factor for new accounts.
const PasswordCost = 10

// Session is what register and login hand back to the admin UI.
type Session struct {
	User      *User                `json:"user"`
	Workspace *workspace.Workspace `json:"workspace"`
}

// TxRunner runs fn with repositories bound to one transaction.
type TxRunner func(ctx context.Context, fn func(users UserRepository, workspaces workspace.Repository) error) error

// PostgresTx binds the registration writes to a single pgx transaction.
func PostgresTx(pool database.PgxPool) TxRunner {
	return func(ctx context.Context, fn func(UserRepository, workspace.Repository) error) error {
		return database.WithTx(ctx, pool, func(tx pgx.Tx) error {
			return fn(NewPostgresUserRepository(tx), workspace.NewPostgresRepository(tx))
		})
	}
}

// Service registers garages and checks credentials.
type Service struct {
	users      UserRepository
	workspaces workspace.Repository
	tx         TxRunner
	logger     *logging.Logger
	cost       int
}

func NewService(users UserRepository, workspaces workspace.Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{users: users, workspaces: workspaces, logger: logger, cost: PasswordCost}
}

// WithTx makes Register insert the workspace and its owner atomically.
// Without it a failed owner insert is compensated by deleting the workspace.
func (s *Service) WithTx(tx TxRunner) *Service {
	s.tx = tx
	return s
}

// Register creates a workspace and its owner.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	owner := &User{
		Email:        email,
		Name:         req.Name,
		IsOwner:      true,
		PasswordHash: string(hash),
	}

	var session *Session
	if s.tx != nil {
		err = s.tx(ctx, func(users UserRepository, workspaces workspace.Repository) error {
			session, err = createOwner(ctx, users, workspaces, req.WorkspaceName, owner)
			return err
		})
	} else {
		session, err = s.registerCompensated(ctx, req.WorkspaceName, owner)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("workspace registered", "workspace_id", session.Workspace.ID, "user_id", session.User.ID)
	return session, nil
}

func (s *Service) registerCompensated(ctx context.Context, workspaceName string, owner *User) (*Session, error) {
	session, err := createOwner(ctx, s.users, s.workspaces, workspaceName, owner)
	if err != nil && session != nil && session.Workspace != nil {
		if delErr := s.workspaces.Delete(ctx, session.Workspace.ID); delErr != nil {
			s.logger.Error("failed to remove orphaned workspace", "workspace_id", session.Workspace.ID, "error", delErr)
		}
		return nil, err
	}
	return session, err
}

// createOwner inserts the workspace then the owner. On an owner failure the
// returned session still carries the workspace so callers can clean up.
func createOwner(ctx context.Context, users UserRepository, workspaces workspace.Repository, workspaceName string, owner *User) (*Session, error) {
	ws, err := workspaces.Create(ctx, workspace.CreateRequest{
		Name:     workspaceName,
		Timezone: scheduling.DefaultTimeZone,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create workspace: %w", err)
	}

	pending := *owner
	pending.WorkspaceID = ws.ID
	user, err := users.Create(ctx, &pending)
	if err != nil {
		return &Session{Workspace: ws}, err
	}
	return &Session{User: user, Workspace: ws}, nil
}

// Login returns the user and workspace for valid credentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	ws, err := s.workspaces.Get(ctx, user.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("auth: load workspace: %w", err)
	}
	return &Session{User: user, Workspace: ws}, nil
}
