package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/auth"
	"github.com/Laisky/laisky-newsroom/library/db/postgres"
	"github.com/Laisky/laisky-newsroom/library/log"
)

const minPasswordLength = 6

// TokenSigner issues access tokens
type TokenSigner interface {
	Sign(uid int64, role string) (string, error)
}

// Service user accounts
type Service struct {
	db       *gorm.DB
	signer   TokenSigner
	logger   logSDK.Logger
	clock    func() time.Time
	hashCost int
}

// NewService constructs the service and migrates the users table.
func NewService(db *gorm.DB, signer TokenSigner, logger logSDK.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	if signer == nil {
		return nil, errors.New("token signer is required")
	}
	if logger == nil {
		logger = log.Logger.Named("user_service")
	}

	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.Wrap(err, "auto migrate users table")
	}

	return &Service{
		db:       db,
		signer:   signer,
		logger:   logger,
		clock:    gutils.Clock.GetUTCNow,
		hashCost: bcrypt.DefaultCost,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in *RegisterInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.LastName = strings.TrimSpace(in.LastName)

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return errors.Wrapf(ErrInvalidInput, "email %q", in.Email)
	}
	if len(in.Password) < minPasswordLength {
		return errors.Wrapf(ErrInvalidInput, "password must have at least %d characters", minPasswordLength)
	}
	if in.Name == "" {
		return errors.Wrap(ErrInvalidInput, "name is required")
	}

	return nil
}

// Register creates a reader account and logs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&User{}).
		Where("email = ?", in.Email).
		Count(&n).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if n > 0 {
		return nil, errors.Wrapf(ErrEmailTaken, "%q", in.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hashed),
		Name:         in.Name,
		LastName:     in.LastName,
		Role:         models.RoleReader,
		Active:       true,
	}
	if err = s.db.WithContext(ctx).Create(u).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, errors.Wrapf(ErrEmailTaken, "%q", in.Email)
		}
		return nil, errors.Wrap(err, "create user")
	}

	s.logger.Info("user registered", zap.Int64("uid", u.ID), zap.String("email", u.Email))
	return s.newSession(u)
}

// Login verifies the password and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	u := new(User)
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login with unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrapf(err, "load user %q", email)
	}

	if !u.Active {
		s.logger.Warn("login with deactivated user", zap.Int64("uid", u.ID))
		return nil, errors.Wrapf(ErrInactive, "user %d", u.ID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("invalid password", zap.Int64("uid", u.ID))
		if err := s.db.WithContext(ctx).Model(u).
			UpdateColumn("failed_logins", gorm.Expr("failed_logins + ?", 1)).Error; err != nil {
			s.logger.Error("record failed login", zap.Int64("uid", u.ID), zap.Error(err))
		}
		return nil, ErrInvalidCredentials
	}

	now := s.clock()
	if err := s.db.WithContext(ctx).Model(u).Updates(map[string]any{
		"failed_logins": 0,
		"last_login_at": now,
	}).Error; err != nil {
		return nil, errors.Wrapf(err, "record login of user %d", u.ID)
	}
	u.FailedLogins = 0
	u.LastLoginAt = &now

	s.logger.Info("user login", zap.Int64("uid", u.ID))
	return s.newSession(u)
}

func (s *Service) newSession(u *User) (*Session, error) {
	token, err := s.signer.Sign(u.ID, string(u.Role))
	if err != nil {
		return nil, errors.Wrapf(err, "sign token for user %d", u.ID)
	}

	return &Session{User: u, Token: token}, nil
}

// Get load user by id
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u := new(User)
	if err := s.db.WithContext(ctx).First(u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "user %d", id)
		}
		return nil, errors.Wrapf(err, "get user %d", id)
	}

	return u, nil
}

// ActiveActor returns the current role of an active user.
//
// Missing and deactivated users yield an error wrapping auth.ErrRevoked.
func (s *Service) ActiveActor(ctx context.Context, uid int64) (models.Actor, error) {
	u := new(User)
	if err := s.db.WithContext(ctx).
		Where("id = ? AND active = ?", uid, true).
		First(u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Actor{}, errors.Wrapf(auth.ErrRevoked, "user %d", uid)
		}
		return models.Actor{}, errors.Wrapf(err, "load actor %d", uid)
	}

	return u.Actor(), nil
}

// List all users ordered by id, administrator only
func (s *Service) List(ctx context.Context, actor models.Actor) ([]User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot list users", actor.ID)
	}

	users := make([]User, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	return users, nil
}

// UpdateRole changes the role of a user, administrator only
func (s *Service) UpdateRole(ctx context.Context, actor models.Actor, id int64, role string) (*User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot change roles", actor.ID)
	}

	r := models.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown role %q", role)
	}

	return s.update(ctx, id, map[string]any{"role": r}, zap.String("role", string(r)))
}

// SetActive activates or deactivates a user, administrator only.
//
// Administrators cannot deactivate themselves.
func (s *Service) SetActive(ctx context.Context, actor models.Actor, id int64, active bool) (*User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot manage users", actor.ID)
	}
	if !active && actor.ID == id {
		return nil, errors.Wrap(ErrInvalidInput, "cannot deactivate yourself")
	}

	return s.update(ctx, id, map[string]any{"active": active}, zap.Bool("active", active))
}

func (s *Service) update(ctx context.Context, id int64, fields map[string]any, logField zap.Field) (*User, error) {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "update user %d", id)
	}
	if result.RowsAffected == 0 {
		return nil, errors.Wrapf(ErrNotFound, "user %d", id)
	}

	s.logger.Info("user updated", zap.Int64("uid", id), logField)
	return s.Get(ctx, id)
}

// Bootstrap makes sure an administrator account exists
func (s *Service) Bootstrap(ctx context.Context, email, password, name string) (*User, error) {
	in := RegisterInput{Email: email, Password: password, Name: name}
	if err := in.validate(); err != nil {
		return nil, err
	}

	u := new(User)
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(u).Error
	switch {
	case err == nil:
		if u.Role == models.RoleAdministrator {
			return u, nil
		}
		return s.update(ctx, u.ID, map[string]any{"role": models.RoleAdministrator},
			zap.String("role", string(models.RoleAdministrator)))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrapf(err, "load user %q", in.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u = &User{
		Email:        in.Email,
		PasswordHash: string(hashed),
		Name:         in.Name,
		Role:         models.RoleAdministrator,
		Active:       true,
	}
	if err = s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, errors.Wrap(err, "create administrator")
	}

	s.logger.Info("administrator created", zap.Int64("uid", u.ID), zap.String("email", u.Email))
	return u, nil
}
