package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

// MinPasswordLength applies to registration, reset and password change.
const MinPasswordLength = 6

// ResetCodeMessage carries a freshly issued code to the delivery collaborator.
type ResetCodeMessage struct {
	Email     string
	Nickname  string
	Code      string
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// ResetCodeNotifier delivers reset codes out of band (mail queue, direct send, log).
type ResetCodeNotifier interface {
	NotifyResetCode(ctx context.Context, msg ResetCodeMessage) error
}

// IdentityResolver turns a federated sign-in callback into an identity.
type IdentityResolver interface {
	AuthCodeURL(state string) string
	Resolve(ctx context.Context, code string) (entity.ExternalIdentity, error)
}

// RequestMeta describes the caller of a session-creating request.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type OneTimeCode struct {
	Code      string
	ExpiresAt time.Time
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	Account   entity.AccountSummary `json:"user"`
}

// ProfileInput holds optional profile fields; nil means leave unchanged.
type ProfileInput struct {
	Nickname         *string
	Gender           *entity.Gender
	IsAdultConfirmed *bool
}

type AccountService struct {
	Repo         repo.AccountRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Notifier     ResetCodeNotifier
	Logger       *logrus.Logger
	ResetCodeTTL time.Duration

	now func() time.Time
}

func NewAccountService(repo repo.AccountRepository, jwt *helpers.JWTManager, rdb *redis.Client, notifier ResetCodeNotifier, logger *logrus.Logger, resetCodeTTL time.Duration) *AccountService {
	if resetCodeTTL <= 0 {
		resetCodeTTL = 5 * time.Minute
	}
	return &AccountService{
		Repo:         repo,
		JWT:          jwt,
		Redis:        rdb,
		Notifier:     notifier,
		Logger:       logger,
		ResetCodeTTL: resetCodeTTL,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for reset-code expiry.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return errs.Validation("password must be minimum 6 characters")
	}
	if len(p) > helpers.MaxPasswordBytes {
		return errs.Validation("password must be at most 72 bytes")
	}
	return nil
}

func hashPassword(p string) (string, error) {
	h, err := helpers.HashPassword(p)
	if err != nil {
		return "", errs.Dependency("hash password", err)
	}
	return h, nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnCompare spends one bcrypt comparison so unknown emails cost the same as wrong passwords.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = helpers.HashPassword("not-a-real-password")
	})
	_ = helpers.CompareHashAndPassword(dummyHash, password)
}

func (s *AccountService) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", errs.Validation("all fields required")
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	a := &entity.Account{Email: email, PasswordHash: hash, Role: entity.RoleUser}
	if err := s.Repo.Create(ctx, a); err != nil {
		return "", err
	}
	s.log().WithField("account_id", a.ID).Info("account registered")
	return a.ID, nil
}

// VerifyCredentials fails with errs.ErrInvalidCredentials for both unknown emails and wrong passwords.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*entity.Account, error) {
	a, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errs.IsKind(err, errs.KindNotFound) {
		burnCompare(password)
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, errs.ErrInvalidCredentials
	}
	return a, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string, meta RequestMeta) (*Session, error) {
	a, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, a.ID, meta)
}

// startSession marks the account logged in, mints a token and records the session in Redis.
func (s *AccountService) startSession(ctx context.Context, accountID string, meta RequestMeta) (*Session, error) {
	a, err := s.Repo.MutateByID(ctx, accountID, func(a *entity.Account) error {
		a.IsLoggedIn = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	token, exp, err := s.JWT.Issue(a.ID)
	if err != nil {
		s.log().WithError(err).WithField("account_id", a.ID).Error("issue session token failed")
		return nil, errs.Dependency("issue session token", err)
	}
	s.recordSession(ctx, a, exp, meta)
	return &Session{Token: token, ExpiresAt: exp, Account: a.Summary()}, nil
}

func (s *AccountService) recordSession(ctx context.Context, a *entity.Account, exp time.Time, meta RequestMeta) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(a.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    a.ID,
		"email":      a.Email,
		"role":       string(a.Role),
		"ip":         meta.IP,
		"user_agent": meta.UserAgent,
		"logged_in":  true,
		"created_at": s.now().UTC().Format(time.RFC3339Nano),
	})
	pipe.ExpireAt(ctx, key, exp)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log().WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *AccountService) dropSession(ctx context.Context, accountID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, helpers.SessionKey(accountID)); err != nil {
		s.log().WithError(err).WithField("account_id", accountID).Warn("drop session record failed")
	}
}

// Logout clears the logged-in flag of the account behind a verified session.
// Unknown accounts succeed silently.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	_, err := s.Repo.MutateByID(ctx, accountID, func(a *entity.Account) error {
		a.IsLoggedIn = false
		return nil
	})
	if errs.IsKind(err, errs.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.dropSession(ctx, accountID)
	return nil
}

// IssueResetCode replaces any outstanding code for email with a new one.
func (s *AccountService) IssueResetCode(ctx context.Context, email string) (OneTimeCode, error) {
	code, _, err := s.issueResetCode(ctx, email)
	return code, err
}

func (s *AccountService) issueResetCode(ctx context.Context, email string) (OneTimeCode, *entity.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return OneTimeCode{}, nil, errs.Validation("email required")
	}
	code, err := helpers.GenOTPCode()
	if err != nil {
		return OneTimeCode{}, nil, errs.Dependency("generate otp", err)
	}
	hash, err := helpers.HashPassword(code)
	if err != nil {
		return OneTimeCode{}, nil, errs.Dependency("hash otp", err)
	}
	exp := s.now().Add(s.ResetCodeTTL)
	a, err := s.Repo.MutateByEmail(ctx, email, func(a *entity.Account) error {
		a.ResetCodeHash = hash
		a.ResetCodeExpiresAt = &exp
		return nil
	})
	if errs.IsKind(err, errs.KindNotFound) {
		return OneTimeCode{}, nil, errs.NotFound("email not registered")
	}
	if err != nil {
		return OneTimeCode{}, nil, err
	}
	return OneTimeCode{Code: code, ExpiresAt: exp}, a, nil
}

// SendResetCode issues a code and hands it to the notifier.
func (s *AccountService) SendResetCode(ctx context.Context, email string, meta RequestMeta) error {
	code, a, err := s.issueResetCode(ctx, email)
	if err != nil {
		return err
	}
	if s.Notifier == nil {
		return errs.Dependency("send otp", errNoNotifier)
	}
	msg := ResetCodeMessage{
		Email:     a.Email,
		Nickname:  a.Nickname,
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.Notifier.NotifyResetCode(ctx, msg); err != nil {
		s.log().WithError(err).WithField("account_id", a.ID).Error("dispatch reset code failed")
		return errs.Dependency("send otp", err)
	}
	return nil
}

// ConsumeResetCode sets a new password when code matches the live code for email.
// Unknown email, missing, wrong and expired codes are indistinguishable.
func (s *AccountService) ConsumeResetCode(ctx context.Context, email, code, newPassword string) error {
	a, err := s.Repo.MutateByEmail(ctx, strings.TrimSpace(email), func(a *entity.Account) error {
		if !a.HasLiveResetCode(s.now()) || !helpers.CompareHashAndPassword(a.ResetCodeHash, code) {
			return errs.ErrInvalidOrExpiredCode
		}
		if err := validatePassword(newPassword); err != nil {
			return err
		}
		hash, err := hashPassword(newPassword)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		a.ClearResetCode()
		a.IsLoggedIn = false
		return nil
	})
	if errs.IsKind(err, errs.KindNotFound) {
		return errs.ErrInvalidOrExpiredCode
	}
	if err != nil {
		return err
	}
	s.dropSession(ctx, a.ID)
	s.log().WithField("account_id", a.ID).Info("password reset")
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	_, err := s.Repo.MutateByID(ctx, accountID, func(a *entity.Account) error {
		if !helpers.CompareHashAndPassword(a.PasswordHash, oldPassword) {
			return errs.ErrInvalidCredentials
		}
		if err := validatePassword(newPassword); err != nil {
			return err
		}
		hash, err := hashPassword(newPassword)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		return nil
	})
	return err
}

func (s *AccountService) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.Repo.Delete(ctx, accountID); err != nil {
		return err
	}
	s.dropSession(ctx, accountID)
	s.log().WithField("account_id", accountID).Info("account deleted")
	return nil
}

func (s *AccountService) Profile(ctx context.Context, accountID string) (*entity.Account, error) {
	return s.Repo.GetByID(ctx, accountID)
}

// CompleteProfile updates only the fields present in in.
func (s *AccountService) CompleteProfile(ctx context.Context, accountID string, in ProfileInput) (*entity.Account, error) {
	if in.Gender != nil && !in.Gender.Valid() {
		return nil, errs.Validation("gender must be Male or Female")
	}
	return s.Repo.MutateByID(ctx, accountID, func(a *entity.Account) error {
		if in.Nickname != nil {
			a.Nickname = strings.TrimSpace(*in.Nickname)
		}
		if in.Gender != nil {
			a.Gender = *in.Gender
		}
		if in.IsAdultConfirmed != nil {
			a.IsAdultConfirmed = *in.IsAdultConfirmed
		}
		return nil
	})
}

// FindOrCreateByEmail returns the account for identity.Email, creating one with
// an unusable password when none exists. created reports which happened.
func (s *AccountService) FindOrCreateByEmail(ctx context.Context, identity entity.ExternalIdentity) (*entity.Account, bool, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, false, errs.Validation("identity has no email")
	}
	a, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return a, false, nil
	}
	if !errs.IsKind(err, errs.KindNotFound) {
		return nil, false, err
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, false, errs.Dependency("generate password", err)
	}
	hash, err := hashPassword(secret)
	if err != nil {
		return nil, false, err
	}
	a = &entity.Account{
		Email:        email,
		PasswordHash: hash,
		Nickname:     strings.TrimSpace(identity.DisplayName),
		Role:         entity.RoleUser,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if errs.IsKind(err, errs.KindConflict) {
			// another sign-in created it first
			existing, gerr := s.Repo.GetByEmail(ctx, email)
			return existing, false, gerr
		}
		return nil, false, err
	}
	s.log().WithFields(logrus.Fields{"account_id": a.ID, "provider": identity.Provider}).Info("account created from identity")
	return a, true, nil
}

// LoginWithIdentity signs in the account behind identity, creating it on first use.
func (s *AccountService) LoginWithIdentity(ctx context.Context, identity entity.ExternalIdentity, meta RequestMeta) (*Session, error) {
	a, _, err := s.FindOrCreateByEmail(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, a.ID, meta)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// bcrypt only reads 72 bytes; 43 base64 characters stay under that
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *AccountService) log() logrus.FieldLogger { return loggerOrNop(s.Logger) }
