package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"github.com/suteetoe/jobboard/pkg/jwtutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	msgBadCredentials = "No active account found with the given credentials"
	msgInvalidToken   = "Token is invalid or expired"
)

// AccountService registers users, issues tokens and resolves principals.
type AccountService struct {
	db      *gorm.DB
	jwt     *jwtutil.JWTUtil
	log     *zap.Logger
	metrics *metrics.Collector
	cost    int
}

func NewAccountService(db *gorm.DB, jwt *jwtutil.JWTUtil, log *zap.Logger, m *metrics.Collector) *AccountService {
	return &AccountService{db: db, jwt: jwt, log: log, metrics: m, cost: bcrypt.DefaultCost}
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	PasswordConfirm string     `json:"password_confirm"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            model.Role `json:"role"`
	CompanyName     string     `json:"company_name"`
	Phone           string     `json:"phone"`
}

// ProfileInput carries the user-editable profile fields.
type ProfileInput struct {
	FirstName   Optional[string] `json:"first_name"`
	LastName    Optional[string] `json:"last_name"`
	CompanyName Optional[string] `json:"company_name"`
	Bio         Optional[string] `json:"bio"`
	Phone       Optional[string] `json:"phone"`
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t") && strings.Contains(email[at+1:], ".")
}

func (s *AccountService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}
	return string(b), nil
}

// Register creates a job_seeker or employer account. Admin accounts cannot be self-registered.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	log := loggerFor(ctx, s.log)
	s.metrics.AuthOperation("register")

	in.Email = model.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = model.RoleJobSeeker
	}

	fe := fieldErrors{}
	switch {
	case in.Email == "":
		fe.add("email", msgRequired)
	case !validEmail(in.Email):
		fe.add("email", "Enter a valid email address.")
	}
	switch {
	case in.Password == "":
		fe.add("password", msgRequired)
	case len([]rune(in.Password)) < minPasswordLength:
		fe.add("password", minLenMessage(minPasswordLength))
	}
	if in.PasswordConfirm == "" {
		fe.add("password_confirm", msgRequired)
	}
	switch {
	case in.Role == model.RoleAdmin:
		fe.add("role", "You cannot register as an admin.")
	case !in.Role.Valid():
		fe.add("role", invalidChoice(string(in.Role)))
	}
	fe.maxLen("first_name", in.FirstName, 150)
	fe.maxLen("last_name", in.LastName, 150)
	fe.maxLen("company_name", in.CompanyName, 255)
	fe.maxLen("phone", in.Phone, 20)
	if err := fe.err(); err != nil {
		s.metrics.AuthError("invalid_request")
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		s.metrics.AuthError("password_mismatch")
		return nil, apperrors.ValidationField("password_confirm", "Passwords do not match.")
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:       in.Email,
		Password:    hashed,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Role:        in.Role,
		CompanyName: in.CompanyName,
		Phone:       in.Phone,
		IsActive:    true,
	}

	defer s.metrics.TrackDBOperation("insert")()
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		err = apperrors.MapDBError(err)
		if apperrors.IsConflict(err) {
			s.metrics.AuthError("email_taken")
			return nil, apperrors.ValidationField("email", "user with this email address already exists.")
		}
		log.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	log.Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Login checks credentials and returns an access/refresh token pair.
func (s *AccountService) Login(ctx context.Context, email, password string) (*jwtutil.TokenPair, error) {
	log := loggerFor(ctx, s.log)
	s.metrics.AuthOperation("login")

	fe := fieldErrors{}
	if strings.TrimSpace(email) == "" {
		fe.add("email", msgRequired)
	}
	if password == "" {
		fe.add("password", msgRequired)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", model.NormalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("Login for unknown user", zap.String("email", email))
			s.metrics.AuthError("user_not_found")
			return nil, apperrors.Unauthorized(msgBadCredentials)
		}
		return nil, apperrors.MapDBError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Warn("Invalid password", zap.String("email", user.Email))
		s.metrics.AuthError("invalid_password")
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}

	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		s.metrics.AuthError("token_generation_failed")
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "token error")
	}

	log.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AccountService) Refresh(ctx context.Context, refresh string) (string, error) {
	s.metrics.AuthOperation("refresh")
	if strings.TrimSpace(refresh) == "" {
		return "", apperrors.ValidationField("refresh", msgRequired)
	}

	claims, err := s.jwt.ValidateToken(refresh, jwtutil.RefreshToken)
	if err != nil {
		loggerFor(ctx, s.log).Warn("Invalid refresh token", zap.Error(err))
		s.metrics.AuthError("invalid_token")
		return "", apperrors.Unauthorized(msgInvalidToken)
	}

	p, err := s.ResolvePrincipal(ctx, claims.UserID)
	if err != nil {
		return "", err
	}

	access, err := s.jwt.GenerateToken(p.ID, claims.Email, string(p.Role))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "token error")
	}
	return access, nil
}

// ResolvePrincipal loads the user behind a token. The role comes from the
// stored row, so role changes apply to tokens already issued.
func (s *AccountService) ResolvePrincipal(ctx context.Context, userID uint) (policy.Principal, error) {
	var user model.User
	err := s.db.WithContext(ctx).Select("id", "role", "is_active").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Anonymous, apperrors.Unauthorized("User not found")
		}
		return policy.Anonymous, apperrors.MapDBError(err)
	}
	if !user.IsActive {
		return policy.Anonymous, apperrors.Unauthorized("User is inactive")
	}
	return policy.Principal{ID: user.ID, Role: user.Role}, nil
}

// Profile returns the caller's own user row.
func (s *AccountService) Profile(ctx context.Context, p policy.Principal) (*model.User, error) {
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, p.ID).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &user, nil
}

// UpdateProfile changes the caller's editable profile fields. Email, role and
// date_joined are not part of the input and never change here.
func (s *AccountService) UpdateProfile(ctx context.Context, p policy.Principal, in ProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}

	fe := fieldErrors{}
	for field, v := range map[string]Optional[string]{
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"company_name": in.CompanyName,
		"bio":          in.Bio,
		"phone":        in.Phone,
	} {
		rejectNull(fe, field, v)
	}
	fe.maxLen("first_name", in.FirstName.Value, 150)
	fe.maxLen("last_name", in.LastName.Value, 150)
	fe.maxLen("company_name", in.CompanyName.Value, 255)
	fe.maxLen("phone", in.Phone.Value, 20)
	if err := fe.err(); err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName.Or(user.FirstName)
	user.LastName = in.LastName.Or(user.LastName)
	user.CompanyName = in.CompanyName.Or(user.CompanyName)
	user.Bio = in.Bio.Or(user.Bio)
	user.Phone = in.Phone.Or(user.Phone)

	err = s.db.WithContext(ctx).Model(user).
		Select("first_name", "last_name", "company_name", "bio", "phone", "updated_at").
		Updates(user).Error
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	loggerFor(ctx, s.log).Info("Profile updated", zap.Uint("user_id", user.ID))
	return user, nil
}

// EnsureAdmin creates an admin account unless one with that email exists.
// It reports whether a new account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (*model.User, bool, error) {
	email = model.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, false, apperrors.ValidationField("email", "Enter a valid email address.")
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, false, apperrors.ValidationField("password", minLenMessage(minPasswordLength))
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.MapDBError(err)
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, false, err
	}
	admin := &model.User{
		Email:     email,
		Password:  hashed,
		FirstName: "Admin",
		LastName:  "User",
		Role:      model.RoleAdmin,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, false, apperrors.MapDBError(err)
	}

	loggerFor(ctx, s.log).Info("Admin user created", zap.String("email", admin.Email))
	return admin, true, nil
}
