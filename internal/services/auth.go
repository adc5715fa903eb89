package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	registrationCounter metric.Int64Counter
	loginCounter        metric.Int64Counter
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is disabled")
)

const minPasswordLength = 6

type AuthService struct {
	jwtSecret    string
	jwtExpiresIn time.Duration
	now          func() time.Time
}

func NewAuthService(jwtSecret string, jwtExpiresIn time.Duration) *AuthService {
	var err error
	registrationCounter, err = meter.Int64Counter(
		"auth.registration.total",
		metric.WithDescription("Total number of user registrations"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create registration counter")
	}

	loginCounter, err = meter.Int64Counter(
		"auth.login.attempts",
		metric.WithDescription("Total number of login attempts"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create login counter")
	}

	return &AuthService{
		jwtSecret:    jwtSecret,
		jwtExpiresIn: jwtExpiresIn,
		now:          time.Now,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (in *RegisterInput) Validate() error {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return fmt.Errorf("%w: email, password, and name are required", ErrInvalidInput)
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  models.UserResponse `json:"user"`
	Token string              `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "user.register")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.email", input.Email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         models.RoleCustomer,
		IsActive:     true,
	}

	if err := database.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			span.SetAttributes(attribute.Bool("user.exists", true))
			return nil, ErrUserExists
		}
		return nil, err
	}

	if registrationCounter != nil {
		registrationCounter.Add(ctx, 1)
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	logging.Info(ctx).
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("user registered successfully")

	return &AuthResponse{
		User:  user.ToResponse(),
		Token: token,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "user.login")
	defer span.End()

	email := normalizeEmail(input.Email)
	span.SetAttributes(attribute.String("user.email", email))

	success := false
	defer func() {
		span.SetAttributes(attribute.Bool("login.success", success))
		if loginCounter != nil {
			loginCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
		}
	}()

	var user models.User
	if err := database.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, err
	}
	success = true

	logging.Info(ctx).
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user logged in successfully")

	return &AuthResponse{
		User:  user.ToResponse(),
		Token: token,
	}, nil
}

// SeedAdmin makes sure an active admin account exists for email. An existing
// account keeps its password and is promoted.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "user.seed_admin")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := database.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin && user.IsActive {
			return nil
		}
		if err := database.DB.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
			"role":      models.RoleAdmin,
			"is_active": true,
		}).Error; err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		logging.Info(ctx).Str("email", email).Msg("existing user promoted to admin")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user = models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := database.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logging.Info(ctx).Str("email", email).Msg("admin user created")
	return nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := s.now()
	claims := middleware.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
