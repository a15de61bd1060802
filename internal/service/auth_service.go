package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"parking_console/internal/config"
	"parking_console/internal/domain"
	"parking_console/internal/repository"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrTokenInvalid = errors.New("token is invalid or expired")

type AuthService struct {
	store              repository.Store
	revocations        repository.TokenRevocationRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
	now                func() time.Time
}

func NewAuthService(store repository.Store, revocations repository.TokenRevocationRepository,
	jwtSecret string, jwtExpHours time.Duration) *AuthService {
	return &AuthService{
		store:              store,
		revocations:        revocations,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
		now:                time.Now,
	}
}

func (s *AuthService) createUser(ctx context.Context, dto domain.RegisterUserDTO, role domain.Role) (*domain.User, error) {
	username := domain.NormalizeUsername(dto.Username)
	phone := strings.TrimSpace(dto.Phone)
	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must have at least 3 characters", domain.ErrInvalidInput)
	}
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	}
	if len(dto.Password) < 6 {
		return nil, fmt.Errorf("%w: password must have at least 6 characters", domain.ErrInvalidInput)
	}

	users := s.store.Users()
	if _, err := users.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrDuplicateUsername, username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := users.FindByPhone(ctx, phone); err == nil {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrDuplicatePhone, phone)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = username
	}

	created, err := users.Create(ctx, &domain.User{
		Username: username,
		Phone:    phone,
		Name:     name,
		Password: string(hashedPassword),
		Role:     role,
	})
	if err != nil {
		return nil, err
	}
	created.Password = ""
	return created, nil
}

// Register creates a self-service customer account.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	user, err := s.createUser(ctx, dto, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	log.Printf("AuthService: customer '%s' registered", user.Username)
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.Authenticate(ctx, dto.Username, dto.Password)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	expirationTime := issuedAt.Add(s.jwtExpirationHours)
	claims := jwt.MapClaims{
		"sub":      strconv.Itoa(user.ID),
		"exp":      expirationTime.Unix(),
		"iat":      issuedAt.Unix(),
		"jti":      uuid.NewString(),
		"role":     string(user.Role),
		"username": user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:     tokenString,
		ExpiresAt: expirationTime.UTC(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: malformed token", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: token expired", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, fmt.Errorf("%w: token not valid yet", ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateToken verifies the signature and expiry and rejects logged-out tokens.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (domain.Actor, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := s.revocations.IsRevoked(ctx, jti)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return domain.Actor{}, fmt.Errorf("%w: token was logged out", ErrTokenInvalid)
		}
	}
	actor, err := actorFromClaims(claims)
	if err != nil {
		return domain.Actor{}, err
	}

	// The account may have been deleted or changed since the token was issued.
	user, err := s.store.Users().FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Actor{}, fmt.Errorf("%w: account %d no longer exists", ErrTokenInvalid, actor.UserID)
		}
		return domain.Actor{}, fmt.Errorf("load token user: %w", err)
	}
	if user.Username != actor.Username || user.Role != actor.Role {
		return domain.Actor{}, fmt.Errorf("%w: account %d changed since login", ErrTokenInvalid, actor.UserID)
	}
	return actor, nil
}

func actorFromClaims(claims jwt.MapClaims) (domain.Actor, error) {
	sub, okSub := claims["sub"].(string)
	role, okRole := claims["role"].(string)
	username, okUsername := claims["username"].(string)
	if !okSub || !okRole || !okUsername {
		return domain.Actor{}, fmt.Errorf("%w: missing identity claims", ErrTokenInvalid)
	}
	id, err := strconv.Atoi(sub)
	if err != nil || !domain.Role(role).Valid() {
		return domain.Actor{}, fmt.Errorf("%w: bad identity claims", ErrTokenInvalid)
	}
	return domain.Actor{UserID: id, Username: username, Role: domain.Role(role)}, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return fmt.Errorf("%w: token has no id", ErrTokenInvalid)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("%w: token has no expiry", ErrTokenInvalid)
	}
	return s.revocations.Revoke(ctx, jti, exp.Time.Sub(s.now()))
}

// ResetPassword sets a new password when username and phone belong to the
// same account.
func (s *AuthService) ResetPassword(ctx context.Context, dto domain.ResetPasswordDTO) error {
	if len(dto.NewPassword) < 6 {
		return fmt.Errorf("%w: password must have at least 6 characters", domain.ErrInvalidInput)
	}
	user, err := s.store.Users().FindByUsername(ctx, domain.NormalizeUsername(dto.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: username and phone do not match", domain.ErrInvalidCredentials)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.Phone != strings.TrimSpace(dto.Phone) {
		return fmt.Errorf("%w: username and phone do not match", domain.ErrInvalidCredentials)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	log.Printf("AuthService: password reset for '%s'", user.Username)
	return nil
}

// --- Admin user management ---

func (s *AuthService) AddStaff(ctx context.Context, actor domain.Actor, dto domain.RegisterUserDTO) (*domain.User, error) {
	if err := requireRole(actor, "add staff", domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, dto, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	log.Printf("AuthService: staff '%s' added by %s", user.Username, actor.Username)
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error) {
	if err := requireRole(actor, "list users", domain.RoleAdmin); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role '%s'", domain.ErrInvalidInput, role)
	}
	users, err := s.store.Users().FindByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func (s *AuthService) DeleteStaff(ctx context.Context, actor domain.Actor, userID int) error {
	return s.deleteUser(ctx, actor, userID, domain.RoleStaff)
}

// DeleteUser removes a customer or staff account. Admin accounts and users
// holding a live booking are kept; booking history is never touched.
func (s *AuthService) DeleteUser(ctx context.Context, actor domain.Actor, userID int) error {
	return s.deleteUser(ctx, actor, userID, "")
}

func (s *AuthService) deleteUser(ctx context.Context, actor domain.Actor, userID int, onlyRole domain.Role) error {
	if err := requireRole(actor, "delete user", domain.RoleAdmin); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if onlyRole != "" && user.Role != onlyRole {
			return fmt.Errorf("%w: %s %d", domain.ErrNotFound, onlyRole, userID)
		}
		if user.Role == domain.RoleAdmin {
			return fmt.Errorf("%w: admin accounts cannot be deleted", domain.ErrForbidden)
		}
		if live, err := tx.Bookings().FindLiveByUser(ctx, user.Username); err == nil {
			return fmt.Errorf("%w: '%s' holds booking %d", domain.ErrUserHasLiveBooking, user.Username, live.ID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return notFound(tx.Users().Delete(ctx, userID), "user", userID)
	})
	if err != nil {
		return err
	}
	log.Printf("AuthService: user %d deleted by %s", userID, actor.Username)
	return nil
}

// EnsureBootstrapAdmin creates the configured admin when the store has none.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, acct config.AdminAccount) (bool, error) {
	admins, err := s.store.Users().CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}
	user, err := s.createUser(ctx, domain.RegisterUserDTO{
		Username: acct.Username,
		Phone:    acct.Phone,
		Name:     acct.Name,
		Password: acct.Password,
	}, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.Printf("AuthService: bootstrap admin '%s' created", user.Username)
	return true, nil
}
