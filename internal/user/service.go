package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/notification"
	"campus-portal/internal/validate"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	issuer = "campus-portal"

	// DefaultAdminPassword is accepted when no admin hash is configured.
	DefaultAdminPassword = "admin123"
)

var hashCost = bcrypt.DefaultCost

type Store interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SearchUsers(ctx context.Context, q string) ([]User, error)
	Update(ctx context.Context, u *User) (*User, error)
	SetPassword(ctx context.Context, id, hash string) (bool, error)
	MarkNotified(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notification.Item) (*notification.Item, error)
}

// AdminAccount is the single configured administrator.
type AdminAccount struct {
	Email        string
	PasswordHash string
}

type Service struct {
	repo      Store
	jwtSecret string
	tokenTTL  time.Duration
	admin     AdminAccount
	feed      changefeed.Publisher
	notifier  Notifier
}

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(repo Store, secret string, ttl time.Duration, admin AdminAccount, feed changefeed.Publisher, notifier Notifier) (*Service, error) {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.PasswordHash == "" {
		log.Println("Warning: ADMIN_PASSWORD_HASH not set, using the default admin password")
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), hashCost)
		if err != nil {
			return nil, err
		}
		admin.PasswordHash = string(hash)
	}
	return &Service{
		repo:      repo,
		jwtSecret: secret,
		tokenTTL:  ttl,
		admin:     admin,
		feed:      feed,
		notifier:  notifier,
	}, nil
}

// Login signs a student in. An unknown institutional address is registered
// on the spot, and an account without a password adopts the one given.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		u, err = s.register(ctx, &User{Name: nameFromEmail(req.Email), Email: req.Email}, req.Password)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if u.Status != StatusActive {
			return nil, ErrInactive
		}
		if err := s.checkPassword(ctx, u, req.Password); err != nil {
			return nil, err
		}
	}

	return s.issue(u.Email, u.Name, RoleStudent)
}

func (s *Service) AdminLogin(_ context.Context, req *AdminLoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Email != s.admin.Email {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(s.admin.Email, "Administrator", RoleAdmin)
}

func (s *Service) ValidateToken(tokenString string) (string, string, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))

	if err != nil {
		return "", "", "", err
	}
	if !token.Valid {
		return "", "", "", ErrInvalidCredentials
	}
	return claims.Subject, claims.Name, claims.Role, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) SearchUsers(ctx context.Context, q string) ([]User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.repo.List(ctx)
	}
	return s.repo.SearchUsers(ctx, q)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create adds a student from the admin console. The student sets a password
// on first login.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, validate.NewError(validate.FieldError{Field: "email", Error: "a student with this email already exists"})
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.register(ctx, &User{Name: req.Name, Email: req.Email, Course: strings.TrimSpace(req.Course)}, "")
}

func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.repo.Update(ctx, &User{ID: id, Name: req.Name, Course: strings.TrimSpace(req.Course), Status: Status(req.Status)})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, u.ID, changefeed.OpUpdated)
	return u, nil
}

// Seed adds the sample students when there are none. They are marked as
// already announced to the admin.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, sample := range initialUsers {
		u := sample
		u.ID = uuid.NewString()
		if _, err := s.repo.CreateUser(ctx, &u); err != nil {
			return err
		}
	}
	s.publish(ctx, "seed", changefeed.OpCreated)
	log.Println("Seeded initial users.")
	return nil
}

func (s *Service) register(ctx context.Context, u *User, password string) (*User, error) {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
		if err != nil {
			return nil, err
		}
		u.Password = string(hash)
	}
	u.ID = uuid.NewString()
	u.Status = StatusActive
	u.Notified = false

	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, u.ID, changefeed.OpCreated)
	s.announce(ctx, u)
	return u, nil
}

// announce tells the admin about a new registration, once.
func (s *Service) announce(ctx context.Context, u *User) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, notification.Item{
		Audience:    notification.AudienceAdmin,
		Type:        notification.TypeRegistration,
		Title:       "New Student Registration",
		Source:      "Registration",
		Description: fmt.Sprintf("%s has registered an account.", u.Name),
		CTALink:     "/admin/users",
		CTAText:     "View Users",
	})
	if err != nil {
		log.Printf("user: notify registration %s: %v", u.Email, err)
		return
	}
	if err := s.repo.MarkNotified(ctx, u.ID); err != nil {
		log.Printf("user: mark notified %s: %v", u.Email, err)
		return
	}
	u.Notified = true
}

func (s *Service) checkPassword(ctx context.Context, u *User, password string) error {
	if u.Password == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
		if err != nil {
			return err
		}
		claimed, err := s.repo.SetPassword(ctx, u.ID, string(hash))
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
		// Someone else set it first.
		if u, err = s.repo.GetByEmail(ctx, u.Email); err != nil {
			return err
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) issue(subject, name, role string) (*LoginResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		Role:        role,
		Name:        name,
		Email:       subject,
	}, nil
}

func (s *Service) publish(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, changefeed.Users, id, op); err != nil {
		log.Printf("user: publish %s: %v", id, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail guesses a display name: "maria.clara@..." -> "Maria Clara".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}

var initialUsers = []User{
	{Name: "Juan Dela Cruz", Email: "juan.delacruz@nbsc.edu.ph", Course: "BS in Information Technology", Status: StatusActive, Notified: true},
	{Name: "Maria Clara", Email: "maria.clara@nbsc.edu.ph", Course: "BS in Business Administration", Status: StatusActive, Notified: true},
	{Name: "Jose Rizal", Email: "jose.rizal@nbsc.edu.ph", Course: "BS in Education", Status: StatusInactive, Notified: true},
}
