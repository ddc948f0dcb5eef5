package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleViewer}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))

	return role, role.IsValid()
}

type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PassHash        string     `json:"-"`
	Role            Role       `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	RememberToken   *string    `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// * IsVerified проверяет, подтверждена ли почта пользователя
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

type AccessToken struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Caller is the authenticated identity of a single request.
type Caller struct {
	User    User
	TokenID int64
}

type PasswordReset struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
}

// * IsExpired проверяет, истек ли срок действия запроса на сброс
func (p *PasswordReset) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.After(p.CreatedAt.Add(ttl))
}

const (
	PurposeEmailVerification = "email_verification"
	PurposeEmailVerified     = "email_verified"
	PurposePasswordReset     = "password_reset"
	PurposePasswordChanged   = "password_changed"
)

type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Link    string `json:"link,omitempty"`
	Purpose string `json:"purpose"`
}

type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear int       `json:"published_year"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookPatch holds the fields of a partial book update.
type BookPatch struct {
	Title         *string
	Author        *string
	PublishedYear *int
	Description   *string
}

type BookFilter struct {
	Search        string
	PublishedYear *int
	Desc          bool
	Page          int
	PerPage       int
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// NormalizePage clamps pagination parameters to their allowed range.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}

	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}

	return page, perPage
}

// NewPageMeta считает номер последней страницы.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	lastPage := 0
	if perPage > 0 {
		lastPage = int(total / int64(perPage))
		if total%int64(perPage) != 0 {
			lastPage++
		}
	}

	return PageMeta{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}

// NormalizeEmail приводит email к каноническому виду.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
