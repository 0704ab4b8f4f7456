package main

import "time"

// Role is the single-valued role assigned to every user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// SocialProvider identifies how an account was created.
type SocialProvider string

const (
	ProviderLocal    SocialProvider = "local"
	ProviderGoogle   SocialProvider = "google"
	ProviderFacebook SocialProvider = "facebook"
)

// User represents an authenticatable identity. Username and Email are
// globally unique; Password holds a bcrypt hash (random and unguessable
// for social-login accounts).
type User struct {
	ID           int64
	Username     string
	Email        string
	Password     string
	FullName     string
	Bio          string
	ProfileImage string
	Provider     SocialProvider
	ProviderID   string
	Role         Role
	LastActive   time.Time
	CreatedAt    time.Time
}

// BlogStatus is the publication state of a blog post.
type BlogStatus string

const (
	BlogDraft     BlogStatus = "DRAFT"
	BlogPublished BlogStatus = "PUBLISHED"
)

// BlogPost is a user-owned post; Views is only incremented through the
// view tracker.
type BlogPost struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	ImageURL  string
	Status    BlogStatus
	Views     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BucketStatus is the lifecycle state of a bucket list.
type BucketStatus string

const (
	BucketActive    BucketStatus = "ACTIVE"
	BucketCompleted BucketStatus = "COMPLETED"
)

// BucketList is a user-owned list of things to do.
type BucketList struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Status      BucketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PasswordResetToken is a single-use, short-lived token mailed to a user.
type PasswordResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
