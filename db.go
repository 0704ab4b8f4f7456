package main

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// DB interface for database operations. Lookups return (nil, nil) when no
// row matches; callers translate that into their own not-found errors.
type DB interface {
	Init() error
	// User operations
	CreateUser(u *User) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id int64) (*User, error)
	UpdateUser(u *User) error
	// Blog operations
	CreateBlogPost(p *BlogPost) (*BlogPost, error)
	GetBlogPost(id int64) (*BlogPost, error)
	ListBlogPosts(status BlogStatus, limit, offset int) ([]*BlogPost, error)
	UpdateBlogPost(p *BlogPost) error
	DeleteBlogPost(id int64) error
	IncrementBlogViews(id int64) error
	// Bucket list operations
	CreateBucketList(b *BucketList) (*BucketList, error)
	GetBucketList(id int64) (*BucketList, error)
	ListBucketListsByUser(userID int64) ([]*BucketList, error)
	UpdateBucketList(b *BucketList) error
	DeleteBucketList(id int64) error
	// Password reset operations
	CreatePasswordResetToken(t *PasswordResetToken) error
	GetPasswordResetToken(token string) (*PasswordResetToken, error)
	MarkResetTokenUsed(token string) error
	DeleteResetTokensForUser(userID int64) error
}

// Memory DB
type MemDB struct {
	mu          sync.RWMutex
	users       map[int64]*User
	blogs       map[int64]*BlogPost
	buckets     map[int64]*BucketList
	resetTokens map[string]*PasswordResetToken
	seq         int64
}

func NewMemoryDB() *MemDB {
	return &MemDB{
		users:       map[int64]*User{},
		blogs:       map[int64]*BlogPost{},
		buckets:     map[int64]*BucketList{},
		resetTokens: map[string]*PasswordResetToken{},
		seq:         1,
	}
}

func (m *MemDB) Init() error { return nil }

func (m *MemDB) nextID() int64 {
	id := m.seq
	m.seq++
	return id
}

func (m *MemDB) CreateUser(u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, errors.New("exists")
		}
	}
	cp := *u
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemDB) GetUserByUsername(username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemDB) GetUserByEmail(email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemDB) GetUserByID(id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) UpdateUser(u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return errors.New("not found")
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemDB) CreateBlogPost(p *BlogPost) (*BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.blogs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemDB) GetBlogPost(id int64) (*BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.blogs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) ListBlogPosts(status BlogStatus, limit, offset int) ([]*BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*BlogPost
	// newest first
	for id := m.seq; id > 0; id-- {
		p, ok := m.blogs[id]
		if !ok {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemDB) UpdateBlogPost(p *BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.blogs[p.ID]
	if !ok {
		return errors.New("not found")
	}
	cp := *p
	cp.CreatedAt = existing.CreatedAt
	cp.Views = existing.Views
	cp.UpdatedAt = time.Now()
	m.blogs[p.ID] = &cp
	return nil
}

func (m *MemDB) DeleteBlogPost(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blogs, id)
	return nil
}

func (m *MemDB) IncrementBlogViews(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.blogs[id]; ok {
		p.Views++
	}
	return nil
}

func (m *MemDB) CreateBucketList(b *BucketList) (*BucketList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.buckets[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemDB) GetBucketList(id int64) (*BucketList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.buckets[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) ListBucketListsByUser(userID int64) ([]*BucketList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*BucketList
	for id := int64(1); id < m.seq; id++ {
		b, ok := m.buckets[id]
		if !ok || b.UserID != userID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemDB) UpdateBucketList(b *BucketList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.buckets[b.ID]
	if !ok {
		return errors.New("not found")
	}
	cp := *b
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.buckets[b.ID] = &cp
	return nil
}

func (m *MemDB) DeleteBucketList(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, id)
	return nil
}

func (m *MemDB) CreatePasswordResetToken(t *PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = time.Now()
	m.resetTokens[cp.Token] = &cp
	return nil
}

func (m *MemDB) GetPasswordResetToken(token string) (*PasswordResetToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.resetTokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) MarkResetTokenUsed(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.resetTokens[token]; ok {
		t.Used = true
	}
	return nil
}

func (m *MemDB) DeleteResetTokensForUser(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, t := range m.resetTokens {
		if t.UserID == userID {
			delete(m.resetTokens, token)
		}
	}
	return nil
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			full_name TEXT DEFAULT '',
			bio TEXT DEFAULT '',
			profile_image TEXT DEFAULT '',
			provider TEXT NOT NULL DEFAULT 'local',
			provider_id TEXT DEFAULT '',
			role TEXT NOT NULL DEFAULT 'USER',
			last_active TEXT,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS blog_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			image_url TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'DRAFT',
			views INTEGER NOT NULL DEFAULT 0,
			created_at TEXT,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS bucket_lists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TEXT,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS password_reset_tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			created_at TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDB) CreateUser(u *User) (*User, error) {
	res, err := s.db.Exec(
		`INSERT INTO users(username,email,password,full_name,bio,profile_image,provider,provider_id,role,last_active,created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,datetime('now'),datetime('now'))`,
		u.Username, u.Email, u.Password, u.FullName, u.Bio, u.ProfileImage, string(u.Provider), u.ProviderID, string(u.Role))
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	out := *u
	out.ID = id
	return &out, nil
}

const sqliteUserColumns = `id,username,email,password,full_name,bio,profile_image,provider,provider_id,role`

func (s *SQLiteDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	var provider, role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName, &u.Bio, &u.ProfileImage, &provider, &u.ProviderID, &role); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.Provider = SocialProvider(provider)
	u.Role = Role(role)
	return &u, nil
}

func (s *SQLiteDB) GetUserByUsername(username string) (*User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+sqliteUserColumns+` FROM users WHERE username = ?`, username))
}

func (s *SQLiteDB) GetUserByEmail(email string) (*User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+sqliteUserColumns+` FROM users WHERE email = ?`, email))
}

func (s *SQLiteDB) GetUserByID(id int64) (*User, error) {
	return s.scanUser(s.db.QueryRow(`SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteDB) UpdateUser(u *User) error {
	_, err := s.db.Exec(
		`UPDATE users SET email=?,password=?,full_name=?,bio=?,profile_image=?,provider=?,provider_id=?,role=?,last_active=datetime('now') WHERE id=?`,
		u.Email, u.Password, u.FullName, u.Bio, u.ProfileImage, string(u.Provider), u.ProviderID, string(u.Role), u.ID)
	return err
}

func (s *SQLiteDB) CreateBlogPost(p *BlogPost) (*BlogPost, error) {
	res, err := s.db.Exec(
		`INSERT INTO blog_posts(user_id,title,content,image_url,status,views,created_at,updated_at)
		 VALUES(?,?,?,?,?,0,datetime('now'),datetime('now'))`,
		p.UserID, p.Title, p.Content, p.ImageURL, string(p.Status))
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	out := *p
	out.ID = id
	return &out, nil
}

func (s *SQLiteDB) scanBlogPost(row *sql.Row) (*BlogPost, error) {
	var p BlogPost
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &status, &p.Views); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.Status = BlogStatus(status)
	return &p, nil
}

func (s *SQLiteDB) GetBlogPost(id int64) (*BlogPost, error) {
	return s.scanBlogPost(s.db.QueryRow(`SELECT id,user_id,title,content,image_url,status,views FROM blog_posts WHERE id = ?`, id))
}

func (s *SQLiteDB) ListBlogPosts(status BlogStatus, limit, offset int) ([]*BlogPost, error) {
	query := `SELECT id,user_id,title,content,image_url,status,views FROM blog_posts`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*BlogPost
	for rows.Next() {
		var p BlogPost
		var st string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &st, &p.Views); err != nil {
			return nil, err
		}
		p.Status = BlogStatus(st)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) UpdateBlogPost(p *BlogPost) error {
	_, err := s.db.Exec(
		`UPDATE blog_posts SET title=?,content=?,image_url=?,status=?,updated_at=datetime('now') WHERE id=?`,
		p.Title, p.Content, p.ImageURL, string(p.Status), p.ID)
	return err
}

func (s *SQLiteDB) DeleteBlogPost(id int64) error {
	_, err := s.db.Exec(`DELETE FROM blog_posts WHERE id = ?`, id)
	return err
}

func (s *SQLiteDB) IncrementBlogViews(id int64) error {
	_, err := s.db.Exec(`UPDATE blog_posts SET views = views + 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteDB) CreateBucketList(b *BucketList) (*BucketList, error) {
	res, err := s.db.Exec(
		`INSERT INTO bucket_lists(user_id,name,description,status,created_at,updated_at)
		 VALUES(?,?,?,?,datetime('now'),datetime('now'))`,
		b.UserID, b.Name, b.Description, string(b.Status))
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	out := *b
	out.ID = id
	return &out, nil
}

func (s *SQLiteDB) GetBucketList(id int64) (*BucketList, error) {
	row := s.db.QueryRow(`SELECT id,user_id,name,description,status FROM bucket_lists WHERE id = ?`, id)
	var b BucketList
	var status string
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.Status = BucketStatus(status)
	return &b, nil
}

func (s *SQLiteDB) ListBucketListsByUser(userID int64) ([]*BucketList, error) {
	rows, err := s.db.Query(`SELECT id,user_id,name,description,status FROM bucket_lists WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*BucketList
	for rows.Next() {
		var b BucketList
		var status string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &status); err != nil {
			return nil, err
		}
		b.Status = BucketStatus(status)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) UpdateBucketList(b *BucketList) error {
	_, err := s.db.Exec(
		`UPDATE bucket_lists SET name=?,description=?,status=?,updated_at=datetime('now') WHERE id=?`,
		b.Name, b.Description, string(b.Status), b.ID)
	return err
}

func (s *SQLiteDB) DeleteBucketList(id int64) error {
	_, err := s.db.Exec(`DELETE FROM bucket_lists WHERE id = ?`, id)
	return err
}

func (s *SQLiteDB) CreatePasswordResetToken(t *PasswordResetToken) error {
	_, err := s.db.Exec(
		`INSERT INTO password_reset_tokens(token,user_id,expires_at,used,created_at) VALUES(?,?,?,0,datetime('now'))`,
		t.Token, t.UserID, t.ExpiresAt.Unix())
	return err
}

func (s *SQLiteDB) GetPasswordResetToken(token string) (*PasswordResetToken, error) {
	row := s.db.QueryRow(`SELECT token,user_id,expires_at,used FROM password_reset_tokens WHERE token = ?`, token)
	var t PasswordResetToken
	var expires int64
	var used int
	if err := row.Scan(&t.Token, &t.UserID, &expires, &used); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.ExpiresAt = time.Unix(expires, 0)
	t.Used = used != 0
	return &t, nil
}

func (s *SQLiteDB) MarkResetTokenUsed(token string) error {
	_, err := s.db.Exec(`UPDATE password_reset_tokens SET used = 1 WHERE token = ?`, token)
	return err
}

func (s *SQLiteDB) DeleteResetTokensForUser(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM password_reset_tokens WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }
