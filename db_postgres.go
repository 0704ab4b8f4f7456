package main

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	if err := p.db.Ping(); err != nil {
		return err
	}
	return nil
}

func (p *PostgresDB) CreateUser(u *User) (*User, error) {
	var id int64
	err := p.db.QueryRow(
		`INSERT INTO users(username,email,password,full_name,bio,profile_image,provider,provider_id,role,last_active,created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now()) RETURNING id`,
		u.Username, u.Email, u.Password, u.FullName, u.Bio, u.ProfileImage, string(u.Provider), u.ProviderID, string(u.Role)).Scan(&id)
	if err != nil {
		// unique violation included
		return nil, err
	}
	out := *u
	out.ID = id
	return &out, nil
}

const pgUserColumns = `id,username,email,password,full_name,bio,profile_image,provider,provider_id,role`

func (p *PostgresDB) scanUser(row *sql.Row) (*User, error) {
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

func (p *PostgresDB) GetUserByUsername(username string) (*User, error) {
	return p.scanUser(p.db.QueryRow(`SELECT `+pgUserColumns+` FROM users WHERE username = $1`, username))
}

func (p *PostgresDB) GetUserByEmail(email string) (*User, error) {
	return p.scanUser(p.db.QueryRow(`SELECT `+pgUserColumns+` FROM users WHERE email = $1`, email))
}

func (p *PostgresDB) GetUserByID(id int64) (*User, error) {
	return p.scanUser(p.db.QueryRow(`SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id))
}

func (p *PostgresDB) UpdateUser(u *User) error {
	res, err := p.db.Exec(
		`UPDATE users SET email=$1,password=$2,full_name=$3,bio=$4,profile_image=$5,provider=$6,provider_id=$7,role=$8,last_active=now() WHERE id=$9`,
		u.Email, u.Password, u.FullName, u.Bio, u.ProfileImage, string(u.Provider), u.ProviderID, string(u.Role), u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("not found")
	}
	return nil
}

func (p *PostgresDB) CreateBlogPost(b *BlogPost) (*BlogPost, error) {
	var id int64
	err := p.db.QueryRow(
		`INSERT INTO blog_posts(user_id,title,content,image_url,status,views,created_at,updated_at)
		 VALUES($1,$2,$3,$4,$5,0,now(),now()) RETURNING id`,
		b.UserID, b.Title, b.Content, b.ImageURL, string(b.Status)).Scan(&id)
	if err != nil {
		return nil, err
	}
	out := *b
	out.ID = id
	return &out, nil
}

func (p *PostgresDB) GetBlogPost(id int64) (*BlogPost, error) {
	row := p.db.QueryRow(`SELECT id,user_id,title,content,image_url,status,views FROM blog_posts WHERE id = $1`, id)
	var b BlogPost
	var status string
	if err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Content, &b.ImageURL, &status, &b.Views); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.Status = BlogStatus(status)
	return &b, nil
}

func (p *PostgresDB) ListBlogPosts(status BlogStatus, limit, offset int) ([]*BlogPost, error) {
	query := `SELECT id,user_id,title,content,image_url,status,views FROM blog_posts`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, string(status), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*BlogPost
	for rows.Next() {
		var b BlogPost
		var st string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Content, &b.ImageURL, &st, &b.Views); err != nil {
			return nil, err
		}
		b.Status = BlogStatus(st)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (p *PostgresDB) UpdateBlogPost(b *BlogPost) error {
	_, err := p.db.Exec(
		`UPDATE blog_posts SET title=$1,content=$2,image_url=$3,status=$4,updated_at=now() WHERE id=$5`,
		b.Title, b.Content, b.ImageURL, string(b.Status), b.ID)
	return err
}

func (p *PostgresDB) DeleteBlogPost(id int64) error {
	_, err := p.db.Exec(`DELETE FROM blog_posts WHERE id = $1`, id)
	return err
}

func (p *PostgresDB) IncrementBlogViews(id int64) error {
	_, err := p.db.Exec(`UPDATE blog_posts SET views = views + 1 WHERE id = $1`, id)
	return err
}

func (p *PostgresDB) CreateBucketList(b *BucketList) (*BucketList, error) {
	var id int64
	err := p.db.QueryRow(
		`INSERT INTO bucket_lists(user_id,name,description,status,created_at,updated_at)
		 VALUES($1,$2,$3,$4,now(),now()) RETURNING id`,
		b.UserID, b.Name, b.Description, string(b.Status)).Scan(&id)
	if err != nil {
		return nil, err
	}
	out := *b
	out.ID = id
	return &out, nil
}

func (p *PostgresDB) GetBucketList(id int64) (*BucketList, error) {
	row := p.db.QueryRow(`SELECT id,user_id,name,description,status FROM bucket_lists WHERE id = $1`, id)
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

func (p *PostgresDB) ListBucketListsByUser(userID int64) ([]*BucketList, error) {
	rows, err := p.db.Query(`SELECT id,user_id,name,description,status FROM bucket_lists WHERE user_id = $1 ORDER BY created_at DESC`, userID)
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

func (p *PostgresDB) UpdateBucketList(b *BucketList) error {
	_, err := p.db.Exec(
		`UPDATE bucket_lists SET name=$1,description=$2,status=$3,updated_at=now() WHERE id=$4`,
		b.Name, b.Description, string(b.Status), b.ID)
	return err
}

func (p *PostgresDB) DeleteBucketList(id int64) error {
	_, err := p.db.Exec(`DELETE FROM bucket_lists WHERE id = $1`, id)
	return err
}

func (p *PostgresDB) CreatePasswordResetToken(t *PasswordResetToken) error {
	_, err := p.db.Exec(
		`INSERT INTO password_reset_tokens(token,user_id,expires_at,used,created_at) VALUES($1,$2,$3,false,now())`,
		t.Token, t.UserID, t.ExpiresAt.Unix())
	return err
}

func (p *PostgresDB) GetPasswordResetToken(token string) (*PasswordResetToken, error) {
	row := p.db.QueryRow(`SELECT token,user_id,expires_at,used FROM password_reset_tokens WHERE token = $1`, token)
	var t PasswordResetToken
	var expires int64
	if err := row.Scan(&t.Token, &t.UserID, &expires, &t.Used); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.ExpiresAt = time.Unix(expires, 0)
	return &t, nil
}

func (p *PostgresDB) MarkResetTokenUsed(token string) error {
	_, err := p.db.Exec(`UPDATE password_reset_tokens SET used = true WHERE token = $1`, token)
	return err
}

func (p *PostgresDB) DeleteResetTokensForUser(userID int64) error {
	_, err := p.db.Exec(`DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	return err
}

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
