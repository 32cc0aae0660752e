package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/utils"
)

// UserRepo provides persistence for application users.  Role and
// branch live on the user row; the authorization gate re-derives both
// from here (via the JWT claims minted at login) and never from
// request payloads.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned when registration hits the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its id.  Branch may be empty for
// roles without a branch assignment; it is stored as NULL.
func (r *UserRepo) Create(ctx context.Context, email, password, role, branch string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    var br interface{}
    if branch != "" {
        br = branch
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, role, branch) VALUES (?,?,?,?)",
        email, hash, role, br)
    if err != nil {
        // 1062 is the MySQL duplicate-key error code
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.  ErrUserNotFound is
// returned when no row matches.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return r.scanOne(ctx,
        "SELECT id,email,password_hash,role,branch,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
        email)
}

// GetByID fetches a user by id.  ErrUserNotFound is returned when no
// row matches.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return r.scanOne(ctx,
        "SELECT id,email,password_hash,role,branch,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
        id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
    var (
        u      model.User
        branch sql.NullString
    )
    err := r.DB.QueryRowContext(ctx, query, arg).Scan(
        &u.ID, &u.Email, &u.PasswordHash, &u.Role, &branch, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.User{}, ErrUserNotFound
        }
        return model.User{}, err
    }
    if branch.Valid {
        b := branch.String
        u.Branch = &b
    }
    return u, nil
}
