package mysql

import (
	"context"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Email, u.Name, string(u.Role), u.PasswordHash, u.Active, u.CreatedAt)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanUser(s rowScanner) (domain.User, error) {
	var u domain.User
	var role string
	err := s.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.Active, &u.CreatedAt)
	u.Role = domain.Role(role)
	return u, notFound(err)
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}
