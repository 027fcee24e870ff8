package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return selectOne[model.User](ctx, r, qb.Select("u.id", "u.email", "u.password_hash", "u.name", "u.role", "u.created_at", "m.id AS member_id").
		From(usersTableName+" u").
		LeftJoin(fmt.Sprintf("%s m ON m.user_id = u.id", membersTableName)).
		Where(sq.Expr("lower(u.email) = ?", strings.ToLower(email))))
}

func (r *repository) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.exec(ctx, qb.Insert(usersTableName).
		Columns("id", "email", "password_hash", "name", "role", "created_at").
		Values(user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.CreatedAt))
	return err
}

func (r *repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, qb.Delete(usersTableName).Where(sq.Eq{"id": id}))
}
