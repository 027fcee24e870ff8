package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

var memberColumns = []string{
	"m.id", "m.name", "m.email", "m.phone", "m.address", "m.date_of_birth",
	"m.card_number", "m.membership_date", "m.is_active", "m.user_id",
}

func (r *repository) ListMembers(ctx context.Context, search string) ([]model.MemberSummary, error) {
	q := qb.Select(memberColumns...).
		Column(`(SELECT count(*) FROM borrowings l WHERE l.member_id = m.id AND l.status = 'Borrowed') AS active_loans`).
		From(membersTableName + " m").
		OrderBy("m.name")
	if search != "" {
		p := likePattern(search)
		q = q.Where(sq.Or{
			sq.ILike{"m.name": p},
			sq.ILike{"m.email": p},
			sq.ILike{"m.card_number": p},
		})
	}
	return selectAll[model.MemberSummary](ctx, r, q)
}

func (r *repository) GetMember(ctx context.Context, id uuid.UUID) (model.Member, error) {
	return selectOne[model.Member](ctx, r, qb.Select(memberColumns...).
		From(membersTableName+" m").
		Where(sq.Eq{"m.id": id}))
}

func (r *repository) CreateMember(ctx context.Context, m model.Member) error {
	_, err := r.exec(ctx, qb.Insert(membersTableName).
		Columns("id", "name", "email", "phone", "address", "date_of_birth", "card_number", "membership_date", "is_active", "user_id").
		Values(m.ID, m.Name, m.Email, m.Phone, m.Address, m.DateOfBirth, m.CardNumber, m.MembershipDate, m.IsActive, m.UserID))
	return err
}

func (r *repository) UpdateMember(ctx context.Context, m model.Member) error {
	return r.execOne(ctx, qb.Update(membersTableName).
		Set("name", m.Name).
		Set("email", m.Email).
		Set("phone", m.Phone).
		Set("address", m.Address).
		Set("date_of_birth", m.DateOfBirth).
		Set("card_number", m.CardNumber).
		Set("is_active", m.IsActive).
		Where(sq.Eq{"id": m.ID}))
}

func (r *repository) SetMemberActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.execOne(ctx, qb.Update(membersTableName).
		Set("is_active", active).
		Where(sq.Eq{"id": id}))
}

func (r *repository) DeleteMember(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, qb.Delete(membersTableName).Where(sq.Eq{"id": id}))
}

func (r *repository) LinkMemberUser(ctx context.Context, memberID, userID uuid.UUID) error {
	return r.execOne(ctx, qb.Update(membersTableName).
		Set("user_id", userID).
		Where(sq.Eq{"id": memberID}))
}
