package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

const overdueScanBatch = 100

// ScanOverdue emits loan.overdue once for every loan that passed its due date and stamps it.
// The loan status is left as is.
func (s *Service) ScanOverdue(ctx context.Context) (int, error) {
	now := s.now()
	loans, err := s.repo.PendingOverdueNotices(ctx, now, overdueScanBatch)
	if err != nil {
		return 0, err
	}
	var n int
	for _, l := range loans {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := s.repo.MarkOverdueNotified(ctx, l.ID, now); err != nil {
			s.log.Warn("mark overdue", zap.String("loan", l.ID.String()), zap.Error(err))
			continue
		}
		s.emit(ctx, model.Event{
			Type:     model.EventLoanOverdue,
			BookID:   model.Ref(l.BookID),
			MemberID: model.Ref(l.MemberID),
			LoanID:   model.Ref(l.ID),
			Message: fmt.Sprintf("%q borrowed by %s is %d day(s) overdue",
				l.BookTitle, l.MemberName, l.DaysOverdue(now)),
		})
		n++
	}
	if n > 0 {
		s.log.Info("overdue scan", zap.Int("notified", n))
	}
	return n, nil
}
