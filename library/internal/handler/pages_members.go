package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

type membersView struct {
	Members []model.MemberSummary
	Search  string
}

type memberFormView struct {
	Action      string
	IsEdit      bool
	Req         model.MemberRequest
	DateOfBirth string
	IsActive    bool
	Error       string
}

type loansView struct {
	Loans  []model.LoanView
	Status model.LoanFilter
}

type loanFormView struct {
	Books    []model.BookSummary
	Members  []model.MemberSummary
	BookID   uuid.UUID
	MemberID uuid.UUID
	DueDate  string
	Error    string
}

func (h *Handler) MembersPage(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	members, err := h.svc.ListMembers(c.Request().Context(), md.IdentityFrom(c), search)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "members", "Members", membersView{Members: members, Search: search})
}

func (h *Handler) MemberPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	member, err := h.svc.GetMember(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "member", member.Name, member)
}

func memberRequestFromForm(c echo.Context, withActive bool) (model.MemberRequest, error) {
	req := model.MemberRequest{
		Name:       strings.TrimSpace(c.FormValue("name")),
		Email:      strings.TrimSpace(c.FormValue("email")),
		Phone:      strings.TrimSpace(c.FormValue("phone")),
		Address:    strings.TrimSpace(c.FormValue("address")),
		CardNumber: strings.TrimSpace(c.FormValue("cardNumber")),
		Password:   c.FormValue("password"),
	}
	if withActive {
		active := formBool(c, "isActive")
		req.IsActive = &active
	}
	var err error
	if req.DateOfBirth, err = formDate(c, "dateOfBirth"); err != nil {
		return req, err
	}
	return req, validateForm(c, &req)
}

func (h *Handler) renderMemberForm(c echo.Context, view memberFormView, cause error) error {
	code := http.StatusOK
	if cause != nil {
		if !isUserError(cause) {
			return h.pageError(c, cause)
		}
		view.Error = cause.Error()
		code = statusOf(cause)
	}
	view.Req.Password = ""
	if view.DateOfBirth == "" && view.Req.DateOfBirth != nil {
		view.DateOfBirth = view.Req.DateOfBirth.Format("2006-01-02")
	}
	view.IsActive = view.Req.IsActive == nil || *view.Req.IsActive
	title := "New member"
	if view.IsEdit {
		title = "Edit member"
	}
	return h.render(c, code, "member_form", title, view)
}

func (h *Handler) NewMemberPage(c echo.Context) error {
	return h.renderMemberForm(c, memberFormView{Action: "/members"}, nil)
}

func (h *Handler) CreateMemberForm(c echo.Context) error {
	view := memberFormView{Action: "/members"}
	req, err := memberRequestFromForm(c, false)
	view.Req = req
	if err != nil {
		return h.renderMemberForm(c, view, err)
	}
	member, err := h.svc.CreateMember(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return h.renderMemberForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), fmt.Sprintf("Member %s has been registered.", member.Name))
	return c.Redirect(http.StatusSeeOther, "/members/"+member.ID.String())
}

func (h *Handler) EditMemberPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMember(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	active := m.IsActive
	req := model.MemberRequest{
		Name:        m.Name,
		Email:       m.Email,
		DateOfBirth: m.DateOfBirth,
		IsActive:    &active,
	}
	if m.Phone != nil {
		req.Phone = *m.Phone
	}
	if m.Address != nil {
		req.Address = *m.Address
	}
	if m.CardNumber != nil {
		req.CardNumber = *m.CardNumber
	}
	return h.renderMemberForm(c, memberFormView{Action: "/members/" + id.String() + "/edit", IsEdit: true, Req: req}, nil)
}

func (h *Handler) UpdateMemberForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	view := memberFormView{Action: "/members/" + id.String() + "/edit", IsEdit: true}
	req, err := memberRequestFromForm(c, true)
	view.Req = req
	if err != nil {
		return h.renderMemberForm(c, view, err)
	}
	req.Password = ""
	if err := h.svc.UpdateMember(c.Request().Context(), md.IdentityFrom(c), id, req); err != nil {
		return h.renderMemberForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), "Member has been updated.")
	return c.Redirect(http.StatusSeeOther, "/members/"+id.String())
}

func (h *Handler) ToggleMemberForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	active, err := h.svc.ToggleMember(c.Request().Context(), md.IdentityFrom(c), id)
	msg := "Member has been deactivated."
	if active {
		msg = "Member has been activated."
	}
	return h.done(c, err, msg, "/members/"+id.String(), "/members/"+id.String())
}

func (h *Handler) DeleteMemberForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	err = h.svc.DeleteMember(c.Request().Context(), md.IdentityFrom(c), id)
	return h.done(c, err, "Member has been deleted.", "/members", "/members/"+id.String())
}

func (h *Handler) MemberHistoryPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ident := md.IdentityFrom(c)
	member, err := h.svc.GetMember(ctx, ident, id)
	if err != nil {
		return h.pageError(c, err)
	}
	loans, err := h.svc.MemberLoans(ctx, ident, id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "history", "Borrowing history", historyView{
		Title: member.Name,
		Back:  "/members/" + id.String(),
		Loans: loans,
	})
}

func (h *Handler) LoansPage(c echo.Context) error {
	status := model.ParseLoanFilter(c.QueryParam("status"))
	loans, err := h.svc.ListLoans(c.Request().Context(), md.IdentityFrom(c), status)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "loans", "Loans", loansView{Loans: loans, Status: status})
}

func (h *Handler) LoanPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	loan, err := h.svc.GetLoan(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "loan", "Loan", loan)
}

// renderLoanForm lists available books and active members for the pickers.
func (h *Handler) renderLoanForm(c echo.Context, view loanFormView, cause error) error {
	code := http.StatusOK
	if cause != nil {
		if !isUserError(cause) {
			return h.pageError(c, cause)
		}
		view.Error = cause.Error()
		code = statusOf(cause)
	}
	ident := md.IdentityFrom(c)
	eg, ctx := errgroup.WithContext(c.Request().Context())
	eg.Go(func() (err error) {
		view.Books, err = h.svc.ListBooks(ctx, model.BookFilter{Availability: model.AvailabilityAvailable, Sort: model.SortTitle})
		return err
	})
	eg.Go(func() error {
		members, err := h.svc.ListMembers(ctx, ident, "")
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.IsActive {
				view.Members = append(view.Members, m)
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, code, "loan_form", "New loan", view)
}

func (h *Handler) NewLoanPage(c echo.Context) error {
	view := loanFormView{}
	if id, err := uuid.Parse(c.QueryParam("bookId")); err == nil {
		view.BookID = id
	}
	if id, err := uuid.Parse(c.QueryParam("memberId")); err == nil {
		view.MemberID = id
	}
	return h.renderLoanForm(c, view, nil)
}

func (h *Handler) CreateLoanForm(c echo.Context) error {
	view := loanFormView{DueDate: strings.TrimSpace(c.FormValue("dueDate"))}
	bookID, bookErr := uuid.Parse(c.FormValue("bookId"))
	memberID, memberErr := uuid.Parse(c.FormValue("memberId"))
	view.BookID, view.MemberID = bookID, memberID
	if bookErr != nil || memberErr != nil {
		return h.renderLoanForm(c, view, errs.Validation("choose a book and a member"))
	}
	due, err := formDate(c, "dueDate")
	if err != nil {
		return h.renderLoanForm(c, view, err)
	}
	loan, err := h.svc.CreateLoan(c.Request().Context(), md.IdentityFrom(c), model.LoanRequest{
		BookID:   bookID,
		MemberID: memberID,
		DueDate:  due,
	})
	if err != nil {
		return h.renderLoanForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), "Book has been lent. Due "+loan.DueDate.Format("02.01.2006")+".")
	return c.Redirect(http.StatusSeeOther, "/loans/"+loan.ID.String())
}

func (h *Handler) ReturnLoanForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	_, err = h.svc.ReturnLoan(c.Request().Context(), md.IdentityFrom(c), id)
	back := "/loans/" + id.String()
	return h.done(c, err, "Book has been returned.", back, back)
}
