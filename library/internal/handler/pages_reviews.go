package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

type reviewFormView struct {
	Review model.ReviewView
	Error  string
}

// CatalogBookPage is the member's book view with reviews and the live stats channel.
func (h *Handler) CatalogBookPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "catalog_book", book.Title, book)
}

func reviewRequestFromForm(c echo.Context) (model.ReviewRequest, error) {
	req := model.ReviewRequest{
		IsLike:  c.FormValue("isLike") == "true",
		Comment: strings.TrimSpace(c.FormValue("comment")),
	}
	var err error
	if req.Rating, err = formInt(c, "rating"); err != nil {
		return req, err
	}
	return req, validateForm(c, &req)
}

func (h *Handler) SubmitReviewForm(c echo.Context) error {
	bookID, err := uuid.Parse(c.FormValue("bookId"))
	if err != nil {
		return h.pageError(c, errs.ErrNotFound)
	}
	back := "/catalog/" + bookID.String()
	req, err := reviewRequestFromForm(c)
	if err == nil {
		req.BookID = bookID
		_, err = h.svc.SubmitReview(c.Request().Context(), md.IdentityFrom(c), req)
	}
	return h.done(c, err, "Thank you for your review!", back, back)
}

func (h *Handler) EditReviewPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	review, err := h.svc.GetReview(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "review_form", "Edit review", reviewFormView{Review: review})
}

func (h *Handler) EditReviewForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ident := md.IdentityFrom(c)
	req, err := reviewRequestFromForm(c)
	if err == nil {
		var res model.ReviewResult
		if res, err = h.svc.EditReview(ctx, ident, id, req); err == nil {
			return h.done(c, nil, "Your review has been updated.", reviewBack(c, res.Review.BookID), "")
		}
	}
	if !isUserError(err) || statusOf(err) == http.StatusForbidden || statusOf(err) == http.StatusNotFound {
		return h.pageError(c, err)
	}
	review, gerr := h.svc.GetReview(ctx, ident, id)
	if gerr != nil {
		return h.pageError(c, gerr)
	}
	return h.render(c, statusOf(err), "review_form", "Edit review", reviewFormView{Review: review, Error: err.Error()})
}

func (h *Handler) DeleteReviewForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	bookID, err := h.svc.DeleteReview(c.Request().Context(), md.IdentityFrom(c), id)
	back := reviewBack(c, bookID)
	return h.done(c, err, "Review has been deleted.", back, back)
}

// reviewBack returns librarians to the management view and members to the catalog.
func reviewBack(c echo.Context, bookID uuid.UUID) string {
	if bookID == uuid.Nil {
		return "/"
	}
	if md.IdentityFrom(c).IsLibrarian() {
		return "/books/" + bookID.String()
	}
	return "/catalog/" + bookID.String()
}
