package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Login godoc
// @Summary issue a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} errs.ValidationErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListBooks godoc
// @Summary catalog listing
// @Tags books
// @Produce json
// @Param search query string false "title, author or ISBN"
// @Param categoryId query string false "category id"
// @Param availability query string false "available, borrowed or unavailable"
// @Param sort query string false "title, title_desc, author or author_desc"
// @Success 200 {array} model.BookSummary
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	filter, err := bookFilter(c)
	if err != nil {
		return err
	}
	books, err := h.svc.ListBooks(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func bookFilter(c echo.Context) (model.BookFilter, error) {
	filter := model.BookFilter{
		Search:       c.QueryParam("search"),
		Availability: model.BookAvailability(c.QueryParam("availability")),
		Sort:         model.BookSort(c.QueryParam("sort")),
	}
	switch filter.Availability {
	case model.AvailabilityAny, model.AvailabilityAvailable, model.AvailabilityBorrowed, model.AvailabilityUnavailable:
	default:
		return filter, echo.NewHTTPError(http.StatusBadRequest, "availability is invalid")
	}
	if p := c.QueryParam("categoryId"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "categoryId is invalid")
		}
		filter.CategoryID = id
	}
	return filter, nil
}

// SearchBooks godoc
// @Summary paged catalog search
// @Tags books
// @Produce json
// @Param title query string false "title substring"
// @Param author query string false "author substring"
// @Param category query string false "category name substring"
// @Param available query bool false "availability"
// @Param page query int false "page, 1 based"
// @Param pageSize query int false "page size, at most 100"
// @Success 200 {object} model.BookPage
// @Router /books/search [get]
func (h *Handler) SearchBooks(c echo.Context) error {
	search := model.BookSearch{
		Title:    c.QueryParam("title"),
		Author:   c.QueryParam("author"),
		Category: c.QueryParam("category"),
	}
	var err error
	if p := c.QueryParam("available"); p != "" {
		available, err := strconv.ParseBool(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available is invalid")
		}
		search.Available = &available
	}
	if p := c.QueryParam("page"); p != "" {
		if search.Page, err = strconv.Atoi(p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if p := c.QueryParam("pageSize"); p != "" {
		if search.PageSize, err = strconv.Atoi(p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "pageSize is invalid")
		}
	}
	page, err := h.svc.SearchBooks(c.Request().Context(), search)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetBook godoc
// @Summary book with categories, reviews and statistics
// @Tags books
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} model.BookDetail
// @Failure 404 {object} errs.ValidationErrorResponse
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// BookStats godoc
// @Summary review and loan statistics of a book
// @Tags books
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} model.BookStats
// @Router /books/{id}/stats [get]
func (h *Handler) BookStats(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.svc.BookStats(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// CreateBook godoc
// @Summary add a book
// @Tags books
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body model.BookRequest true "book"
// @Success 201 {object} model.BookSummary
// @Failure 409 {object} errs.ValidationErrorResponse
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	book, err := h.svc.CreateBook(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary replace a book
// @Tags books
// @Security Bearer
// @Accept json
// @Param id path string true "book id"
// @Param request body model.BookRequest true "book"
// @Success 204
// @Router /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	if err := h.svc.UpdateBook(c.Request().Context(), md.IdentityFrom(c), id, req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteBook godoc
// @Summary delete a book with its reviews and loan history
// @Tags books
// @Security Bearer
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} errs.ValidationErrorResponse
// @Failure 409 {object} errs.ValidationErrorResponse
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBook(c.Request().Context(), md.IdentityFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted successfully"})
}

// CreateLoan godoc
// @Summary lend a book
// @Tags loans
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body model.LoanRequest true "loan"
// @Success 201 {object} model.Loan
// @Failure 409 {object} errs.ValidationErrorResponse
// @Failure 422 {object} errs.ValidationErrorResponse
// @Router /loans [post]
func (h *Handler) CreateLoan(c echo.Context) error {
	var req model.LoanRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	loan, err := h.svc.CreateLoan(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

// ReturnLoan godoc
// @Summary return a borrowed book
// @Tags loans
// @Security Bearer
// @Produce json
// @Param id path string true "loan id"
// @Success 200 {object} model.Loan
// @Failure 409 {object} errs.ValidationErrorResponse
// @Router /loans/{id}/return [post]
func (h *Handler) ReturnLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.svc.ReturnLoan(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

// SubmitReview godoc
// @Summary like or dislike a borrowed book
// @Tags reviews
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "book id"
// @Param request body model.ReviewRequest true "review"
// @Success 201 {object} model.ReviewResult
// @Failure 409 {object} errs.ValidationErrorResponse
// @Failure 422 {object} errs.ValidationErrorResponse
// @Router /books/{id}/reviews [post]
func (h *Handler) SubmitReview(c echo.Context) error {
	bookID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.ReviewRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	req.BookID = bookID
	res, err := h.svc.SubmitReview(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

// EditReview godoc
// @Summary change a review
// @Tags reviews
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "review id"
// @Param request body model.ReviewRequest true "review"
// @Success 200 {object} model.ReviewResult
// @Router /reviews/{id} [put]
func (h *Handler) EditReview(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.ReviewRequest
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.svc.EditReview(c.Request().Context(), md.IdentityFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteReview godoc
// @Summary remove a review
// @Tags reviews
// @Security Bearer
// @Produce json
// @Param id path string true "review id"
// @Success 200 {object} errs.ValidationErrorResponse
// @Router /reviews/{id} [delete]
func (h *Handler) DeleteReview(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.svc.DeleteReview(c.Request().Context(), md.IdentityFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted successfully"})
}
