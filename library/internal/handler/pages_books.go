package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

type booksView struct {
	Books      []model.BookSummary
	Filter     model.BookFilter
	Categories []model.CategorySummary
}

type bookFormView struct {
	Action     string
	IsEdit     bool
	Req        model.BookRequest
	Available  bool
	Categories []model.CategorySummary
	Selected   map[uuid.UUID]bool
	Error      string
}

type historyView struct {
	Title string
	Back  string
	Loans []model.LoanView
}

type categoryFormView struct {
	Action string
	IsEdit bool
	Req    model.CategoryRequest
	Error  string
}

func (h *Handler) BooksPage(c echo.Context) error {
	ctx := c.Request().Context()
	filter, err := bookFilter(c)
	if err != nil {
		return err
	}
	books, err := h.svc.ListBooks(ctx, filter)
	if err != nil {
		return h.pageError(c, err)
	}
	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "books", "Books", booksView{Books: books, Filter: filter, Categories: categories})
}

func (h *Handler) bookForm(ctx context.Context, view bookFormView) (bookFormView, error) {
	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		return view, err
	}
	view.Categories = categories
	view.Selected = make(map[uuid.UUID]bool, len(view.Req.CategoryIDs))
	for _, id := range view.Req.CategoryIDs {
		view.Selected[id] = true
	}
	return view, nil
}

func bookRequestFromForm(c echo.Context) (model.BookRequest, error) {
	req := model.BookRequest{
		Title:  strings.TrimSpace(c.FormValue("title")),
		Author: strings.TrimSpace(c.FormValue("author")),
		ISBN:   strings.TrimSpace(c.FormValue("isbn")),
	}
	available := formBool(c, "available")
	req.Available = &available
	var err error
	if req.YearPublished, err = formInt(c, "yearPublished"); err != nil {
		return req, err
	}
	if req.CategoryIDs, err = formIDs(c, "categoryIds"); err != nil {
		return req, err
	}
	return req, validateForm(c, &req)
}

// renderBookForm shows the form again with the entered values and the failure.
func (h *Handler) renderBookForm(c echo.Context, view bookFormView, cause error) error {
	if cause != nil {
		if !isUserError(cause) {
			return h.pageError(c, cause)
		}
		view.Error = cause.Error()
	}
	view, err := h.bookForm(c.Request().Context(), view)
	if err != nil {
		return h.pageError(c, err)
	}
	view.Available = view.Req.IsAvailable()
	code := http.StatusOK
	if cause != nil {
		code = statusOf(cause)
	}
	title := "New book"
	if view.IsEdit {
		title = "Edit book"
	}
	return h.render(c, code, "book_form", title, view)
}

func (h *Handler) NewBookPage(c echo.Context) error {
	return h.renderBookForm(c, bookFormView{Action: "/books"}, nil)
}

func (h *Handler) CreateBookForm(c echo.Context) error {
	view := bookFormView{Action: "/books"}
	req, err := bookRequestFromForm(c)
	view.Req = req
	if err != nil {
		return h.renderBookForm(c, view, err)
	}
	book, err := h.svc.CreateBook(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return h.renderBookForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), fmt.Sprintf("Book %q has been added.", book.Title))
	return c.Redirect(http.StatusSeeOther, "/books/"+book.ID.String())
}

func (h *Handler) BookPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "book", book.Title, book)
}

func (h *Handler) EditBookPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), md.IdentityFrom(c), id)
	if err != nil {
		return h.pageError(c, err)
	}
	available := book.Available
	req := model.BookRequest{
		Title:         book.Title,
		Author:        book.Author,
		YearPublished: book.YearPublished,
		Available:     &available,
	}
	if book.ISBN != nil {
		req.ISBN = *book.ISBN
	}
	for _, cat := range book.Categories {
		req.CategoryIDs = append(req.CategoryIDs, cat.ID)
	}
	return h.renderBookForm(c, bookFormView{Action: "/books/" + id.String() + "/edit", IsEdit: true, Req: req}, nil)
}

func (h *Handler) UpdateBookForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	view := bookFormView{Action: "/books/" + id.String() + "/edit", IsEdit: true}
	req, err := bookRequestFromForm(c)
	view.Req = req
	if err != nil {
		return h.renderBookForm(c, view, err)
	}
	if err := h.svc.UpdateBook(c.Request().Context(), md.IdentityFrom(c), id, req); err != nil {
		return h.renderBookForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), "Book has been updated.")
	return c.Redirect(http.StatusSeeOther, "/books/"+id.String())
}

func (h *Handler) DeleteBookForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	err = h.svc.DeleteBook(c.Request().Context(), md.IdentityFrom(c), id)
	return h.done(c, err, "Book has been deleted.", "/books", "/books/"+id.String())
}

func (h *Handler) ToggleBookForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	available, err := h.svc.ToggleAvailability(c.Request().Context(), md.IdentityFrom(c), id)
	msg := "Book is now marked as unavailable."
	if available {
		msg = "Book is now marked as available."
	}
	back := "/books/" + id.String()
	return h.done(c, err, msg, back, back)
}

func (h *Handler) BookHistoryPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ident := md.IdentityFrom(c)
	book, err := h.svc.GetBook(ctx, ident, id)
	if err != nil {
		return h.pageError(c, err)
	}
	loans, err := h.svc.BookLoans(ctx, ident, id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "history", "Borrowing history", historyView{
		Title: book.Title,
		Back:  "/books/" + id.String(),
		Loans: loans,
	})
}

func (h *Handler) CategoriesPage(c echo.Context) error {
	categories, err := h.svc.ListCategories(c.Request().Context())
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "categories", "Categories", categories)
}

func (h *Handler) CategoryPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	category, err := h.svc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "category", category.Name, category)
}

func categoryRequestFromForm(c echo.Context) (model.CategoryRequest, error) {
	req := model.CategoryRequest{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
	return req, validateForm(c, &req)
}

func (h *Handler) renderCategoryForm(c echo.Context, view categoryFormView, cause error) error {
	code := http.StatusOK
	if cause != nil {
		if !isUserError(cause) {
			return h.pageError(c, cause)
		}
		view.Error = cause.Error()
		code = statusOf(cause)
	}
	title := "New category"
	if view.IsEdit {
		title = "Edit category"
	}
	return h.render(c, code, "category_form", title, view)
}

func (h *Handler) NewCategoryPage(c echo.Context) error {
	return h.renderCategoryForm(c, categoryFormView{Action: "/categories"}, nil)
}

func (h *Handler) CreateCategoryForm(c echo.Context) error {
	view := categoryFormView{Action: "/categories"}
	req, err := categoryRequestFromForm(c)
	view.Req = req
	if err != nil {
		return h.renderCategoryForm(c, view, err)
	}
	category, err := h.svc.CreateCategory(c.Request().Context(), md.IdentityFrom(c), req)
	if err != nil {
		return h.renderCategoryForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), fmt.Sprintf("Category %q has been created.", category.Name))
	return c.Redirect(http.StatusSeeOther, "/categories")
}

func (h *Handler) EditCategoryPage(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	category, err := h.svc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return h.pageError(c, err)
	}
	req := model.CategoryRequest{Name: category.Name}
	if category.Description != nil {
		req.Description = *category.Description
	}
	return h.renderCategoryForm(c, categoryFormView{Action: "/categories/" + id.String() + "/edit", IsEdit: true, Req: req}, nil)
}

func (h *Handler) UpdateCategoryForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	view := categoryFormView{Action: "/categories/" + id.String() + "/edit", IsEdit: true}
	req, err := categoryRequestFromForm(c)
	view.Req = req
	if err != nil {
		return h.renderCategoryForm(c, view, err)
	}
	if err := h.svc.UpdateCategory(c.Request().Context(), md.IdentityFrom(c), id, req); err != nil {
		return h.renderCategoryForm(c, view, err)
	}
	h.sessions.FlashSuccess(c.Request().Context(), "Category has been updated.")
	return c.Redirect(http.StatusSeeOther, "/categories")
}

func (h *Handler) DeleteCategoryForm(c echo.Context) error {
	id, err := pageID(c)
	if err != nil {
		return err
	}
	err = h.svc.DeleteCategory(c.Request().Context(), md.IdentityFrom(c), id)
	return h.done(c, err, "Category has been deleted.", "/categories", "/categories")
}
