package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rkostiv253/library-service/app/echoServer/validation"
	catalogsvc "github.com/rkostiv253/library-service/service/catalog"
)

type Controller struct {
	Svc catalogsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Controller) mapErr(c echo.Context, what string, err error) error {
	switch {
	case errors.Is(err, catalogsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": what + " not found"})
	case errors.Is(err, catalogsvc.ErrBadInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	default:
		h.Log.Error(what, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// Authors

// POST /v1/authors  (admin)
func (h *Controller) CreateAuthor(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": validation.Fields(err)})
	}
	id, err := h.Svc.CreateAuthor(c.Request().Context(), req.FirstName, req.LastName)
	if err != nil {
		return h.mapErr(c, "author create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// PUT /v1/authors/:id  (admin)
func (h *Controller) UpdateAuthor(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": validation.Fields(err)})
	}
	if err := h.Svc.UpdateAuthor(c.Request().Context(), id, req.FirstName, req.LastName); err != nil {
		return h.mapErr(c, "author", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DELETE /v1/authors/:id  (admin)
func (h *Controller) DeleteAuthor(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.DeleteAuthor(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "author", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /v1/authors
func (h *Controller) ListAuthors(c echo.Context) error {
	rows, err := h.Svc.ListAuthors(c.Request().Context())
	if err != nil {
		return h.mapErr(c, "author list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/authors/:id
func (h *Controller) AuthorDetail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.AuthorDetail(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(c, "author", err)
	}
	return c.JSON(http.StatusOK, row)
}

// Genres

// POST /v1/genres  (admin)
func (h *Controller) CreateGenre(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req GenreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": validation.Fields(err)})
	}
	id, err := h.Svc.CreateGenre(c.Request().Context(), req.Name)
	if err != nil {
		return h.mapErr(c, "genre create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// PUT /v1/genres/:id  (admin)
func (h *Controller) UpdateGenre(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req GenreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": validation.Fields(err)})
	}
	if err := h.Svc.UpdateGenre(c.Request().Context(), id, req.Name); err != nil {
		return h.mapErr(c, "genre", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DELETE /v1/genres/:id  (admin)
func (h *Controller) DeleteGenre(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.DeleteGenre(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "genre", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /v1/genres
func (h *Controller) ListGenres(c echo.Context) error {
	rows, err := h.Svc.ListGenres(c.Request().Context())
	if err != nil {
		return h.mapErr(c, "genre list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/genres/:id
func (h *Controller) GenreDetail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.GenreDetail(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(c, "genre", err)
	}
	return c.JSON(http.StatusOK, row)
}
