package borrowing

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rkostiv253/library-service/app/echoServer/validation"
	"github.com/rkostiv253/library-service/model"
	bs "github.com/rkostiv253/library-service/service/borrowing"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

const dateLayout = "2006-01-02"

func caller(c echo.Context) bs.Caller {
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)
	return bs.Caller{UserID: uid, Admin: role == "admin"}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// splitInts parses a comma separated query value like "1,2,3".
func splitInts(s string) ([]int64, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// POST /v1/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}

	items := make([]bs.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, bs.ItemInput{
			BookID:             it.BookID,
			Quantity:           it.Quantity,
			BorrowDate:         parseDate(it.BorrowDate),
			ExpectedReturnDate: parseDate(it.ExpectedReturnDate),
		})
	}

	out, err := h.Svc.Create(c.Request().Context(), caller(c).UserID, items)
	if err != nil {
		if fields := bs.Fields(err); fields != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "validation error",
				"errors":  fields,
			})
		}
		switch bs.Code(err) {
		case bs.ErrNoStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
		default:
			h.Log.Error("borrowing create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/borrowings
func (h *Controller) List(c echo.Context) error {
	var f bs.Filter

	if raw := c.QueryParam("status"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, model.BorrowingStatus(strings.ToUpper(strings.TrimSpace(p))))
		}
	}
	userIDs, ok := splitInts(c.QueryParam("user"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user filter"})
	}
	f.UserIDs = userIDs

	rows, err := h.Svc.List(c.Request().Context(), caller(c), f)
	if err != nil {
		if fields := bs.Fields(err); fields != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "validation error",
				"errors":  fields,
			})
		}
		h.Log.Error("borrowing list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Detail(c.Request().Context(), caller(c), id)
	if err != nil {
		if bs.Code(err) == bs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		}
		h.Log.Error("borrowing detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, row)
}

// POST /v1/borrowings/:id/return-item
func (h *Controller) ReturnItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReturnItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}

	item, err := h.Svc.ReturnItem(c.Request().Context(), caller(c), id, req.ItemID, parseDate(req.ReturnDate))
	if err != nil {
		if fields := bs.Fields(err); fields != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "validation error",
				"errors":  fields,
			})
		}
		switch bs.Code(err) {
		case bs.ErrNotFound, bs.ErrItemNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
		case bs.ErrAlreadyReturned:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "item already returned"})
		default:
			h.Log.Error("borrowing return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, item)
}
