package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// BrowseHandler serves the unauthenticated item catalogue.  Buyers browse
// before they sign in; only checkout requires auth.
type BrowseHandler struct {
    Items *repository.ItemRepo
}

// NewBrowseHandler constructs a BrowseHandler over the item repository.
func NewBrowseHandler(items *repository.ItemRepo) *BrowseHandler {
    return &BrowseHandler{Items: items}
}

// ListItems returns available items, newest first, paginated via limit and
// offset query parameters.
func (h *BrowseHandler) ListItems(c echo.Context) error {
    limit := queryInt(c, "limit", 20)
    if limit < 1 || limit > 100 {
        limit = 20
    }
    offset := queryInt(c, "offset", 0)
    if offset < 0 {
        offset = 0
    }

    items, err := h.Items.ListAvailable(c.Request().Context(), limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// GetItem returns a single item by ID, whatever its status.  A buyer with
// a pending order still needs to see the listing they reserved.
func (h *BrowseHandler) GetItem(c echo.Context) error {
    item, err := h.Items.GetByID(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrItemNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(http.StatusOK, item)
}

func queryInt(c echo.Context, name string, def int) int {
    raw := c.QueryParam(name)
    if raw == "" {
        return def
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return def
    }
    return n
}
