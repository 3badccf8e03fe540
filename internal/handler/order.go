package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/p2p-marketplace/internal/repository"
    "github.com/iliyamo/p2p-marketplace/internal/service/orders"
)

// OrderHandler exposes the buyer-facing order endpoints.  All routes here
// sit behind JWT auth; the authenticated buyer comes from the context.
type OrderHandler struct {
    Service *orders.Service
}

// NewOrderHandler constructs an OrderHandler backed by the order service.
func NewOrderHandler(svc *orders.Service) *OrderHandler {
    return &OrderHandler{Service: svc}
}

// CreateCryptoOrder reserves an item and records a pending crypto order
// for the transaction hash the buyer just broadcast.
func (h *OrderHandler) CreateCryptoOrder(c echo.Context) error {
    buyerID := currentUser(c)
    if buyerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }

    var in orders.CreateCryptoOrderInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    orderID, err := h.Service.CreatePendingCryptoOrder(c.Request().Context(), buyerID, in)
    if err != nil {
        return orderError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"order_id": orderID, "status": "pending"})
}

// CreateCardOrder reserves an item, creates a payment intent on the card
// rail and returns the client secret the frontend needs to collect the
// card details.
func (h *OrderHandler) CreateCardOrder(c echo.Context) error {
    buyerID := currentUser(c)
    if buyerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }

    var in orders.CreateCardOrderInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    orderID, clientSecret, err := h.Service.CreatePendingCardOrder(c.Request().Context(), buyerID, in)
    if err != nil {
        return orderError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "order_id":      orderID,
        "status":        "pending",
        "client_secret": clientSecret,
    })
}

// GetOrderStatus returns the current status of the buyer's order.  It is
// the endpoint the post-payment poller hits.
func (h *OrderHandler) GetOrderStatus(c echo.Context) error {
    buyerID := currentUser(c)
    if buyerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }

    status, err := h.Service.CheckOrderStatus(c.Request().Context(), c.Param("id"), buyerID)
    if err != nil {
        return orderError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"order_id": c.Param("id"), "status": string(status)})
}

// CancelOrder cancels one of the buyer's pending orders and releases the
// reserved item.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
    buyerID := currentUser(c)
    if buyerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }

    if err := h.Service.CancelPendingOrder(c.Request().Context(), c.Param("id"), buyerID); err != nil {
        return orderError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"order_id": c.Param("id"), "status": "cancelled"})
}

// orderError maps service and repository errors onto HTTP responses.
func orderError(c echo.Context, err error) error {
    var verr *orders.ValidationError
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
    case errors.Is(err, repository.ErrItemNotFound), errors.Is(err, repository.ErrOrderNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrItemNotAvailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "item is no longer available"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "order is already finalized"})
    case errors.Is(err, repository.ErrSellerWalletMissing):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "seller has no payout wallet configured"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

func currentUser(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok {
            return s
        }
    }
    return ""
}
