package orders

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/p2p-marketplace/internal/model"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

func TestCheckOrderStatus(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectQuery(`SELECT status FROM orders WHERE id = \? AND buyer_id = \?`).
        WithArgs("order-1", "buyer-1").
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))

    status, err := svc.CheckOrderStatus(context.Background(), "order-1", "buyer-1")

    require.NoError(t, err)
    assert.Equal(t, model.OrderPending, status)
    expectMet(t, mock)
}

func TestCheckOrderStatusOtherBuyersOrder(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectQuery(`SELECT status FROM orders WHERE id = \? AND buyer_id = \?`).
        WithArgs("order-1", "intruder").
        WillReturnRows(sqlmock.NewRows([]string{"status"}))

    _, err := svc.CheckOrderStatus(context.Background(), "order-1", "intruder")

    assert.ErrorIs(t, err, repository.ErrOrderNotFound)
    expectMet(t, mock)
}

func TestCancelPendingOrderReleasesItem(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(selectOrderForUpd).WithArgs("order-1").
        WillReturnRows(cardOrderRow(model.OrderPending, 4800))
    mock.ExpectExec(updateOrderStatus).WithArgs("cancelled", "order-1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(updateItemStatus).WithArgs("available", "item-1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    err := svc.CancelPendingOrder(context.Background(), "order-1", "buyer-1")

    require.NoError(t, err)
    expectMet(t, mock)
}

func TestCancelPendingOrderWrongBuyer(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(selectOrderForUpd).WithArgs("order-1").
        WillReturnRows(cardOrderRow(model.OrderPending, 4800))
    mock.ExpectRollback()

    err := svc.CancelPendingOrder(context.Background(), "order-1", "intruder")

    assert.ErrorIs(t, err, repository.ErrOrderNotFound)
    expectMet(t, mock)
}

func TestCancelCompletedOrderConflicts(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(selectOrderForUpd).WithArgs("order-1").
        WillReturnRows(cardOrderRow(model.OrderCompleted, 4800))
    mock.ExpectRollback()

    err := svc.CancelPendingOrder(context.Background(), "order-1", "buyer-1")

    assert.ErrorIs(t, err, repository.ErrConflict)
    expectMet(t, mock)
}

func TestCancelCancelledOrderIsNoOp(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(selectOrderForUpd).WithArgs("order-1").
        WillReturnRows(cardOrderRow(model.OrderCancelled, 4800))
    mock.ExpectRollback()

    err := svc.CancelPendingOrder(context.Background(), "order-1", "buyer-1")

    assert.NoError(t, err)
    expectMet(t, mock)
}

func TestExpirePendingOrders(t *testing.T) {
    svc, mock, _ := newTestService(t)

    cutoff := svc.now().UTC().Add(-30 * time.Minute)
    mock.ExpectBegin()
    mock.ExpectQuery(selectExpiredOrder).WithArgs("pending", "crypto", cutoff).
        WillReturnRows(sqlmock.NewRows([]string{"id", "item_id"}).
            AddRow("order-8", "item-8").
            AddRow("order-9", "item-9"))
    mock.ExpectExec(updateOrderStatus).WithArgs("cancelled", "order-8").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(updateItemStatus).WithArgs("available", "item-8").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(updateOrderStatus).WithArgs("cancelled", "order-9").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(updateItemStatus).WithArgs("available", "item-9").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    n, err := svc.ExpirePendingOrders(context.Background(), 30*time.Minute)

    require.NoError(t, err)
    assert.Equal(t, 2, n)
    expectMet(t, mock)
}

func TestExpirePendingOrdersNothingToDo(t *testing.T) {
    svc, mock, _ := newTestService(t)

    mock.ExpectBegin()
    mock.ExpectQuery(selectExpiredOrder).
        WillReturnRows(sqlmock.NewRows([]string{"id", "item_id"}))
    mock.ExpectRollback()

    n, err := svc.ExpirePendingOrders(context.Background(), 30*time.Minute)

    require.NoError(t, err)
    assert.Equal(t, 0, n)
    expectMet(t, mock)
}
