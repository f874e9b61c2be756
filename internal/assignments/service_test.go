package assignments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
)

type sqliteTx struct {
	db *gorm.DB
}

func (s sqliteTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

type captureOutbox struct {
	events []outbox.DomainEvent
}

func (c *captureOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func setupAssignmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_no TEXT NOT NULL UNIQUE,
  buyer_id INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  tax NUMERIC NOT NULL,
  shipping_fee NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  assignment_status TEXT NOT NULL DEFAULT 'unassigned',
  contact TEXT,
  shipping_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS drivers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  vehicle_type TEXT NOT NULL DEFAULT '',
  capacity INTEGER NOT NULL DEFAULT 0,
  availability_status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS assignments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  driver_id INTEGER NOT NULL,
  schedule_time DATETIME NOT NULL,
  special_notes TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

type assignmentsFixture struct {
	db     *gorm.DB
	svc    Service
	outbox *captureOutbox
}

func newAssignmentsFixture(t *testing.T) *assignmentsFixture {
	t.Helper()

	gdb := setupAssignmentsTestDB(t)
	sink := &captureOutbox{}
	svc, err := NewService(NewRepository(gdb), sqliteTx{db: gdb}, sink)
	require.NoError(t, err)
	return &assignmentsFixture{db: gdb, svc: svc, outbox: sink}
}

func (f *assignmentsFixture) seedOrder(t *testing.T, qty int) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNo:          fmt.Sprintf("HL-%d", time.Now().UnixNano()),
		BuyerID:          7,
		Subtotal:         decimal.RequireFromString("10.00"),
		Tax:              decimal.RequireFromString("0.65"),
		ShippingFee:      decimal.Zero,
		Total:            decimal.RequireFromString("10.65"),
		Status:           enums.OrderStatusPaid,
		AssignmentStatus: enums.AssignmentStateUnassigned,
	}
	require.NoError(t, f.db.Create(order).Error)
	require.NoError(t, f.db.Create(&models.OrderItem{
		OrderID:   order.ID,
		ProductID: 1,
		Name:      "Apples",
		Price:     decimal.RequireFromString("2.50"),
		Qty:       qty,
	}).Error)
	return order
}

func (f *assignmentsFixture) seedDriver(t *testing.T, capacity int, status enums.DriverAvailability) *models.Driver {
	t.Helper()

	driver := &models.Driver{
		Name:               "Sam Porter",
		VehicleType:        "van",
		Capacity:           capacity,
		AvailabilityStatus: status,
	}
	require.NoError(t, f.db.Create(driver).Error)
	return driver
}

func futureTime() time.Time {
	return time.Now().Add(4 * time.Hour)
}

func TestCreateAssignment(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, 4)
	driver := f.seedDriver(t, 10, enums.DriverAvailable)

	created, err := f.svc.CreateAssignment(ctx, CreateInput{
		OrderID:      order.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusPending, created.Status)

	var reloadedOrder models.Order
	require.NoError(t, f.db.First(&reloadedOrder, order.ID).Error)
	assert.Equal(t, enums.AssignmentStateAssigned, reloadedOrder.AssignmentStatus)

	var reloadedDriver models.Driver
	require.NoError(t, f.db.First(&reloadedDriver, driver.ID).Error)
	assert.Equal(t, enums.DriverBusy, reloadedDriver.AvailabilityStatus)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventDriverAssigned, f.outbox.events[0].EventType)
}

func TestCreateAssignmentPastSchedule(t *testing.T) {
	f := newAssignmentsFixture(t)

	_, err := f.svc.CreateAssignment(context.Background(), CreateInput{
		OrderID:      1,
		DriverID:     1,
		ScheduleTime: time.Now().Add(-time.Minute),
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateAssignmentLongNotes(t *testing.T) {
	f := newAssignmentsFixture(t)

	notes := make([]byte, maxNotesLength+1)
	for i := range notes {
		notes[i] = 'x'
	}
	tooLong := string(notes)

	_, err := f.svc.CreateAssignment(context.Background(), CreateInput{
		OrderID:      1,
		DriverID:     1,
		ScheduleTime: futureTime(),
		SpecialNotes: &tooLong,
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateAssignmentUnknownOrder(t *testing.T) {
	f := newAssignmentsFixture(t)
	f.seedDriver(t, 10, enums.DriverAvailable)

	_, err := f.svc.CreateAssignment(context.Background(), CreateInput{
		OrderID:      404,
		DriverID:     1,
		ScheduleTime: futureTime(),
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCreateAssignmentBusyDriver(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, 2)
	driver := f.seedDriver(t, 10, enums.DriverBusy)

	_, err := f.svc.CreateAssignment(ctx, CreateInput{
		OrderID:      order.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateAssignmentCapacityExceeded(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, 12)
	driver := f.seedDriver(t, 10, enums.DriverAvailable)

	_, err := f.svc.CreateAssignment(ctx, CreateInput{
		OrderID:      order.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestRemainingCapacityCountsActiveOnly(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	driver := f.seedDriver(t, 10, enums.DriverAvailable)

	active := f.seedOrder(t, 3)
	done := f.seedOrder(t, 5)
	require.NoError(t, f.db.Create(&models.Assignment{
		OrderID:      active.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
		Status:       enums.AssignmentStatusInProgress,
	}).Error)
	require.NoError(t, f.db.Create(&models.Assignment{
		OrderID:      done.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
		Status:       enums.AssignmentStatusCompleted,
	}).Error)

	capacity, err := f.svc.RemainingCapacity(ctx, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, capacity.Active, "completed assignments must not count")
	assert.Equal(t, 7, capacity.Remaining)
}

func TestRemainingCapacityUnknownDriver(t *testing.T) {
	f := newAssignmentsFixture(t)

	_, err := f.svc.RemainingCapacity(context.Background(), 404)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestDeleteAssignmentResetsFlags(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, 4)
	driver := f.seedDriver(t, 10, enums.DriverAvailable)

	created, err := f.svc.CreateAssignment(ctx, CreateInput{
		OrderID:      order.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAssignment(ctx, created.ID))

	var reloadedOrder models.Order
	require.NoError(t, f.db.First(&reloadedOrder, order.ID).Error)
	assert.Equal(t, enums.AssignmentStateUnassigned, reloadedOrder.AssignmentStatus)

	var reloadedDriver models.Driver
	require.NoError(t, f.db.First(&reloadedDriver, driver.ID).Error)
	assert.Equal(t, enums.DriverAvailable, reloadedDriver.AvailabilityStatus)

	var count int64
	require.NoError(t, f.db.Model(&models.Assignment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteAssignmentNotFound(t *testing.T) {
	f := newAssignmentsFixture(t)

	err := f.svc.DeleteAssignment(context.Background(), 404)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListByStatus(t *testing.T) {
	f := newAssignmentsFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, 2)
	driver := f.seedDriver(t, 10, enums.DriverAvailable)
	_, err := f.svc.CreateAssignment(ctx, CreateInput{
		OrderID:      order.ID,
		DriverID:     driver.ID,
		ScheduleTime: futureTime(),
	})
	require.NoError(t, err)

	pending, err := f.svc.ListByStatus(ctx, enums.AssignmentStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.ListByStatus(ctx, enums.AssignmentStatus("flying"))
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
