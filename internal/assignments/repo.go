package assignments

import (
	"context"

	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Repository manages persistence for delivery assignments plus the order and
// driver columns the scheduler flips alongside them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) error
	ListByDriver(ctx context.Context, driverID int64) ([]models.Assignment, error)
	ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Assignment, error)
	ActiveQtySum(ctx context.Context, driverID int64) (int, error)
	ItemQtySumForOrder(ctx context.Context, orderID int64) (int, error)
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
	SetOrderAssignmentState(ctx context.Context, orderID int64, state enums.AssignmentState) error
	FindDriver(ctx context.Context, driverID int64) (*models.Driver, error)
	SetDriverAvailability(ctx context.Context, driverID int64, status enums.DriverAvailability) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Assignment{}).Error
}

func (r *repository) ListByDriver(ctx context.Context, driverID int64) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("schedule_time ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *repository) ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("schedule_time ASC").
		Find(&assignments).Error
	return assignments, err
}

// ActiveQtySum totals the item quantities a driver is already carrying.
// The aggregate is recomputed per call; there is no row lock, so two
// schedulers racing on the same driver can both pass the capacity check.
func (r *repository) ActiveQtySum(ctx context.Context, driverID int64) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("SUM(order_items.qty)").
		Joins("JOIN assignments ON assignments.order_id = order_items.order_id").
		Where("assignments.driver_id = ? AND assignments.status NOT IN ?", driverID, []enums.AssignmentStatus{
			enums.AssignmentStatusCancelled,
			enums.AssignmentStatusCompleted,
		}).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// ItemQtySumForOrder is the total quantity across one order's line items.
func (r *repository) ItemQtySumForOrder(ctx context.Context, orderID int64) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("SUM(qty)").
		Where("order_id = ?", orderID).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) SetOrderAssignmentState(ctx context.Context, orderID int64, state enums.AssignmentState) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("assignment_status", state).Error
}

func (r *repository) FindDriver(ctx context.Context, driverID int64) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).Where("id = ?", driverID).First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *repository) SetDriverAvailability(ctx context.Context, driverID int64, status enums.DriverAvailability) error {
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", driverID).
		Update("availability_status", status).Error
}
