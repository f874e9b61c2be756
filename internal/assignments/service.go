package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox/payloads"
)

const maxNotesLength = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput carries a delivery assignment request.
type CreateInput struct {
	OrderID      int64
	DriverID     int64
	ScheduleTime time.Time
	SpecialNotes *string
}

// Capacity is the remaining headroom snapshot for a driver.
type Capacity struct {
	DriverID  int64 `json:"driverId"`
	Capacity  int   `json:"capacity"`
	Active    int   `json:"active"`
	Remaining int   `json:"remaining"`
}

// Service defines the delivery scheduling operations.
type Service interface {
	RemainingCapacity(ctx context.Context, driverID int64) (*Capacity, error)
	CreateAssignment(ctx context.Context, input CreateInput) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
	ListByDriver(ctx context.Context, driverID int64) ([]models.Assignment, error)
	ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Assignment, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds an assignment scheduler with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, now: time.Now}, nil
}

func (s *service) RemainingCapacity(ctx context.Context, driverID int64) (*Capacity, error) {
	driver, err := s.repo.FindDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, err
	}

	active, err := s.repo.ActiveQtySum(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return &Capacity{
		DriverID:  driver.ID,
		Capacity:  driver.Capacity,
		Active:    active,
		Remaining: driver.Capacity - active,
	}, nil
}

// CreateAssignment validates and books a delivery in one transaction: the
// assignment row, the order's assigned flag and the driver's busy flag commit
// together with the driver_assigned event.
func (s *service) CreateAssignment(ctx context.Context, input CreateInput) (*models.Assignment, error) {
	if !input.ScheduleTime.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule time must be in the future")
	}
	if input.SpecialNotes != nil && len(*input.SpecialNotes) > maxNotesLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "special notes exceed 500 characters")
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	driver, err := s.repo.FindDriver(ctx, input.DriverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, err
	}
	if driver.AvailabilityStatus != enums.DriverAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver is not available")
	}

	capacity, err := s.RemainingCapacity(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	orderQty, err := s.repo.ItemQtySumForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if orderQty > capacity.Remaining {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver capacity exceeded")
	}

	var created *models.Assignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment := &models.Assignment{
			OrderID:      order.ID,
			DriverID:     driver.ID,
			ScheduleTime: input.ScheduleTime,
			SpecialNotes: input.SpecialNotes,
			Status:       enums.AssignmentStatusPending,
		}
		if err := repo.Create(ctx, assignment); err != nil {
			return err
		}
		if err := repo.SetOrderAssignmentState(ctx, order.ID, enums.AssignmentStateAssigned); err != nil {
			return err
		}
		if err := repo.SetDriverAvailability(ctx, driver.ID, enums.DriverBusy); err != nil {
			return err
		}
		created = assignment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDriverAssigned,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Data: payloads.DriverAssignedEvent{
				AssignmentID: assignment.ID,
				OrderID:      order.ID,
				OrderNo:      order.OrderNo,
				BuyerID:      order.BuyerID,
				DriverID:     driver.ID,
				ScheduleTime: input.ScheduleTime,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteAssignment unbooks a delivery and resets the order and driver flags.
func (s *service) DeleteAssignment(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		assignment, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return err
		}

		if err := repo.Delete(ctx, assignment.ID); err != nil {
			return err
		}
		if err := repo.SetOrderAssignmentState(ctx, assignment.OrderID, enums.AssignmentStateUnassigned); err != nil {
			return err
		}
		return repo.SetDriverAvailability(ctx, assignment.DriverID, enums.DriverAvailable)
	})
}

func (s *service) ListByDriver(ctx context.Context, driverID int64) ([]models.Assignment, error) {
	return s.repo.ListByDriver(ctx, driverID)
}

func (s *service) ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.Assignment, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment status")
	}
	return s.repo.ListByStatus(ctx, status)
}
