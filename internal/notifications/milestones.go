package notifications

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
)

// Milestone ladders. Each threshold notifies at most once per user; the unique
// index on milestone_records carries the guarantee, so re-running the ladder
// after every paid order is safe.
var (
	earningsLadder = []int64{1000, 5000, 10000, 25000, 50000, 100000}
	ordersLadder   = []int64{10, 25, 50, 100, 250, 500}
)

// MilestoneService re-evaluates milestone ladders against cumulative paid totals.
type MilestoneService struct {
	repo Repository
	logg *logger.Logger
}

// NewMilestoneService wires a milestone evaluator.
func NewMilestoneService(repo Repository, logg *logger.Logger) (*MilestoneService, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MilestoneService{repo: repo, logg: logg}, nil
}

// EvaluatePaidOrder walks both ladders and awards every crossed threshold the
// user has not been notified about yet. Individual award failures are
// collected rather than aborting the sweep.
func (m *MilestoneService) EvaluatePaidOrder(ctx context.Context, userID int64, earnings decimal.Decimal, orderCount int64) error {
	var errs error

	for _, threshold := range earningsLadder {
		value := decimal.NewFromInt(threshold)
		if earnings.LessThan(value) {
			break
		}
		if err := m.award(ctx, userID, enums.MilestoneEarnings, value); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("earnings milestone %d: %w", threshold, err))
		}
	}

	for _, threshold := range ordersLadder {
		if orderCount < threshold {
			break
		}
		if err := m.award(ctx, userID, enums.MilestoneOrders, decimal.NewFromInt(threshold)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("orders milestone %d: %w", threshold, err))
		}
	}

	return errs
}

func (m *MilestoneService) award(ctx context.Context, userID int64, milestoneType enums.MilestoneType, value decimal.Decimal) error {
	record := &models.MilestoneRecord{
		UserID:         userID,
		MilestoneType:  milestoneType,
		MilestoneValue: value,
	}
	if err := m.repo.CreateMilestoneRecord(ctx, record); err != nil {
		if db.IsUniqueViolation(err) {
			// already awarded
			return nil
		}
		return err
	}

	notification := &models.Notification{
		UserID:  &userID,
		Type:    notificationTypeFor(milestoneType),
		Message: milestoneMessage(milestoneType, value),
	}
	if err := m.repo.Create(ctx, notification); err != nil {
		return err
	}

	fields := map[string]any{
		"user_id":         userID,
		"milestone_type":  milestoneType,
		"milestone_value": value.String(),
	}
	m.logg.Info(m.logg.WithFields(ctx, fields), "milestone awarded")
	return nil
}

func notificationTypeFor(milestoneType enums.MilestoneType) enums.NotificationType {
	if milestoneType == enums.MilestoneEarnings {
		return enums.NotificationMilestoneEarnings
	}
	return enums.NotificationMilestoneOrders
}

func milestoneMessage(milestoneType enums.MilestoneType, value decimal.Decimal) string {
	if milestoneType == enums.MilestoneEarnings {
		return fmt.Sprintf("Congratulations! You have reached $%s in total purchases.", value.StringFixed(0))
	}
	return fmt.Sprintf("Congratulations! You have placed %s orders.", value.StringFixed(0))
}
