package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/tasks"
)

// processPayment проводит платёж через state machine
// PENDING → COMPLETED | FAILED.
//
// Идемпотентность (at-least-once): уже терминальный платёж — успех без
// повторной мутации. Конкурентные доставки сериализуются условным
// UPDATE: проигравший наблюдает applied=false и выходит идемпотентно.
//
// Ошибка расчёта терминальна: платёж уходит в FAILED и НЕ ретраится —
// повторный прогон расчёта с нуля небезопасен без отдельной
// компенсационной схемы.
func (w *Worker) processPayment(ctx context.Context, t tasks.ProcessPayment) error {
	p, err := w.payments.GetByID(ctx, t.PaymentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, t.PaymentID)
		}
		return fmt.Errorf("load payment: %w", err)
	}

	if p.IsTerminal() {
		w.logger.Info("payment already terminal, skipping",
			"payment_id", p.ID,
			"status", p.Status,
		)
		return nil
	}

	target := domain.PaymentStatusCompleted
	if settleErr := w.settler.Settle(ctx, p); settleErr != nil {
		w.logger.Warn("payment settlement failed",
			"payment_id", p.ID,
			"amount", p.Amount,
			"error", settleErr,
		)
		target = domain.PaymentStatusFailed
	}

	applied, err := w.payments.TransitionFromPending(ctx, p.ID, target, time.Now())
	if err != nil {
		return fmt.Errorf("transition payment: %w", err)
	}
	if !applied {
		// Конкурентная доставка применила переход первой.
		w.logger.Info("payment transition already applied elsewhere",
			"payment_id", p.ID,
		)
		return nil
	}

	w.logger.Info("payment processed",
		"payment_id", p.ID,
		"user_id", p.UserID,
		"amount", p.Amount,
		"status", target,
	)
	return nil
}

// refundPayment фиксирует возврат платежа.
//
// Payment.status НЕ мутируется: state machine знает только переходы
// PENDING → terminal. Возврат пишется операционной записью, сверку
// выполняет биллинг-подсистема.
func (w *Worker) refundPayment(ctx context.Context, t tasks.RefundPayment) error {
	p, err := w.payments.GetByID(ctx, t.PaymentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, t.PaymentID)
		}
		return fmt.Errorf("load payment: %w", err)
	}

	if p.Status != domain.PaymentStatusCompleted {
		return fmt.Errorf("%w: payment %s is %s", ErrPaymentNotRefundable, p.ID, p.Status)
	}

	data, err := json.Marshal(map[string]any{
		"payment_id": p.ID,
		"user_id":    p.UserID,
		"amount":     t.Amount,
	})
	if err != nil {
		return fmt.Errorf("marshal refund record: %w", err)
	}

	if err := w.records.Create(ctx, domain.NewRecord(domain.RecordKindRefund, string(data))); err != nil {
		return fmt.Errorf("create refund record: %w", err)
	}

	w.logger.Info("refund recorded",
		"payment_id", p.ID,
		"amount", t.Amount,
	)
	return nil
}
