package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/tasks"
)

// NewEnqueueCmd создаёт группу команд постановки задач.
func NewEnqueueCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue tasks",
	}

	cmd.AddCommand(
		newEnqueuePayCmd(depsFn, outputFn),
		newEnqueueRefundCmd(depsFn, outputFn),
		newEnqueueNotifyCmd(depsFn, outputFn),
		newEnqueueEmailCmd(depsFn, outputFn),
	)

	return cmd
}

// enqueue публикует задачу и возвращает её envelope.
func enqueue(cmd *cobra.Command, deps *Deps, t tasks.Task) (*mq.Envelope, error) {
	disp, err := deps.Dispatcher()
	if err != nil {
		return nil, err
	}

	queue, ok := tasks.QueueFor(t.Kind())
	if !ok {
		return nil, fmt.Errorf("no queue for task %q", t.Kind())
	}

	env := tasks.Encode(t)
	if err := disp.Enqueue(cmd.Context(), queue, env); err != nil {
		return nil, err
	}
	return env, nil
}

func newEnqueuePayCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pay USER_ID AMOUNT",
		Short: "Create a payment and enqueue its processing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			payment, err := domain.NewPayment(userID, amount)
			if err != nil {
				return err
			}

			pool, err := deps.Pool(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.NewPaymentRepo(pool).Create(cmd.Context(), payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}

			env, err := enqueue(cmd, deps, tasks.ProcessPayment{PaymentID: payment.ID})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Payment created: %s", payment.ID))
			out.Print(
				[]string{"PAYMENT_ID", "TASK_ID", "STATUS", "AMOUNT"},
				[][]string{{payment.ID.String(), env.ID, string(payment.Status), args[1]}},
				map[string]any{"payment_id": payment.ID, "task_id": env.ID, "status": payment.Status, "amount": amount},
			)
			return nil
		},
	}
}

func newEnqueueRefundCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "refund PAYMENT_ID AMOUNT",
		Short: "Enqueue a refund for a completed payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			paymentID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid payment id %q: %w", args[0], err)
			}

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			env, err := enqueue(cmd, deps, tasks.RefundPayment{PaymentID: paymentID, Amount: amount})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Refund enqueued: %s", env.ID))
			out.Print(
				[]string{"TASK_ID", "PAYMENT_ID", "AMOUNT"},
				[][]string{{env.ID, args[0], args[1]}},
				env,
			)
			return nil
		},
	}
}

func newEnqueueNotifyCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "notify USER_ID MESSAGE",
		Short: "Enqueue a notification delivery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			env, err := enqueue(cmd, deps, tasks.SendNotification{UserID: userID, Message: args[1]})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Notification enqueued: %s", env.ID))
			out.Print(
				[]string{"TASK_ID", "USER_ID"},
				[][]string{{env.ID, args[0]}},
				env,
			)
			return nil
		},
	}
}

func newEnqueueEmailCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "email ADDRESS SUBJECT BODY",
		Short: "Enqueue an email delivery",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			env, err := enqueue(cmd, deps, tasks.SendEmail{
				Email:   args[0],
				Subject: args[1],
				Body:    args[2],
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Email enqueued: %s", env.ID))
			out.Print(
				[]string{"TASK_ID", "TO", "SUBJECT"},
				[][]string{{env.ID, args[0], args[1]}},
				env,
			)
			return nil
		},
	}
}
