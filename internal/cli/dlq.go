package cli

import (
	"context"
	"fmt"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/mq"
)

// NewDLQCmd создаёт группу команд для разбора dead letter queue.
func NewDLQCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and drain the dead letter queue",
	}

	cmd.AddCommand(
		newDLQListCmd(depsFn, outputFn),
		newDLQRequeueCmd(depsFn, outputFn),
		newDLQPurgeCmd(depsFn, outputFn),
	)

	return cmd
}

// deadEntry — одно сообщение DLQ для вывода.
type deadEntry struct {
	TaskID string `json:"task_id"`
	Task   string `json:"task"`
	Origin string `json:"origin_queue"`
	Reason string `json:"reason"`
	Retry  int    `json:"retry"`
}

// headerString достаёт строковый заголовок из amqp.Table.
func headerString(headers amqp.Table, key string) string {
	if headers == nil {
		return ""
	}
	if v, ok := headers[key].(string); ok {
		return v
	}
	return ""
}

func newDLQListCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			conn, err := deps.Conn()
			if err != nil {
				return err
			}

			ch, err := conn.NewChannel()
			if err != nil {
				return err
			}
			defer ch.Close()

			// Сообщения забираются без ack и возвращаются в очередь
			// одним nack после просмотра.
			var tags []uint64
			var entries []deadEntry
			for len(entries) < limit {
				msg, ok, err := ch.Get(string(mq.QueueDeadLetter), false)
				if err != nil {
					return fmt.Errorf("read dead letter queue: %w", err)
				}
				if !ok {
					break
				}
				tags = append(tags, msg.DeliveryTag)

				entry := deadEntry{
					Origin: headerString(msg.Headers, mq.HeaderOriginQueue),
					Reason: headerString(msg.Headers, mq.HeaderDeadReason),
				}
				if env, err := mq.DecodeEnvelope(msg.Body); err == nil {
					entry.TaskID = env.ID
					entry.Task = env.Task
					entry.Retry = env.Retry
				} else {
					entry.Task = "<malformed>"
				}
				entries = append(entries, entry)
			}

			// multiple=true возвращает всё просмотренное разом.
			if len(tags) > 0 {
				if err := ch.Nack(tags[len(tags)-1], true, true); err != nil {
					return fmt.Errorf("return messages to queue: %w", err)
				}
			}

			headers := []string{"TASK_ID", "TASK", "ORIGIN", "REASON", "RETRY"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.TaskID, e.Task, e.Origin, e.Reason, strconv.Itoa(e.Retry)}
			}

			out.Print(headers, rows, entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of messages to show")

	return cmd
}

// dlqChannel — срез AMQP канала, достаточный для разбора DLQ.
type dlqChannel interface {
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
}

// dlqDispatcher — публикация возвращаемых задач в исходные очереди.
type dlqDispatcher interface {
	Enqueue(ctx context.Context, queue mq.Queue, env *mq.Envelope) error
}

// requeueDeadLetters сканирует DLQ: подходящие сообщения публикует в
// исходную очередь и подтверждает, остальные держит без ack и после
// прохода возвращает одним nack (тот же приём, что в dlq list).
//
// Немедленный nack с requeue здесь недопустим: сообщение вернулось бы
// в голову очереди, следующий Get читал бы его же, и проход никогда
// не продвинулся бы дальше первого несовпавшего сообщения.
func requeueDeadLetters(ctx context.Context, ch dlqChannel, disp dlqDispatcher, wantID string, all bool) (int, error) {
	var requeued int
	var held uint64

	// multiple=true покрывает все неподтверждённые доставки до тега.
	returnHeld := func() error {
		if held == 0 {
			return nil
		}
		return ch.Nack(held, true, true)
	}

	for {
		msg, ok, err := ch.Get(string(mq.QueueDeadLetter), false)
		if err != nil {
			_ = returnHeld()
			return requeued, fmt.Errorf("read dead letter queue: %w", err)
		}
		if !ok {
			break
		}

		env, err := mq.DecodeEnvelope(msg.Body)
		if err != nil || (!all && env.ID != wantID) {
			// Повреждённые и несовпавшие придерживаются до конца прохода.
			held = msg.DeliveryTag
			continue
		}

		origin := mq.Queue(headerString(msg.Headers, mq.HeaderOriginQueue))
		if origin == "" {
			origin = mq.QueueDefault
		}

		// Счётчик попыток сбрасывается: у возвращённой задачи
		// свежий бюджет ретраев.
		env.Retry = 0
		if err := disp.Enqueue(ctx, origin, env); err != nil {
			// Неопубликованное сообщение возвращается вместе с
			// придержанными.
			_ = ch.Nack(msg.DeliveryTag, true, true)
			return requeued, fmt.Errorf("requeue task %s: %w", env.ID, err)
		}

		if err := ch.Ack(msg.DeliveryTag, false); err != nil {
			_ = returnHeld()
			return requeued, fmt.Errorf("ack dead letter: %w", err)
		}
		requeued++

		if !all {
			break
		}
	}

	if err := returnHeld(); err != nil {
		return requeued, fmt.Errorf("return messages to queue: %w", err)
	}
	return requeued, nil
}

func newDLQRequeueCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "requeue [TASK_ID]",
		Short: "Send dead-lettered tasks back to their origin queues",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			if !all && len(args) == 0 {
				return fmt.Errorf("specify TASK_ID or --all")
			}
			var wantID string
			if len(args) == 1 {
				wantID = args[0]
			}

			conn, err := deps.Conn()
			if err != nil {
				return err
			}
			disp, err := deps.Dispatcher()
			if err != nil {
				return err
			}

			ch, err := conn.NewChannel()
			if err != nil {
				return err
			}
			defer ch.Close()

			requeued, err := requeueDeadLetters(cmd.Context(), ch, disp, wantID, all)
			if err != nil {
				return err
			}
			if requeued == 0 && !all {
				return fmt.Errorf("task %s not found in dead letter queue", wantID)
			}

			out.Success(fmt.Sprintf("Requeued %d task(s)", requeued))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Requeue every message in the queue")

	return cmd
}

func newDLQPurgeCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop every message in the dead letter queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("purge is destructive, confirm with --yes")
			}

			deps := depsFn()
			out := outputFn()

			conn, err := deps.Conn()
			if err != nil {
				return err
			}

			ch, err := conn.NewChannel()
			if err != nil {
				return err
			}
			defer ch.Close()

			purged, err := ch.QueuePurge(string(mq.QueueDeadLetter), false)
			if err != nil {
				return fmt.Errorf("purge dead letter queue: %w", err)
			}

			out.Success(fmt.Sprintf("Purged %d message(s)", purged))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the purge")

	return cmd
}
