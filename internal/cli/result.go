package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/worker"
)

// NewResultCmd создаёт команду чтения результата задачи.
func NewResultCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "result TASK_ID",
		Short: "Show the outcome of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			rdb, err := deps.Redis()
			if err != nil {
				return err
			}

			res, err := worker.NewRedisResults(rdb).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"TASK_ID", "TASK", "STATUS", "RETRY", "DETAIL", "FINISHED"},
				[][]string{{
					res.TaskID,
					res.Task,
					res.Status,
					strconv.Itoa(res.Retry),
					res.Detail,
					res.FinishedAt.Format(time.RFC3339),
				}},
				res,
			)
			return nil
		},
	}
}
