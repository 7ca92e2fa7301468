package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/tasks"
)

// NewScheduleCmd создаёт группу команд просмотра расписания.
func NewScheduleCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect the periodic task schedule",
	}

	cmd.AddCommand(newScheduleListCmd(outputFn))

	return cmd
}

func newScheduleListCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedule entries with active cadences",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			entries := scheduler.Entries()

			type entryView struct {
				Name  string `json:"name"`
				Cron  string `json:"cron"`
				Task  string `json:"task"`
				Queue string `json:"queue"`
			}

			headers := []string{"NAME", "CRON", "TASK", "QUEUE"}
			rows := make([][]string, len(entries))
			views := make([]entryView, len(entries))
			for i, e := range entries {
				queue, _ := tasks.QueueFor(e.Task.Kind())
				views[i] = entryView{
					Name:  e.Name,
					Cron:  e.Cron,
					Task:  string(e.Task.Kind()),
					Queue: string(queue),
				}
				rows[i] = []string{views[i].Name, views[i].Cron, views[i].Task, views[i].Queue}
			}

			out.Print(headers, rows, views)
			return nil
		},
	}
}
