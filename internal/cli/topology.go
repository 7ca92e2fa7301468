package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/mq"
)

// NewTopologyCmd создаёт команду просмотра схемы брокера.
func NewTopologyCmd(depsFn func() *Deps, outputFn func() *Output) *cobra.Command {
	var declare bool

	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Show the broker topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if declare {
				deps := depsFn()
				conn, err := deps.Conn()
				if err != nil {
					return err
				}
				if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
					return err
				}
				out.Success("Topology declared")
			}

			out.Text(mq.TopologyInfo())
			return nil
		},
	}

	cmd.Flags().BoolVar(&declare, "declare", false, "Declare exchanges and queues on the broker")

	return cmd
}
