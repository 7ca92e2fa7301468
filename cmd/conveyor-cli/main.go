// Conveyor CLI — инструмент командной строки для постановки задач,
// чтения результатов и разбора dead letter queue.
//
// Использование:
//
//	conveyor-cli [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	enqueue   Постановка задач (pay, refund, notify, email)
//	result    Итог выполнения задачи по task id
//	dlq       Просмотр и возврат dead-lettered задач
//	schedule  Просмотр расписания служебных задач
//	topology  Схема обменников и очередей брокера
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor-cli",
		Short:         "Conveyor CLI — async task processing tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	deps := cli.NewDeps()
	defer deps.Close()

	depsFn := func() *cli.Deps { return deps }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewEnqueueCmd(depsFn, outputFn),
		cli.NewResultCmd(depsFn, outputFn),
		cli.NewDLQCmd(depsFn, outputFn),
		cli.NewScheduleCmd(outputFn),
		cli.NewTopologyCmd(depsFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
