/*
Package cli provides helpers shared by the rhythm commands.

Output:

Command results are rendered as text, JSON or CSV. Tabular results use
Table so every format can render them:

	table := cli.Table{Headers: []string{"KEY", "CAPACITY"}}
	table.Append("10.0.0.1", "50")
	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Progress:

Simulations report progress from many goroutines through Add:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)
	progress.Add(1)
	progress.Finish()

Signals:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	reload := cli.NotifyReload(ctx)

Errors:

ExitCode maps ConfigError to 2 and any other error to 1.
*/
package cli
