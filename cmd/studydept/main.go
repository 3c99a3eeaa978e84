// Package main - точка входа CLI справочника студентов.
//
// Команды:
//   - search: фильтрация и сортировка студентов
//   - suggest: автодополнение полных имён по словам запроса
//   - serve: HTTP API только для чтения
//
// Ростер загружается из YAML файла (--roster) или из PostgreSQL
// (--database-url). Результаты suggest кешируются в Redis, если
// REDIS_ENABLED=true.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	if err := c.execute(ctx, c.rootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// cli держит флаги и собранное приложение для подкоманд.
type cli struct {
	opts options
	app  *app
}

// execute запускает root и закрывает приложение при любом исходе.
// cobra не вызывает PersistentPostRun, если RunE вернул ошибку.
func (c *cli) execute(ctx context.Context, root *cobra.Command) error {
	defer func() {
		if c.app != nil {
			c.app.Close()
			c.app = nil
		}
	}()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studydept",
		Short:         "Query a student directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.rosterFile, "roster", "", "YAML roster file (overrides ROSTER_FILE)")
	flags.StringVar(&c.opts.databaseURL, "database-url", "", "PostgreSQL URL to read the roster from (overrides DATABASE_URL)")
	flags.StringVar(&c.opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	flags.StringVar(&c.opts.removeFile, "remove", "", "YAML roster of students to remove after loading")

	root.AddCommand(c.newSearchCmd(), c.newSuggestCmd(), c.newServeCmd())
	return root
}
