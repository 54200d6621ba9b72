package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

var dbPingTimeout time.Duration

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Job store maintenance",
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Open the job store, apply migrations and check it responds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmdContext(cmd)
		logger, err := newLogger(stderr(cmd))
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := server.ConnectDB(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close(logger)

		if err := server.PingDB(ctx, db, logger, dbPingTimeout); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s)\n", db.Dialect())
		return nil
	},
}

func init() {
	dbPingCmd.Flags().DurationVar(&dbPingTimeout, "timeout", time.Second, "ping timeout")
	dbCmd.AddCommand(dbPingCmd)
	rootCmd.AddCommand(dbCmd)
}
