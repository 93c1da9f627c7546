package main

import (
	"context"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradefixture/src/database"
	"tradefixture/src/database/migrations"
	"tradefixture/src/fixture"
)

func main() {
	app := cli.NewApp()
	app.Name = "tradefixture"
	app.Usage = "reproduce the owned-value-object update anomaly against PostgreSQL"

	app.Commands = []cli.Command{
		reproCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var reproCMD = cli.Command{
	Name:      "repro",
	Usage:     "run the insert/update/read-back scenario",
	Action:    reproAction,
	ArgsUsage: "",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "path",
			Usage: "update path: 'replace' commits a freshly assigned commission, 'mutate' edits the tracked one in place",
			Value: string(fixture.PathReplaceCommission),
		},
		cli.BoolFlag{
			Name:  "reset",
			Usage: "drop and recreate tr.trades before running",
		},
	},
	Description: `Inserts a trade, reads it back, applies the selected update path and
asserts the persisted row against the written values.`,
}

func reproAction(c *cli.Context) error {
	config := database.GetConfig()
	setupLogger(config)

	db, err := database.Connect(config)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if c.Bool("reset") {
		if err := migrations.Reset(db); err != nil {
			return err
		}
		if err := migrations.EnsureTradesTable(db); err != nil {
			return err
		}
	}

	report, err := fixture.Run(context.Background(), db, fixture.UpdatePath(c.String("path")))
	if err != nil {
		return err
	}

	if report.Diverged() {
		for _, m := range report.Mismatches {
			logger.WithFields(map[string]interface{}{
				"run_id":   report.RunID,
				"field":    m.Field,
				"expected": m.Expected,
				"actual":   m.Actual,
			}).Error("persisted row does not match written value")
		}
		return fmt.Errorf("update path %q diverged in %d field(s)", report.Path, len(report.Mismatches))
	}

	logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"trade_id": report.TradeID,
		"path":     report.Path,
	}).Info("scenario completed, persisted row matches written values")

	return nil
}

func setupLogger(config database.Config) {
	level, err := logger.ParseLevel(config.LogLevel)
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	if config.LogFormat == "json" {
		logger.SetFormatter(&logger.JSONFormatter{})
	} else {
		logger.SetFormatter(&logger.TextFormatter{
			FullTimestamp: true,
		})
	}
}
