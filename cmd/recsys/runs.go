// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/recsys-lab/pipeline/storage/meta"
	"github.com/spf13/cobra"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "List recorded task runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ledger, err := meta.Open(cfg.Ledger.Path)
		if err != nil {
			return errors.Trace(err)
		}
		defer ledger.Close()
		if err = ledger.Init(); err != nil {
			return errors.Trace(err)
		}
		job, _ := cmd.Flags().GetString("job")
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := ledger.ListRuns(job, limit)
		if err != nil {
			return errors.Trace(err)
		}
		return renderRuns(cmd.OutOrStdout(), runs)
	},
}

func renderRuns(w io.Writer, runs []*meta.Run) error {
	table := tablewriter.NewWriter(w)
	table.Header("start", "job", "task", "operator", "destination", "status", "duration", "error")
	for _, run := range runs {
		duration := ""
		if !run.EndTime.IsZero() {
			duration = run.EndTime.Sub(run.StartTime).Round(time.Millisecond).String()
		}
		if err := table.Append([]string{
			run.StartTime.Local().Format(time.DateTime),
			run.Job,
			run.Task,
			run.Operator,
			run.Destination,
			string(run.Status),
			duration,
			run.Error,
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func init() {
	runsCommand.Flags().String("job", "", "only list runs of this job")
	runsCommand.Flags().Int("limit", 20, "maximum number of runs")
	rootCommand.AddCommand(runsCommand)
}
