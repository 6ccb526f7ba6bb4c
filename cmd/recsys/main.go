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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/cmd/version"
	"github.com/recsys-lab/pipeline/config"
	"github.com/recsys-lab/pipeline/operator"
	"github.com/recsys-lab/pipeline/storage/artifact"
	"github.com/recsys-lab/pipeline/storage/meta"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "recsys",
	Short: "Data preparation pipeline for recommender systems.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return nil
		}
		return cmd.Help()
	},
	SilenceUsage: true,
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of recsys",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().Bool("force", false, "recompute artifacts that already exist")
	rootCommand.Flags().BoolP("version", "v", false, "recsys version")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// loadConfig loads the configuration named by --config and applies --force.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if force, _ := cmd.Flags().GetBool("force"); force {
		cfg.Pipeline.Force = true
	}
	return cfg, nil
}

// session holds the stores opened for one command.
type session struct {
	cfg    *config.Config
	store  *artifact.Store
	ledger meta.Database
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := artifact.Open(cfg.Storage)
	if err != nil {
		return nil, errors.Annotate(err, "open artifact store")
	}
	ledger, err := meta.Open(cfg.Ledger.Path)
	if err != nil {
		store.Close()
		return nil, errors.Annotate(err, "open ledger")
	}
	if err = ledger.Init(); err != nil {
		store.Close()
		_ = ledger.Close()
		return nil, errors.Annotate(err, "init ledger")
	}
	return &session{cfg: cfg, store: store, ledger: ledger}, nil
}

func (s *session) Close() {
	s.store.Close()
	if err := s.ledger.Close(); err != nil {
		log.Logger().Warn("failed to close ledger", zap.Error(err))
	}
}

// runJob runs a job until it completes or the process is interrupted.
func runJob(job *operator.Job) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	job.SetProgressOutput(os.Stderr)
	err := job.Run(ctx)
	for _, task := range job.Tasks() {
		fmt.Printf("%-12s %s\n", task.Name, task.Status())
	}
	return err
}

// runOperator runs a single operator as a job named after the command.
func runOperator(s *session, name string, op operator.Operator) error {
	job := operator.NewJob(name, s.ledger)
	if err := job.AddTask(&operator.Task{Name: name, Operator: op}); err != nil {
		return errors.Trace(err)
	}
	return runJob(job)
}
