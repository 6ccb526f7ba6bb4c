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
	"os"

	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/operator"
	"github.com/spf13/cobra"
)

var downloadCommand = &cobra.Command{
	Use:   "download",
	Short: "Download the ratings archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if s.cfg.Dataset.URL == "" {
			return errors.NotValidf("empty dataset url")
		}
		op := operator.NewDownloader(operator.Gate{
			Source:      s.cfg.Dataset.URL,
			Destination: s.cfg.Dataset.Download,
			Force:       s.cfg.Pipeline.Force,
		})
		op.Progress = os.Stderr
		return runOperator(s, operator.TaskDownload, op)
	},
}

var extractCommand = &cobra.Command{
	Use:   "extract",
	Short: "Extract ratings from the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		member, _ := cmd.Flags().GetString("member")
		if !cmd.Flags().Changed("member") {
			member = s.cfg.Dataset.Member
		}
		op := operator.NewZipExtractor(operator.Gate{
			Source:      s.cfg.Dataset.Download,
			Destination: s.cfg.Dataset.ExtractDir,
			Force:       s.cfg.Pipeline.Force,
		}, member)
		return runOperator(s, operator.TaskExtract, op)
	},
}

var loadCommand = &cobra.Command{
	Use:   "load",
	Short: "Load extracted ratings into the artifact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		op := operator.NewRatingsLoader(s.store, operator.Gate{
			Source:      operator.RatingsFile(s.cfg.Dataset),
			Destination: s.cfg.Pipeline.Ratings,
			Force:       s.cfg.Pipeline.Force,
		}, operator.CSVOptions(s.cfg.Dataset))
		op.Required = []string{s.cfg.Dataset.UserColumn, s.cfg.Dataset.ItemColumn}
		return runOperator(s, operator.TaskLoad, op)
	},
}

var sampleCommand = &cobra.Command{
	Use:   "sample",
	Short: "Sample ratings of a fraction of users",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		fraction, seed := s.cfg.Pipeline.SampleFraction, s.cfg.Pipeline.SampleSeed
		if cmd.Flags().Changed("fraction") {
			fraction, _ = cmd.Flags().GetFloat64("fraction")
		}
		if cmd.Flags().Changed("seed") {
			seed, _ = cmd.Flags().GetInt64("seed")
		}
		destination := s.cfg.Pipeline.Sample
		if cmd.Flags().Changed("destination") || destination == "" {
			destination, _ = cmd.Flags().GetString("destination")
		}
		op := operator.NewSampler(s.store, operator.Gate{
			Source:      s.cfg.Pipeline.Ratings,
			Destination: destination,
			Force:       s.cfg.Pipeline.Force,
		}, fraction, seed)
		op.UserVar = s.cfg.Dataset.UserColumn
		return runOperator(s, operator.TaskSample, op)
	},
}

var indexCommand = &cobra.Command{
	Use:   "index",
	Short: "Compute co-occurrence indices",
}

var userIndexCommand = &cobra.Command{
	Use:   "user",
	Short: "Map pairs of users to the items both rated",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, operator.TaskUserIndex)
	},
}

var itemIndexCommand = &cobra.Command{
	Use:   "item",
	Short: "Map pairs of items to the users who rated both",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, operator.TaskItemIndex)
	},
}

func runIndex(cmd *cobra.Command, task string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	gate := operator.Gate{Source: s.cfg.Pipeline.Ratings, Force: s.cfg.Pipeline.Force}
	if s.cfg.Pipeline.Sample != "" {
		gate.Source = s.cfg.Pipeline.Sample
	}
	if cmd.Flags().Changed("source") {
		gate.Source, _ = cmd.Flags().GetString("source")
	}
	var op *operator.CooccurrenceIndex
	if task == operator.TaskUserIndex {
		gate.Destination = s.cfg.Pipeline.UserIndex
		if cmd.Flags().Changed("destination") {
			gate.Destination, _ = cmd.Flags().GetString("destination")
		}
		op = operator.NewUserCooccurrenceIndex(s.store, gate)
	} else {
		gate.Destination = s.cfg.Pipeline.ItemIndex
		if cmd.Flags().Changed("destination") {
			gate.Destination, _ = cmd.Flags().GetString("destination")
		}
		op = operator.NewItemCooccurrenceIndex(s.store, gate)
	}
	if gate.Destination == "" {
		return errors.NotValidf("empty destination of %s", task)
	}
	op.UserVar, op.ItemVar = s.cfg.Dataset.UserColumn, s.cfg.Dataset.ItemColumn
	return runOperator(s, task, op)
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the configured pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		name, _ := cmd.Flags().GetString("job")
		job, err := operator.NewPipeline(name, s.cfg, s.store, s.ledger)
		if err != nil {
			return errors.Trace(err)
		}
		return runJob(job)
	},
}

func init() {
	extractCommand.Flags().String("member", "", "member to extract (all members if empty)")
	sampleCommand.Flags().Float64("fraction", 0.01, "fraction of users to keep")
	sampleCommand.Flags().Int64("seed", 0, "random seed")
	sampleCommand.Flags().String("destination", "ratings_sample.csv", "key of the sampled ratings")
	for _, command := range []*cobra.Command{userIndexCommand, itemIndexCommand} {
		command.Flags().String("source", "", "key of the ratings table")
		command.Flags().String("destination", "", "key of the index")
		indexCommand.AddCommand(command)
	}
	runCommand.Flags().String("job", "pipeline", "job name recorded in the ledger")
	rootCommand.AddCommand(downloadCommand, extractCommand, loadCommand, sampleCommand, indexCommand, runCommand)
}
