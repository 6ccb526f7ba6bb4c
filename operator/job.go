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
package operator

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/recsys-lab/pipeline/base/log"
	"github.com/recsys-lab/pipeline/base/progress"
	"github.com/recsys-lab/pipeline/storage/meta"
	"go.uber.org/zap"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Task is a named step of a job.
type Task struct {
	Name        string
	Description string
	Operator    Operator
	// Input names an earlier task. Its result is passed to Operator unless it was skipped.
	Input string

	status Status
	err    error
}

func (t *Task) Status() Status {
	return t.status
}

func (t *Task) Err() error {
	return t.err
}

// Job runs tasks in the order they were added. Every task run is recorded in the ledger
// if one is given.
type Job struct {
	Name   string
	ledger meta.Database
	tracer *progress.Tracer

	mu     sync.Mutex
	tasks  []*Task
	status Status
}

func NewJob(name string, ledger meta.Database) *Job {
	return &Job{
		Name:   name,
		ledger: ledger,
		tracer: progress.NewTracer(name),
		status: StatusPending,
	}
}

// SetProgressOutput renders a progress bar of the job to w.
func (j *Job) SetProgressOutput(w io.Writer) {
	j.tracer.SetOutput(w)
}

// AddTask appends a task. Task names must be unique and Input must name an earlier task.
func (j *Job) AddTask(task *Task) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if task.Operator == nil {
		return errors.NotValidf("task %s without operator", task.Name)
	}
	found := task.Input == ""
	for _, t := range j.tasks {
		if t.Name == task.Name {
			return errors.AlreadyExistsf("task %s", task.Name)
		}
		if t.Name == task.Input {
			found = true
		}
	}
	if !found {
		return errors.NotFoundf("input %s of task %s", task.Input, task.Name)
	}
	task.status = StatusPending
	task.err = nil
	j.tasks = append(j.tasks, task)
	return nil
}

func (j *Job) Tasks() []*Task {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*Task(nil), j.tasks...)
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress lists the progress of job runs.
func (j *Job) Progress() []progress.Progress {
	return j.tracer.List()
}

// Run executes all tasks. It stops at the first failed task and returns its error; the
// remaining tasks stay pending.
func (j *Job) Run(ctx context.Context) error {
	tasks := j.Tasks()
	j.setStatus(StatusRunning)
	ctx, span := j.tracer.Start(ctx, j.Name, len(tasks))
	results := make(map[string]any, len(tasks))
	for _, task := range tasks {
		task.status = StatusPending
		task.err = nil
	}
	for _, task := range tasks {
		result, err := j.runTask(ctx, task, results[task.Input])
		span.Add(1)
		if err != nil {
			span.Fail(err)
			j.setStatus(StatusFailed)
			return errors.Annotatef(err, "task %s", task.Name)
		}
		results[task.Name] = result
	}
	span.End()
	j.setStatus(StatusComplete)
	return nil
}

func (j *Job) runTask(ctx context.Context, task *Task, input any) (any, error) {
	source, destination := task.Operator.Endpoints()
	run := &meta.Run{
		ID:          uuid.New().String(),
		Job:         j.Name,
		Task:        task.Name,
		Operator:    task.Operator.Name(),
		Source:      log.RedactURL(source),
		Destination: log.RedactURL(destination),
		Status:      meta.RunRunning,
		StartTime:   time.Now(),
	}
	if j.ledger != nil {
		if err := j.ledger.StartRun(run); err != nil {
			return nil, errors.Trace(err)
		}
	}
	task.status = StatusRunning
	log.Logger().Info("start task", zap.String("job", j.Name), zap.String("task", task.Name), zap.String("run", run.ID))

	result, err := task.Operator.Execute(ctx, input)
	var message string
	switch {
	case err != nil:
		task.status = StatusFailed
		task.err = err
		message = err.Error()
		log.Logger().Error("task failed", zap.String("job", j.Name), zap.String("task", task.Name), zap.Error(err))
	case result == nil:
		task.status = StatusSkipped
		log.Logger().Info("task skipped", zap.String("job", j.Name), zap.String("task", task.Name))
	default:
		task.status = StatusComplete
		log.Logger().Info("task complete", zap.String("job", j.Name), zap.String("task", task.Name))
	}
	if j.ledger != nil {
		if ledgerErr := j.ledger.FinishRun(run.ID, meta.RunStatus(task.status), message, time.Now()); ledgerErr != nil {
			if err != nil {
				log.Logger().Error("failed to record task", zap.String("run", run.ID), zap.Error(ledgerErr))
				return nil, err
			}
			return nil, errors.Trace(ledgerErr)
		}
	}
	return result, err
}

func (j *Job) setStatus(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}
