// Copyright 2024 gorse Project Authors
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

package meta

import (
	"database/sql"
	"time"

	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init() error {
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	job TEXT,
	task TEXT,
	operator TEXT,
	source TEXT,
	destination TEXT,
	status TEXT,
	error TEXT,
	start_time DATETIME,
	end_time DATETIME
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`
CREATE INDEX IF NOT EXISTS runs_job_start_time ON runs (job, start_time);`); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *SQLite) StartRun(run *Run) error {
	_, err := s.db.Exec(`
INSERT INTO runs (id, job, task, operator, source, destination, status, error, start_time)
VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)
`, run.ID, run.Job, run.Task, run.Operator, run.Source, run.Destination, string(run.Status), run.StartTime.UTC())
	return errors.Trace(err)
}

func (s *SQLite) FinishRun(id string, status RunStatus, message string, endTime time.Time) error {
	result, err := s.db.Exec(`
UPDATE runs SET status = ?, error = ?, end_time = ? WHERE id = ?
`, string(status), message, endTime.UTC(), id)
	if err != nil {
		return errors.Trace(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Trace(err)
	}
	if affected == 0 {
		return errors.NotFoundf("run %s", id)
	}
	return nil
}

// ListRuns returns the latest n runs, newest first. An empty job lists runs of all jobs.
func (s *SQLite) ListRuns(job string, n int) ([]*Run, error) {
	rs, err := s.db.Query(`
SELECT id, job, task, operator, source, destination, status, error, start_time, end_time FROM runs
WHERE ? = '' OR job = ?
ORDER BY start_time DESC, rowid DESC
LIMIT ?
`, job, job, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()
	var runs []*Run
	for rs.Next() {
		var (
			run     Run
			status  string
			endTime sql.NullTime
		)
		if err = rs.Scan(&run.ID, &run.Job, &run.Task, &run.Operator, &run.Source, &run.Destination,
			&status, &run.Error, &run.StartTime, &endTime); err != nil {
			return nil, errors.Trace(err)
		}
		run.Status = RunStatus(status)
		if endTime.Valid {
			run.EndTime = endTime.Time
		}
		runs = append(runs, &run)
	}
	return runs, errors.Trace(rs.Err())
}
