// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package status reports the progress of long running reads.
package status

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	reportInterval = 10 * time.Second
	reportRecords  = 100
)

// Reporter counts records and logs throttled progress reports.
type Reporter struct {
	log *logrus.Entry
	now func() time.Time

	start        time.Time
	count        uint64
	lastElapsed  time.Duration
	lastReported uint64
}

// NewReporter returns a Reporter that logs to log, starting its clock now.
func NewReporter(log *logrus.Entry) *Reporter {
	return NewReporterWithClock(log, time.Now)
}

// NewReporterWithClock is like NewReporter but reads the time from now.
func NewReporterWithClock(log *logrus.Entry, now func() time.Time) *Reporter {
	return &Reporter{log: log, now: now, start: now()}
}

// CountRecord counts one more record.
func (r *Reporter) CountRecord() {
	r.count++
}

// Count returns the number of records counted so far.
func (r *Reporter) Count() uint64 {
	return r.count
}

// Report logs the elapsed time and record count and makes them the baseline
// for ReportMaybe.
func (r *Reporter) Report() {
	elapsed := r.now().Sub(r.start)
	r.log.WithFields(logrus.Fields{
		"elapsed": elapsed.Round(time.Millisecond),
		"records": r.count,
	}).Info("Progress")
	r.lastElapsed = elapsed
	r.lastReported = r.count
}

// ReportMaybe calls Report if at least ten seconds have passed or a hundred
// records have been counted since the last report, and reports whether it
// did.
func (r *Reporter) ReportMaybe() bool {
	elapsed := r.now().Sub(r.start)
	if elapsed-r.lastElapsed < reportInterval && r.count-r.lastReported < reportRecords {
		return false
	}
	r.Report()
	return true
}
