package qc

import (
	"testing"
)

func TestAggregate_WorstStatusWins(t *testing.T) {
	cases := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all pass", []Status{StatusPass, StatusPass}, StatusPass},
		{"monitor downgrades pass", []Status{StatusPass, StatusMonitor, StatusPass}, StatusMonitor},
		{"minor fail downgrades pass", []Status{StatusMinorFail, StatusPass}, StatusMinorFail},
		{"major fail wins over monitor", []Status{StatusMonitor, StatusMajorFail, StatusPass}, StatusMajorFail},
		{"empty is pass", nil, StatusPass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := make([]Result, len(tc.statuses))
			for i, s := range tc.statuses {
				results[i] = Result{TestName: "t", Status: s}
			}
			verdict := Aggregate("section", "", results)
			if verdict.Overall != tc.want {
				t.Errorf("overall = %s, want %s", verdict.Overall, tc.want)
			}
		})
	}
}

func TestAggregate_MonitorNeverEscalates(t *testing.T) {
	// Any number of monitors alone must not produce a major fail
	results := []Result{
		{Status: StatusMonitor},
		{Status: StatusMonitor},
		{Status: StatusMonitor},
	}
	verdict := Aggregate("section", "", results)
	if verdict.Overall == StatusMajorFail {
		t.Error("monitors alone escalated to major fail")
	}
	if verdict.Overall.Passing() {
		t.Error("monitor did not block a clean pass")
	}
}

func TestAggregate_PreservesResultOrder(t *testing.T) {
	results := []Result{
		{TestName: "first"},
		{TestName: "second"},
		{TestName: "third"},
	}
	verdict := Aggregate("section", "proto", results)
	for i, want := range []string{"first", "second", "third"} {
		if verdict.Results[i].TestName != want {
			t.Errorf("result %d = %s, want %s", i, verdict.Results[i].TestName, want)
		}
	}
	if verdict.ID.String() == "" {
		t.Error("verdict should carry an ID")
	}
	if verdict.Created.IsZero() {
		t.Error("verdict should carry a timestamp")
	}
}

func TestStatusSeverity(t *testing.T) {
	if !StatusMajorFail.WorseThan(StatusMonitor) {
		t.Error("major fail should be worse than monitor")
	}
	if !StatusMonitor.WorseThan(StatusPass) {
		t.Error("monitor should be worse than pass")
	}
	// Monitor and minor fail are peers: reporting language only
	if StatusMonitor.WorseThan(StatusMinorFail) || StatusMinorFail.WorseThan(StatusMonitor) {
		t.Error("monitor and minor fail should have equal severity")
	}
}
