// Package metrics computes per-department ticket counts for dashboards and
// CSV export.
package metrics

import (
	"slices"
	"time"

	"task-tracker-api/internal/lifecycle"
)

// Row is the slice of a task the aggregation needs.
type Row struct {
	Department         string // receiving department, empty when unset
	AssignerDepartment string // department of the assigner's profile
	Status             string
	AssignedDate       time.Time
	Deadline           time.Time
	RevisedDate        *time.Time
}

// DepartmentMetrics holds the counts of one department.
type DepartmentMetrics struct {
	Department                 string         `json:"department"`
	OpenReceived               int            `json:"openTicketsReceived"`
	ReceivedLast24h            int            `json:"ticketsReceivedLast24h"`
	OpenRaised                 int            `json:"openTicketsRaised"`
	RaisedLast24h              int            `json:"ticketsRaisedLast24h"`
	OlderOpen                  int            `json:"olderOpenTickets"`
	Passed72Hours              int            `json:"ticketsPassed72Hours"`
	PassedDeadline             int            `json:"ticketsPassedDeadline"`
	PendingByDepartment        map[string]int `json:"pendingByDepartment"`
	AssignedToOtherDepartments map[string]int `json:"assignedToOtherDepartments"`
}

// Summary sums the department counts.
type Summary struct {
	TotalOpenReceived    int `json:"totalOpenReceived"`
	TotalReceivedLast24h int `json:"totalReceivedLast24h"`
	TotalOpenRaised      int `json:"totalOpenRaised"`
	TotalRaisedLast24h   int `json:"totalRaisedLast24h"`
	TotalOlderOpen       int `json:"totalOlderOpenTickets"`
	TotalPending         int `json:"totalPendingTickets"`
	TotalPassed72Hours   int `json:"totalTicketsPassed72Hours"`
	TotalPassedDeadline  int `json:"totalTicketsPassedDeadline"`
}

type Report struct {
	Departments []DepartmentMetrics `json:"departments"`
	Summary     Summary             `json:"summary"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// Aggregate computes a report over rows. Every name in departments gets an
// entry, in the order given, even when no row mentions it.
func Aggregate(departments []string, rows []Row, now time.Time) Report {
	last24h := now.Add(-24 * time.Hour)
	last72h := now.Add(-72 * time.Hour)

	report := Report{
		Departments: make([]DepartmentMetrics, 0, len(departments)),
		GeneratedAt: now,
	}
	for _, name := range departments {
		m := DepartmentMetrics{
			Department:                 name,
			PendingByDepartment:        map[string]int{},
			AssignedToOtherDepartments: map[string]int{},
		}
		for _, r := range rows {
			open := lifecycle.IsOpen(r.Status)

			if r.Department == name {
				if !r.AssignedDate.Before(last24h) {
					m.ReceivedLast24h++
				}
				if open {
					m.OpenReceived++
					if r.AssignedDate.Before(last24h) {
						m.OlderOpen++
					}
					if !r.AssignedDate.After(last72h) {
						m.Passed72Hours++
					}
					if lifecycle.PastDeadline(r.Deadline, r.RevisedDate, now) {
						m.PassedDeadline++
					}
					if r.AssignerDepartment != "" {
						m.PendingByDepartment[r.AssignerDepartment]++
					}
				}
			}

			if r.AssignerDepartment == name {
				if !r.AssignedDate.Before(last24h) {
					m.RaisedLast24h++
				}
				if open {
					m.OpenRaised++
					if r.Department != "" && r.Department != name {
						m.AssignedToOtherDepartments[r.Department]++
					}
				}
			}
		}
		report.Departments = append(report.Departments, m)
	}

	report.Summary = summarize(report.Departments)
	return report
}

func summarize(depts []DepartmentMetrics) Summary {
	var s Summary
	for _, d := range depts {
		s.TotalOpenReceived += d.OpenReceived
		s.TotalReceivedLast24h += d.ReceivedLast24h
		s.TotalOpenRaised += d.OpenRaised
		s.TotalRaisedLast24h += d.RaisedLast24h
		s.TotalOlderOpen += d.OlderOpen
		s.TotalPassed72Hours += d.Passed72Hours
		s.TotalPassedDeadline += d.PassedDeadline
		for _, n := range d.PendingByDepartment {
			s.TotalPending += n
		}
	}
	return s
}

// Find returns the metrics of one department.
func (r Report) Find(name string) (DepartmentMetrics, bool) {
	i := slices.IndexFunc(r.Departments, func(d DepartmentMetrics) bool { return d.Department == name })
	if i < 0 {
		return DepartmentMetrics{}, false
	}
	return r.Departments[i], true
}
