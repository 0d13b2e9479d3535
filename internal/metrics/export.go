package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"Department Name",
	"Tickets Received Last 24hr",
	"Open Tickets Received",
	"Tickets Raised Last 24hr",
	"Open Tickets Raised",
	"Older Open Tickets",
	"Pending Tickets Bifurcation",
	"Tickets Passed 72 Hours After Raising",
	"Tickets Passed the Revised Deadline",
}

// WriteCSV writes one row per department.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range report.Departments {
		record := []string{
			d.Department,
			strconv.Itoa(d.ReceivedLast24h),
			strconv.Itoa(d.OpenReceived),
			strconv.Itoa(d.RaisedLast24h),
			strconv.Itoa(d.OpenRaised),
			strconv.Itoa(d.OlderOpen),
			formatBreakdown(d.PendingByDepartment),
			strconv.Itoa(d.Passed72Hours),
			strconv.Itoa(d.PassedDeadline),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatBreakdown renders "Finance: 2; Sales: 1" with keys sorted.
func formatBreakdown(m map[string]int) string {
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s: %d", k, m[k]))
	}
	return strings.Join(parts, "; ")
}
