package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
)

var reportCmd = &cobra.Command{
	Use:   "report <file.csv>",
	Short: "Print an attendance log as a table",
	Long:  `Print the entries of an attendance log followed by the number of people seen per day.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	entries, err := attendance.ReadEntries(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No attendance recorded")
		return nil
	}
	writeReport(out, entries)
	return nil
}

func writeReport(out io.Writer, entries []attendance.Entry) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, e.FormattedTimestamp(), e.FormattedConfidence()}
	}
	fmt.Fprint(out, renderTable(attendance.Header, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))

	var days []attendance.Date
	perDay := make(map[attendance.Date]int)
	for _, e := range entries {
		d := attendance.DateOf(e.Timestamp)
		if _, ok := perDay[d]; !ok {
			days = append(days, d)
		}
		perDay[d]++
	}

	dayRows := make([][]string, len(days))
	for i, d := range days {
		dayRows[i] = []string{d.String(), strconv.Itoa(perDay[d])}
	}
	fmt.Fprint(out, renderTable([]string{"Date", "People"}, dayRows, []columnAlignment{alignLeft, alignRight}))
}
