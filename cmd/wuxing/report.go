package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/wuxing/internal/engine"
)

// writeReport renders a result for a terminal.
func writeReport(w io.Writer, res *engine.Result) {
	c := res.Chart
	var pillars []string
	for _, p := range []string{c.Year, c.Month, c.Day, c.Hour} {
		if p != "" {
			pillars = append(pillars, p)
		}
	}
	fmt.Fprintf(w, "Chart      %s  (age %d)\n", strings.Join(pillars, " "), c.Age)

	var overlays []string
	for _, o := range []struct{ name, pillar string }{
		{"luck", c.Luck}, {"annual", c.Annual}, {"monthly", c.Monthly}, {"daily", c.Daily}, {"hourly", c.Hourly},
	} {
		if o.pillar != "" {
			overlays = append(overlays, o.name+" "+o.pillar)
		}
	}
	if len(overlays) > 0 {
		fmt.Fprintf(w, "Overlays   %s\n", strings.Join(overlays, ", "))
	}

	dm := res.DayMaster
	fmt.Fprintf(w, "Season     %s\n", res.Season)
	fmt.Fprintf(w, "Day master %s (%s) %.1f%% %s\n\n", dm.Stem, dm.Element, dm.Percent, strings.ReplaceAll(dm.Strength.String(), "_", " "))

	fmt.Fprintln(w, "Elements")
	for _, r := range res.Elements.Ranked() {
		fmt.Fprintf(w, "  %-4s %-6s %5.1f%%  %6.2f pts\n", humanize.Ordinal(r.Rank), r.Element, r.Percent, r.Points)
	}

	gods := res.Gods
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Useful %s, favorable %s, unfavorable %s, enemy %s, idle %s\n",
		gods.Useful, gods.Favorable, gods.Unfavorable, gods.Enemy, gods.Idle)

	fmt.Fprintln(w, "\nBalance σ")
	for _, b := range res.Balance {
		mark := ""
		if b.Element == gods.Useful {
			mark = "  <- useful"
		}
		fmt.Fprintf(w, "  %-6s %6.2f%s\n", b.Element, b.Sigma, mark)
	}

	logOnly := 0
	for _, ix := range res.Interactions {
		if ix.LogOnly {
			logOnly++
		}
	}
	fmt.Fprintf(w, "\n%s interactions (%d log-only), %s bonus nodes\n",
		humanize.Comma(int64(len(res.Interactions))), logOnly, humanize.Comma(int64(len(res.Bonus))))
}
