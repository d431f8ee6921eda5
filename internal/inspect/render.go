package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Render writes rep as a table, or as indented JSON when asJSON is set.
func Render(w io.Writer, rep *Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "strategy: %s", rep.Strategy)
	if rep.Candidates > 0 {
		fmt.Fprintf(w, " (%d candidates)", rep.Candidates)
	}
	fmt.Fprintf(w, "\nevents: %d\n", len(rep.Events))
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFINGERPRINT\tVENUE\tDIST\tSTART\tCOUNTDOWN\tFIELD")
	for _, e := range rep.Events {
		start := "-"
		if e.Start != nil {
			start = e.Start.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%d\n",
			e.Index, e.Fingerprint, e.Venue, e.Distance, start, e.Countdown, e.Participants)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if a := rep.Analysis; a != nil {
		fmt.Fprintf(w, "\nanalysis: %s (confidence %d)\n", a.Summary, a.ConfidenceScore)
		for _, p := range a.Predictions {
			fmt.Fprintf(w, "  %d %s %.0f%% %d stars\n", p.Gate, p.ParticipantName, p.WinProbability, p.StarRating)
		}
	}
	if rep.Uploaded != "" {
		fmt.Fprintf(w, "\nuploaded as event set %s\n", rep.Uploaded)
	}
	return nil
}
