package view

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// WriteTerminal prints s for the command line client.
func WriteTerminal(w io.Writer, s State) {
	switch s.Kind {
	case KindIdle:
		return
	case KindLoading:
		fmt.Fprintln(w, s.Message)
	case KindEmpty:
		fmt.Fprintln(w, s.Message)
		color.New(color.Faint).Fprintln(w, s.Hint)
	case KindError, KindValidation:
		color.New(color.FgRed).Fprintln(w, s.Message)
	case KindResults:
		color.New(color.Bold).Fprintln(w, s.Heading)
		fmt.Fprintf(w, "Top %d recommendations:\n", len(s.Cards))

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Title", "Genres", "Themes", "Demographics", "Similarity Score"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, card := range s.Cards {
			table.Append([]string{
				strconv.Itoa(card.Rank),
				card.Title,
				card.Genres,
				card.Themes,
				card.Demographics,
				card.Score,
			})
		}
		table.Render()
	}
}
