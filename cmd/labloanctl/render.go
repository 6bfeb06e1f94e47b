package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"labloan-client/internal/model"
)

func (a *app) location() *time.Location {
	loc, err := time.LoadLocation(a.cfg.UI.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a *app) formatDate(t time.Time) string {
	return t.In(a.location()).Format("02 Jan 2006")
}

func (a *app) renderItems(items []model.Item) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tLOCATION\tCONDITION\tSTOCK")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			item.ID, item.Code, item.Name, item.Location, item.Condition.Label(), item.Stock())
	}
	w.Flush()
}

func (a *app) renderLoans(loans []model.Loan, now time.Time) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEM\tBORROWER\tQTY\tLOANED\tDUE\tSTATUS\tEXTENSION")
	for _, l := range loans {
		itemName := fmt.Sprintf("#%d", l.ItemID)
		if l.Item != nil {
			itemName = l.Item.Name
		}
		borrower := fmt.Sprintf("#%d", l.UserID)
		if l.User != nil {
			borrower = l.User.Name
		}
		ext := "-"
		if s := l.ExtensionState(); s != model.ExtensionNone {
			ext = string(s)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			l.ID, itemName, borrower, l.Quantity,
			a.formatDate(l.LoanDate.Time), a.formatDate(l.DueDate.Time),
			l.DisplayStatus(now), ext)
	}
	w.Flush()
}

// renderPager prints the page strip the way the catalog shows it, with the
// current page bracketed.
func (a *app) renderPager(current, total int, numbers []int) {
	if total <= 1 {
		return
	}
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n == current {
			parts = append(parts, fmt.Sprintf("[%d]", n))
		} else {
			parts = append(parts, fmt.Sprintf("%d", n))
		}
	}
	fmt.Fprintf(a.out, "Page %s of %d\n", strings.Join(parts, " "), total)
}
