package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"basicswap-orderbook-go/internal/presenter"
)

// render writes v as plain text: the freshness line, the visible page of
// offers and the pair cards.
func render(w io.Writer, v presenter.View) error {
	fmt.Fprintf(w, "%s | %d offers | updated %s\n\n", v.Freshness.Text, v.OfferCount, v.LastUpdated)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range v.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Label)
	}
	fmt.Fprintln(tw)
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s→%s\t%s\t%s\t%s\t%s\n", r.CoinFrom, r.CoinTo, r.Amount, r.Rate, r.MinSwap, r.Expiry)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.EmptyText != "" {
		fmt.Fprintln(w, v.EmptyText)
	}
	if v.Pagination.Visible {
		fmt.Fprintln(w, v.Pagination.Label)
	}

	fmt.Fprintln(w, "\nTrading pairs")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range v.Pairs {
		fmt.Fprintf(tw, "%s\t%s\tAvg Rate: %s\tRange: %s\n", p.Name, p.OfferCount, p.AvgRate, p.Range)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.PairsEmptyText != "" {
		fmt.Fprintln(w, v.PairsEmptyText)
	}
	return nil
}
