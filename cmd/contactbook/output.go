package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"contactbook/internal/blob"
	"contactbook/internal/transfer"
	"contactbook/pkg/domain"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeTable(w io.Writer, people []domain.Person) error {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tNICKNAME\tPHONE\tEMAIL\tBIRTH DATE")
	for _, p := range people {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.FullName(), p.Nickname, p.Phone, p.Email, domain.FormatDate(p.BirthDate))
	}
	return tw.Flush()
}

func writeDetail(w io.Writer, p domain.Person) error {
	tw := newTabWriter(w)
	rows := [][2]string{
		{"ID", fmt.Sprint(p.ID)},
		{"Last name", p.LastName},
		{"First name", p.FirstName},
		{"Nickname", p.Nickname},
		{"Phone", p.Phone},
		{"E-mail", p.Email},
		{"Address", p.Address},
		{"Birth date", domain.FormatDate(p.BirthDate)},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func writeExports(w io.Writer, infos []blob.Info) error {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeReport(w io.Writer, r transfer.Report) error {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintf(tw, "imported %s: %d created, %d duplicates, %d invalid of %d\n",
		r.Key, r.Created, r.Conflicts, r.Invalid, r.Total)
	for _, f := range r.Failures {
		_, _ = fmt.Fprintf(tw, "  #%d\t%s\t%s\n", f.Index, f.Name, f.Error)
	}
	return tw.Flush()
}
