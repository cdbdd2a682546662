// Command inspect prints the records held in a journal directory or a
// snapshot file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"hftwire/codec/marketdata"
	"hftwire/codec/order"
	"hftwire/infra/journal"
	"hftwire/snapshot"
)

func main() {
	journalDir := flag.String("journal", "", "journal directory to dump")
	snapshotPath := flag.String("snapshot", "", "snapshot file to dump")
	flag.Parse()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var err error
	switch {
	case *journalDir != "":
		err = dumpJournal(out, *journalDir)
	case *snapshotPath != "":
		err = dumpSnapshot(out, *snapshotPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		out.Flush()
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func dumpJournal(w io.Writer, dir string) error {
	last, err := journal.Replay(dir, func(e journal.Entry) error {
		fmt.Fprintf(w, "#%d %s t=%d bytes=%d\n", e.Seq, e.Kind, e.Time, len(e.Payload))
		switch e.Kind {
		case journal.KindOrder:
			o, err := order.Decode(e.Payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s\n", o)
		case journal.KindQuotes:
			msgs, err := marketdata.DecodeBatch(e.Payload, marketdata.Layout().Count(e.Payload))
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
		return nil
	})
	fmt.Fprintf(w, "last seq %d\n", last)
	return err
}

func dumpSnapshot(w io.Writer, path string) error {
	s, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "snapshot seq=%d quote_seq=%d created=%s records=%d\n", s.Seq, s.QuoteSeq, s.Created.Format("2006-01-02T15:04:05Z07:00"), s.Count)

	orders, err := order.DecodeBatch(s.Records, s.Count)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Fprintf(w, "  %s\n", o)
	}
	return nil
}
