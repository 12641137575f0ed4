package main

import (
	"civic-stream/domain/event"
	"civic-stream/repositories"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	from := flag.Uint64("from", 0, "Print events after this sequence id")
	limit := flag.Int("limit", 100, "Maximum number of events")
	aggregate := flag.String("aggregate", "", "Restrict to one aggregate type (inbox, conversation, report, comments, feed)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	reader := repositories.NewEventReader(db)
	ctx := context.Background()
	var events []event.DomainEvent
	if *aggregate != "" {
		events, err = reader.GetSinceForAggregate(ctx, *aggregate, *from, *limit)
	} else {
		events, err = reader.GetSince(ctx, *from, *limit)
	}
	if err != nil {
		log.Fatal(err)
	}
	last, err := reader.LastSequence(ctx)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Created", "Type", "Channel", "Entity", "Event ID", "Origin"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, evt := range events {
		table.Append([]string{
			strconv.FormatUint(evt.SequenceID, 10),
			evt.CreatedAt.Format(time.DateTime),
			typeColor(evt.EventType).Render(string(evt.EventType)),
			evt.Channel().Key(),
			evt.EntityID(),
			evt.EventID,
			evt.Metadata[event.MetaOriginClientID],
		})
	}
	table.Render()

	header := fmt.Sprintf(" %d events shown, last sequence id %d ", len(events), last)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))
}

func typeColor(t event.Type) color.Style {
	switch {
	case t.IsDeletion():
		return color.New(color.FgRed)
	case t.IsDeliveryTransition():
		return color.New(color.FgCyan)
	case t == event.MemberJoined || t == event.MemberLeft:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgGreen)
	}
}
