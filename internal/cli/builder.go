package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/internal/export"
	"github.com/angelmondragon/pricelist/internal/quote"
	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/google/subcommands"
)

const builderHelp = `Commands:
  search <text>           list fans matching the text (all when empty)
  add <id> [tier] [qty]   add a fan (tier: wholesale|retail, default wholesale)
  rm <n>                  remove line n
  tier <n> [tier]         set or toggle the price tier of line n
  qty <n> <value>         set the quantity of line n
  up <n> / down <n>       move line n
  sort                    order lines by product id
  show                    print the price list
  export [docx|pdf]       write the price list document
  help                    show this help
  quit                    leave the builder
`

type builderCmd struct {
	app *App
}

func (*builderCmd) Name() string     { return "builder" }
func (*builderCmd) Synopsis() string { return "build a price list interactively" }
func (*builderCmd) Usage() string {
	return `pricelist builder

  Starts an interactive session with an empty price list. Fans are looked up
  in the catalog and added with a price tier and quantity. The table is
  printed again after every change. Type help inside the session.
`
}

func (*builderCmd) SetFlags(*flag.FlagSet) {}

func (c *builderCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s := &session{app: c.app, quote: quote.New()}
	ctx = c.app.logg.WithQuoteID(ctx, s.quote.ID())
	unsubscribe := s.quote.Subscribe(s.show)
	defer unsubscribe()

	fmt.Fprintln(c.app.out, "Price list builder. Type help for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return subcommands.ExitSuccess
		}
		line, ok := c.app.ask("> ")
		if !ok {
			return subcommands.ExitSuccess
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return subcommands.ExitSuccess
		}
		if err := s.dispatch(ctx, fields); err != nil {
			c.app.report(ctx, err)
		}
	}
}

// session is one builder run: a quote that lives until the builder exits.
type session struct {
	app   *App
	quote *quote.Quote
}

func (s *session) show(lines []quote.Line) {
	s.app.printMarkdown(quote.Present(lines, s.app.present).Markdown())
}

func (s *session) dispatch(ctx context.Context, fields []string) error {
	q := s.quote
	switch fields[0] {
	case "help":
		fmt.Fprint(s.app.out, builderHelp)
		return nil
	case "show":
		s.show(q.Lines())
		return nil
	case "search":
		return s.search(ctx, strings.Join(fields[1:], " "))
	case "add":
		return s.add(ctx, fields[1:])
	case "rm":
		n, err := lineIndex(fields)
		if err != nil {
			return err
		}
		return q.Remove(n)
	case "tier":
		n, err := lineIndex(fields)
		if err != nil {
			return err
		}
		if len(fields) < 3 {
			return q.TogglePriceTier(n)
		}
		tier, err := parseTier(fields[2])
		if err != nil {
			return err
		}
		return q.SetPriceTier(n, tier)
	case "qty":
		n, err := lineIndex(fields)
		if err != nil {
			return err
		}
		if len(fields) < 3 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: qty <n> <value>")
		}
		accepted, err := q.SetQuantityInput(n, fields[2])
		if err != nil {
			return err
		}
		if !accepted {
			fmt.Fprintf(s.app.out, "Quantity unchanged: %s\n", pkgerrors.MetadataFor(pkgerrors.CodeInvalidQuantity).PublicMessage)
		}
		return nil
	case "up":
		n, err := lineIndex(fields)
		if err != nil {
			return err
		}
		return q.MoveUp(n)
	case "down":
		n, err := lineIndex(fields)
		if err != nil {
			return err
		}
		return q.MoveDown(n)
	case "sort":
		q.SortByID()
		return nil
	case "export":
		format := ""
		if len(fields) > 1 {
			format = strings.ToLower(fields[1])
		}
		return s.export(ctx, format)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q, type help", fields[0]))
}

func (s *session) search(ctx context.Context, query string) error {
	fans, err := s.app.lookup.SearchFans(ctx, query)
	if err != nil {
		return err
	}
	catalog.SortFansByName(fans, s.app.locale)
	s.app.printMarkdown(fanTable(fans, s.app.present.CurrencyCode))
	return nil
}

func (s *session) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: add <id> [tier] [qty]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product id %q", args[0]))
	}
	tier := enums.PriceTierWholesale
	if len(args) > 1 {
		if tier, err = parseTier(args[1]); err != nil {
			return err
		}
	}
	qty := 1
	if len(args) > 2 {
		qty = quote.ParseQuantity(args[2])
	}
	fan, err := s.app.lookup.GetFan(ctx, id)
	if err != nil {
		return err
	}
	return s.quote.Add(&fan, tier, qty)
}

func (s *session) export(ctx context.Context, format string) error {
	customer, ok := s.app.ask("Customer name: ")
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUserCancelled, "input closed")
	}
	date, ok := s.app.ask("Date (empty for today): ")
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUserCancelled, "input closed")
	}
	art, err := s.app.exporter.Export(ctx, s.quote, export.Request{
		Customer: strings.TrimSpace(customer),
		Date:     strings.TrimSpace(date),
		Format:   format,
	})
	if err != nil {
		return err
	}
	path, err := s.app.saveArtifact(art)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.app.out, "Saved %s (%d lines, total %s)\n", path, art.Rows,
		quote.FormatMoney(art.GrandTotal, s.app.present.CurrencyCode))
	return nil
}

// lineIndex reads the 1-based line number in fields[1] as a 0-based index.
func lineIndex(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "line number required")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid line number %q", fields[1]))
	}
	return n - 1, nil
}

func parseTier(raw string) (enums.PriceTier, error) {
	tier, err := enums.ParsePriceTier(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return tier, nil
}
