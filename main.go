package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/cards"
	"github.com/lazharichir/baccarat/config"
	"github.com/lazharichir/baccarat/odds"
	"github.com/lazharichir/baccarat/report"
	"github.com/lazharichir/baccarat/server"
	"github.com/lazharichir/baccarat/store"
	"github.com/sanity-io/litter"
)

type options struct {
	config.Config
	hand    string
	serve   bool
	migrate bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	opts := options{Config: cfg}
	flag.IntVar(&opts.Decks, "decks", cfg.Decks, "number of 52-card decks in the shoe")
	flag.IntVar(&opts.Workers, "workers", cfg.Workers, "enumeration workers")
	flag.StringVar(&opts.Format, "format", cfg.Format, "output format: text, json or dump")
	flag.StringVar(&opts.Addr, "addr", cfg.Addr, "listen address for -serve")
	flag.StringVar(&opts.hand, "hand", "", `resolve one deal of six cards in order P1 P2 P3 B1 B2 B3, e.g. "4s,5h,Kd,2c,3d,9s"`)
	flag.BoolVar(&opts.serve, "serve", false, "serve odds over HTTP and websockets")
	flag.BoolVar(&opts.migrate, "migrate", false, "apply the database schema and exit")
	flag.Parse()
	defer glog.Flush()

	if err := opts.Validate(); err != nil {
		glog.Exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, w io.Writer) error {
	if opts.hand != "" {
		return resolveHand(w, opts.hand, opts.Decks)
	}

	calcOpts := []odds.Option{
		odds.WithBaseContext(ctx),
		odds.WithWorkers(opts.Workers),
		odds.WithCacheSize(opts.CacheSize),
	}

	if opts.DatabaseURL != "" {
		db, err := store.Open(ctx, opts.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if opts.migrate {
			if err := store.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			glog.Info("schema applied")
			return nil
		}
		calcOpts = append(calcOpts, odds.WithResultStore(db))
	} else if opts.migrate {
		return errors.New("-migrate needs DATABASE_URL")
	}

	calc := odds.NewCalculator(calcOpts...)

	if opts.serve {
		return server.NewServer(calc, opts.Decks).Start(ctx, opts.Addr)
	}

	r, err := calc.Calculate(ctx, opts.Decks)
	if err != nil {
		return err
	}
	return write(w, opts.Format, r.Result)
}

func write(w io.Writer, format string, r *baccarat.Result) error {
	switch format {
	case config.FormatJSON:
		return report.WriteJSON(w, r)
	case config.FormatDump:
		_, err := fmt.Fprintln(w, litter.Sdump(r))
		return err
	default:
		return report.WriteText(w, r)
	}
}

// resolveHand plays one concrete deal and prints how many ordered ways the
// shoe can produce its point pattern.
func resolveHand(w io.Writer, hand string, decks int) error {
	p, dealt, err := baccarat.ParsePattern(hand)
	if err != nil {
		return err
	}
	shoe, err := cards.NewShoe(decks)
	if err != nil {
		return err
	}
	ways, err := baccarat.NewWeigher(shoe.Frequencies()).Weight(p)
	if err != nil {
		return err
	}

	res := baccarat.Resolve(p)
	fmt.Fprintf(w, "Cards:   %s\n", cards.NewStack(dealt...))
	fmt.Fprintf(w, "Pattern: %s\n", p)
	fmt.Fprintf(w, "Player:  %d (drew: %v)\n", res.Player, res.PlayerDrew)
	fmt.Fprintf(w, "Banker:  %d (drew: %v)\n", res.Banker, res.BankerDrew)
	fmt.Fprintf(w, "Natural: %v\n", res.Natural)
	fmt.Fprintf(w, "Outcome: %s\n", res.Outcome)
	_, err = fmt.Fprintf(w, "Ways:    %d (%d-deck shoe)\n", ways, decks)
	return err
}
