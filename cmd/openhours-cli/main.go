package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"openhours/internal/api"
	"openhours/internal/config"
	"openhours/internal/domain"
	"openhours/internal/format"
	"openhours/internal/holiday"
	"openhours/internal/hours"
	"openhours/internal/store"
	"openhours/pkg/openhours"
)

const version = "0.1.0"

var (
	openStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	soonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	closedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// statusStyle colours a status: green open, yellow opening soon, red closed.
func statusStyle(status string) lipgloss.Style {
	switch domain.Status(status) {
	case domain.StatusOpen:
		return openStyle
	case domain.StatusOpeningSoon:
		return soonStyle
	default:
		return closedStyle
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: openhours-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                   Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  facilities                List facilities served by openhours-server\n")
		fmt.Fprintf(os.Stderr, "  status <facility> [time]  Ask openhours-server for a facility's status (-grpc addr)\n")
		fmt.Fprintf(os.Stderr, "  rules <facility>          List a facility's rules\n")
		fmt.Fprintf(os.Stderr, "  check <rules.yaml> [time] Resolve a rules file locally (-region NW, -tz Europe/Berlin)\n")
		fmt.Fprintf(os.Stderr, "  export [facility...]      Archive rules as Parquet (all stored facilities by default)\n")
		fmt.Fprintf(os.Stderr, "  import [facility...]      Restore rules from Parquet (all archived facilities by default)\n")
		fmt.Fprintf(os.Stderr, "\nTimes are RFC3339 or \"2006-01-02 15:04:05 -0700\".\n")
		fmt.Fprintf(os.Stderr, "The server address is taken from OPENHOURS_URL (default http://localhost:8080).\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("openhours-cli %s\n", version)

	case "facilities":
		err = runFacilities(ctx)

	case "status":
		err = runStatus(ctx, args)

	case "rules":
		err = runRules(ctx, args)

	case "check":
		err = runCheck(args)

	case "export":
		err = runExport(ctx, args)

	case "import":
		err = runImport(ctx, args)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func client() *openhours.Client {
	url := "http://localhost:8080"
	if v := os.Getenv("OPENHOURS_URL"); v != "" {
		url = v
	}
	return openhours.NewClient(url)
}

func parseTime(args []string, i int, loc *time.Location) (time.Time, error) {
	if len(args) <= i {
		return time.Now().In(loc), nil
	}
	return domain.ParseInstant(args[i], loc)
}

func runFacilities(ctx context.Context) error {
	list, err := client().Facilities(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTIMEZONE")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, f.Timezone)
	}
	return tw.Flush()
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	grpcAddr := fs.String("grpc", "", "resolve over gRPC at this address (e.g. localhost:9090)")
	fs.Parse(args)
	args = fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("usage: status [-grpc addr] <facility> [time]")
	}
	var at time.Time
	if len(args) > 1 {
		t, err := domain.ParseInstant(args[1], time.Local)
		if err != nil {
			return err
		}
		at = t
	}

	var st *openhours.StatusResponse
	var err error
	if *grpcAddr != "" {
		st, err = resolveGRPC(ctx, *grpcAddr, args[0], at)
	} else {
		st, err = client().Status(ctx, args[0], at)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", st.Facility, statusStyle(st.Status).Render(st.Text))
	if st.ClosesAt != "" {
		fmt.Println(dimStyle.Render("  closes at " + st.ClosesAt))
	}
	return nil
}

func resolveGRPC(ctx context.Context, addr, facilityID string, at time.Time) (*openhours.StatusResponse, error) {
	conn, err := api.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return api.NewHoursClient(conn).Resolve(ctx, facilityID, at)
}

func runRules(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rules <facility>")
	}
	rules, err := client().Rules(ctx, args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tTO\tHOURS\tDAYS")
	for _, r := range rules {
		to := r.ValidTo
		if to == "" {
			to = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s-%s\t%v\n", r.ID, r.ValidFrom, to, r.Start, r.End, r.Weekdays)
	}
	return tw.Flush()
}

// runCheck resolves a rules file locally, without a server.
func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	region := fs.String("region", "", "German state code for holidays, e.g. NW")
	tz := fs.String("tz", "Local", "timezone for times without offset")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: check [-region NW] [-tz Europe/Berlin] <rules.yaml> [time]")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return err
	}
	rules, err := store.LoadRuleFile(fs.Arg(0), loc)
	if err != nil {
		return err
	}
	q, err := parseTime(fs.Args(), 1, loc)
	if err != nil {
		return err
	}

	var oracle hours.HolidayOracle = holiday.None{}
	if *region != "" {
		g, err := holiday.NewGermany(*region)
		if err != nil {
			return err
		}
		oracle = g
	}

	out, err := hours.Resolve(rules, oracle, q)
	if err != nil {
		return err
	}
	fmt.Println(statusStyle(string(out.Status)).Render(format.Outcome(out)))
	if out.Rule != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  rule %s (%s)", out.Rule.ID, format.Window(out.Rule))))
	}
	return nil
}

// openStores opens the configured rule database and Parquet archive.
func openStores() (*store.SQLiteStore, *store.ParquetStore, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath, nil)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewParquetStore(cfg.Storage.DataDir), nil
}

// runExport archives the named facilities, or every stored one.
func runExport(ctx context.Context, args []string) error {
	db, archive, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	ids := args
	if len(ids) == 0 {
		if ids, err = db.Facilities(ctx); err != nil {
			return err
		}
	}
	for _, id := range ids {
		rules, err := db.Rules(ctx, id)
		if err != nil {
			return err
		}
		if err := archive.Export(id, rules); err != nil {
			return err
		}
		fmt.Printf("exported %d rules for %s to %s\n", len(rules), id, archive.DataDir)
	}
	return nil
}

// runImport restores the named facilities, or every archived one.
func runImport(ctx context.Context, args []string) error {
	db, archive, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	ids := args
	if len(ids) == 0 {
		if ids, err = archive.Facilities(); err != nil {
			return err
		}
	}
	for _, id := range ids {
		rules, err := archive.Import(id)
		if err != nil {
			return err
		}
		if err := db.ReplaceRules(ctx, id, rules); err != nil {
			return err
		}
		fmt.Printf("imported %d rules for %s\n", len(rules), id)
	}
	return nil
}
