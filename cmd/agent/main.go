package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"portal/config"
	"portal/internal/client"
	"portal/internal/forms"
	"portal/internal/listview"
	"portal/internal/logger"
	. "portal/internal/models"
	"portal/internal/store"
	"portal/internal/utils"
)

// assignments collects repeated -set section.field=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func main() {
	logger.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	log := logger.New("agent")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	config, err := config.InitConfig()
	if err != nil {
		log.Er("failed to load config", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewCustomerClient(config.APIBaseURL, nil)
	if err := run(ctx, api, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, api *client.CustomerClient, command string, args []string, out io.Writer) error {
	switch command {
	case "list":
		cmd := flag.NewFlagSet("list", flag.ExitOnError)
		search := cmd.String("search", "", "Filter by name or email")
		sortKey := cmd.String("sort", string(listview.SortFirstName), "Sort column: firstName, lastName, dateOfBirth, email")
		desc := cmd.Bool("desc", false, "Sort descending")
		page := cmd.Int("page", 1, "Page number")
		_ = cmd.Parse(args)

		key := listview.SortKey(*sortKey)
		if !key.Valid() {
			return fmt.Errorf("unknown sort column %q", *sortKey)
		}
		query := listview.DefaultQuery().WithSearch(*search)
		if key != query.SortKey {
			query = query.ToggleSort(key)
		}
		if *desc {
			query = query.ToggleSort(key)
		}
		return list(ctx, api, query.WithPage(*page), out)

	case "mock":
		record, err := api.CreateMock(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Testkunde %s angelegt (%s)\n", fullName(record), record.CustomerID)
		return nil

	case "delete":
		cmd := flag.NewFlagSet("delete", flag.ExitOnError)
		id := cmd.String("id", "", "Customer id")
		_ = cmd.Parse(args)
		return mutate(ctx, api, out, func(s *store.Store) store.State { return s.Delete(ctx, *id) }, "Kunde gelöscht")

	case "reset":
		cmd := flag.NewFlagSet("reset", flag.ExitOnError)
		id := cmd.String("id", "", "Customer id")
		_ = cmd.Parse(args)
		return mutate(ctx, api, out, func(s *store.Store) store.State { return s.ResetEditedStatus(ctx, *id) }, "Bearbeitungsstatus zurückgesetzt")

	case "link":
		cmd := flag.NewFlagSet("link", flag.ExitOnError)
		id := cmd.String("id", "", "Customer id")
		_ = cmd.Parse(args)
		link, err := api.IssuePublicLink(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, link.URL)
		return nil

	case "edit":
		cmd := flag.NewFlagSet("edit", flag.ExitOnError)
		id := cmd.String("id", "", "Customer id, empty creates a new customer")
		var sets assignments
		cmd.Var(&sets, "set", "section.field=value, may be repeated")
		_ = cmd.Parse(args)
		return edit(ctx, forms.New(api, forms.ModeAgent), *id, sets, out)

	case "public-fill":
		cmd := flag.NewFlagSet("public-fill", flag.ExitOnError)
		id := cmd.String("id", "", "Customer id from the link")
		token := cmd.String("token", "", "Access token from the link")
		var sets assignments
		cmd.Var(&sets, "set", "section.field=value, may be repeated")
		_ = cmd.Parse(args)
		if *id == "" {
			return errors.New("-id is required")
		}
		return edit(ctx, forms.New(api.Public(*id, *token), forms.ModePublic), *id, sets, out)

	case "export":
		cmd := flag.NewFlagSet("export", flag.ExitOnError)
		path := cmd.String("out", "", "Output file, stdout when empty")
		_ = cmd.Parse(args)
		w := out
		if *path != "" {
			f, err := os.Create(*path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		_, err := api.ExportCSV(ctx, w)
		return err

	default:
		help()
		return fmt.Errorf("unknown command %q", command)
	}
}

func list(ctx context.Context, api CustomerStore, query listview.Query, out io.Writer) error {
	state := store.New(api).Fetch(ctx)
	if state.Err != "" {
		return errors.New(state.Err)
	}

	page := listview.Build(state.Customers, query)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVorname\tNachname\tGeburtsdatum\tE-Mail\tBearbeitet")
	for _, r := range page.Items {
		edited := ""
		if r.FormData.EditedByCustomer {
			edited = "ja"
		}
		dob, err := utils.StorageDateToDisplay(r.FormData.DriverInfo.DOB)
		if err != nil {
			dob = r.FormData.DriverInfo.DOB
		}
		p := r.FormData.PersonalData
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.CustomerID, p.FirstName, p.LastName, dob, p.Email, edited)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d-%d von %d (Seite %d/%d)\n", page.First(), page.Last(), page.Total, page.Page, page.TotalPages)
	return nil
}

func mutate(ctx context.Context, api CustomerStore, out io.Writer, action func(*store.Store) store.State, done string) error {
	s := store.New(api)
	if state := s.Fetch(ctx); state.Err != "" {
		return errors.New(state.Err)
	}
	if state := action(s); state.Err != "" {
		return errors.New(state.Err)
	}
	fmt.Fprintln(out, done)
	return nil
}

func edit(ctx context.Context, form *forms.CustomerForm, id string, sets assignments, out io.Writer) error {
	if id != "" {
		if err := form.LoadByID(ctx, id); err != nil {
			return err
		}
	}

	for _, assignment := range sets {
		path, value, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("expected section.field=value, got %q", assignment)
		}
		field, err := forms.ParseField(path)
		if err != nil {
			return err
		}
		form.SetField(field, value)
	}

	err := form.Submit(ctx)
	var validationErr *forms.FormValidationError
	switch {
	case err == nil:
		if form.Mode() == forms.ModePublic {
			fmt.Fprintln(out, "Vielen Dank! Ihre Angaben wurden übermittelt.")
		} else {
			fmt.Fprintln(out, "Kunde gespeichert")
		}
		return nil
	case errors.As(err, &validationErr):
		printValidation(out, validationErr)
		return errors.New("Eingaben unvollständig")
	case errors.Is(err, forms.ErrAlreadySubmitted):
		return errors.New("Das Formular wurde bereits übermittelt")
	default:
		return err
	}
}

func printValidation(out io.Writer, err *forms.FormValidationError) {
	lines := make([]string, 0, len(err.Errors))
	for field, message := range err.Errors {
		lines = append(lines, fmt.Sprintf("  %s.%s: %s", field.Section(), field.Name(), message))
	}
	slices.Sort(lines)
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func fullName(r CustomerRecord) string {
	return strings.TrimSpace(r.FormData.PersonalData.FirstName + " " + r.FormData.PersonalData.LastName)
}

func help() {
	fmt.Println("Usage: agent <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  list  -search S -sort KEY -desc -page N   show the customer table")
	fmt.Println("  mock                                      create a customer with test data")
	fmt.Println("  edit  -id ID -set section.field=value     create or update a customer")
	fmt.Println("  delete -id ID                             delete a customer")
	fmt.Println("  reset -id ID                              reopen the public form")
	fmt.Println("  link  -id ID                              issue a public access link")
	fmt.Println("  public-fill -id ID -token T -set ...      submit the public form")
	fmt.Println("  export -out FILE                          export customers as CSV")
}
