package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"labloan-client/config"
	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/session"
	"labloan-client/internal/view"
)

const dateLayout = "2006-01-02"

var allRoles = []model.Role{model.RoleAdmin, model.RoleAssistant, model.RoleStudent}
var adminRoles = []model.Role{model.RoleAdmin, model.RoleAssistant}

type app struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	store  session.Store
	guard  *session.Guard
	client *gateway.Client
}

func (a *app) usage() {
	fmt.Fprintln(a.out, `Usage: labloanctl <command> [flags]

Session:
  login -email E -password P     authenticate and store the session
  register -name N -email E ...  create a student account
  logout                         revoke the session
  whoami                         show the current identity

Student:
  catalog [-search S] [-condition C] [-location L] [-page N]
  request -item ID -quantity N -purpose TEXT [-loan-date D] [-due-date D]
  active [-page N]               list borrowed items
  extend -loan ID                request a 7-day extension
  return -loan ID                return a borrowed item
  history [-page N]              list completed loans

Administration:
  dashboard [-page N]            stats and recent loan activity
  approve|reject -loan ID        decide a pending request
  approve-extension|reject-extension -loan ID
  items list|add|edit|delete     manage the catalog`)
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "catalog":
		return a.catalog(ctx, args)
	case "request":
		return a.request(ctx, args)
	case "active":
		return a.active(ctx, args)
	case "extend":
		return a.loanSelfAction(ctx, args, "extend")
	case "return":
		return a.loanSelfAction(ctx, args, "return")
	case "history":
		return a.history(ctx, args)
	case "dashboard":
		return a.dashboard(ctx, args)
	case "approve", "reject", "approve-extension", "reject-extension":
		return a.decide(ctx, args, command)
	case "items":
		return a.items(ctx, args)
	case "help", "-h", "--help":
		a.usage()
		return nil
	}
	a.usage()
	return fmt.Errorf("unknown command %q", command)
}

// fail renders an error as a notification and exits non-zero. A 401 clears
// the stored session first, so the next command lands on login.
func (a *app) fail(err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		if cerr := a.guard.Expire(); cerr != nil {
			a.logger.Printf("failed to clear session: %v", cerr)
		}
		a.client.FlushCache()
		a.logger.Fatal("session expired, please login again")
	}
	if errors.As(err, &apiErr) {
		a.logger.Fatalf("%s", apiErr.UserMessage())
	}
	a.logger.Fatalf("%v", err)
}

// protect runs the session guard before a view, mapping redirects to errors.
func (a *app) protect(allowed ...model.Role) (model.Role, error) {
	decision, role, err := a.guard.Check(allowed...)
	if err != nil {
		return "", err
	}
	switch decision {
	case session.RedirectLogin:
		return "", errors.New(`not logged in; run "labloanctl login" first`)
	case session.RedirectDefault:
		return "", fmt.Errorf("role %q cannot open this view; try %q instead", role, session.DefaultView(role))
	}
	return role, nil
}

// --- Session commands ---

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	token, user, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("login response carried no token")
	}
	if err := a.store.SetCredentials(token, user.Role); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s (%s). Landing view: %s\n",
		user.Name, user.Role, session.DefaultView(user.Role))
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	fs.Parse(args)

	res, err := a.client.Register(ctx, gateway.RegisterRequest{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if _, err := a.protect(); err != nil {
		return err
	}
	// Local credentials are dropped even when the revocation call fails.
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Printf("logout call failed: %v", err)
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if _, err := a.protect(); err != nil {
		return err
	}
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	if user.UnderPenalty(time.Now()) {
		fmt.Fprintf(a.out, "Under penalty until %s\n", a.formatDate(*user.PenaltyUntil))
	}
	if token, err := a.store.Token(); err == nil {
		if exp, ok := session.TokenExpiry(token); ok {
			fmt.Fprintf(a.out, "Token expires %s\n", exp.Format(time.RFC3339))
		}
	}
	return nil
}

// --- Student commands ---

func (a *app) catalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	search := fs.String("search", "", "match name or code")
	condition := fs.String("condition", "", "filter by condition")
	location := fs.String("location", "", "filter by location")
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	if _, err := a.protect(allRoles...); err != nil {
		return err
	}

	v := view.NewCatalog(a.client, a.cfg.UI.ItemsPerPage)
	if err := v.Load(ctx); err != nil {
		return err
	}
	v.SetSearch(*search)
	v.SetCondition(model.Condition(*condition))
	v.SetLocation(*location)
	v.GoTo(*page)

	a.renderItems(v.Page())
	fmt.Fprintf(a.out, "%d of %d items match\n", len(v.Page()), v.FilteredCount())
	a.renderPager(v.CurrentPage(), v.TotalPages(), v.PageNumbers())
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	itemID := fs.Int64("item", 0, "item id")
	quantity := fs.Int("quantity", 1, "units to borrow")
	purpose := fs.String("purpose", "", "what the loan is for")
	loanDate := fs.String("loan-date", "", "loan date (YYYY-MM-DD, default today)")
	dueDate := fs.String("due-date", "", "due date (YYYY-MM-DD, default loan date + 7)")
	fs.Parse(args)

	if _, err := a.protect(allRoles...); err != nil {
		return err
	}

	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	item, err := a.findItem(ctx, *itemID)
	if err != nil {
		return err
	}

	form := view.NewLoanForm(a.client, user)
	if err := form.Select(item); err != nil {
		return err
	}
	now := time.Now()
	if err := form.OpenForm(now); err != nil {
		return err
	}
	if form.Blocked() {
		return fmt.Errorf("loan requests are blocked while under penalty (until %s)",
			a.formatDate(form.PenaltyUntil()))
	}

	if *loanDate != "" {
		d, err := time.Parse(dateLayout, *loanDate)
		if err != nil {
			return fmt.Errorf("invalid -loan-date: %w", err)
		}
		if err := form.SetLoanDate(d); err != nil {
			return err
		}
	}
	if *dueDate != "" {
		d, err := time.Parse(dateLayout, *dueDate)
		if err != nil {
			return fmt.Errorf("invalid -due-date: %w", err)
		}
		if err := form.SetDueDate(d); err != nil {
			return err
		}
	}
	if err := form.SetQuantity(*quantity); err != nil {
		return err
	}
	if err := form.SetPurpose(*purpose); err != nil {
		return err
	}

	outcome, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, outcome.Message)
	if !outcome.Success {
		os.Exit(1)
	}
	return nil
}

func (a *app) active(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("active", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	if _, err := a.protect(allRoles...); err != nil {
		return err
	}

	v := view.NewActiveLoans(a.client)
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	if err := v.GoTo(ctx, *page); err != nil {
		return err
	}

	a.renderLoans(v.Loans(), time.Now())
	a.renderPager(v.CurrentPage(), v.LastPage(), v.PageNumbers())
	return nil
}

// loanSelfAction runs extend or return against a loan on any page of the
// caller's active listing.
func (a *app) loanSelfAction(ctx context.Context, args []string, action string) error {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	loanID := fs.Int64("loan", 0, "loan id")
	fs.Parse(args)

	if _, err := a.protect(allRoles...); err != nil {
		return err
	}

	v := view.NewActiveLoans(a.client)
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	found := false
	for page := 1; ; page++ {
		for _, l := range v.Loans() {
			if l.ID == *loanID {
				found = true
			}
		}
		if found || page >= v.LastPage() {
			break
		}
		if err := v.GoTo(ctx, page+1); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("loan %d is not in your active listing", *loanID)
	}

	var res gateway.Result
	var err error
	if action == "extend" {
		res, err = v.RequestExtension(ctx, *loanID)
	} else {
		res, err = v.Return(ctx, *loanID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	if _, err := a.protect(allRoles...); err != nil {
		return err
	}

	v := view.NewHistory(a.client)
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	if err := v.GoTo(ctx, *page); err != nil {
		return err
	}

	a.renderLoans(v.Loans(), time.Now())
	fmt.Fprintf(a.out, "Page %d of %d\n", v.CurrentPage(), v.LastPage())
	return nil
}

// --- Administration commands ---

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	if _, err := a.protect(adminRoles...); err != nil {
		return err
	}

	v := view.NewLifecycle(a.client, a.cfg.UI.LoansPerPage)
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	v.GoTo(*page)

	stats := v.Stats()
	fmt.Fprintf(a.out, "Items: %d  Users: %d  Active loans: %d  Pending requests: %d\n",
		stats.TotalItems, stats.TotalUsers, stats.ActiveLoans, stats.PendingRequests)
	a.renderLoans(v.Page(), time.Now())
	a.renderPager(v.CurrentPage(), v.TotalPages(), v.PageNumbers())
	return nil
}

func (a *app) decide(ctx context.Context, args []string, action string) error {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	loanID := fs.Int64("loan", 0, "loan id")
	fs.Parse(args)

	if _, err := a.protect(adminRoles...); err != nil {
		return err
	}

	v := view.NewLifecycle(a.client, a.cfg.UI.LoansPerPage)
	if err := v.Refresh(ctx); err != nil {
		return err
	}

	var res gateway.Result
	var err error
	switch action {
	case "approve":
		res, err = v.Approve(ctx, *loanID)
	case "reject":
		res, err = v.Reject(ctx, *loanID)
	case "approve-extension":
		res, err = v.ApproveExtension(ctx, *loanID)
	case "reject-extension":
		res, err = v.RejectExtension(ctx, *loanID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *app) items(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: labloanctl items list|add|edit|delete")
	}
	sub, rest := args[0], args[1:]

	if _, err := a.protect(adminRoles...); err != nil {
		return err
	}

	v := view.NewItemAdmin(a.client, a.cfg.UI.ItemsPerPage)
	if err := v.Load(ctx); err != nil {
		return err
	}

	switch sub {
	case "list":
		fs := flag.NewFlagSet("items list", flag.ExitOnError)
		page := fs.Int("page", 1, "page number")
		fs.Parse(rest)
		v.GoTo(*page)
		a.renderItems(v.Page())
		a.renderPager(v.CurrentPage(), v.TotalPages(), v.PageNumbers())
		return nil

	case "add", "edit":
		fs := flag.NewFlagSet("items "+sub, flag.ExitOnError)
		id := fs.Int64("id", 0, "item id (edit only)")
		name := fs.String("name", "", "item name")
		code := fs.String("code", "", "unique item code")
		description := fs.String("description", "", "item description")
		location := fs.String("location", "", "storage location")
		condition := fs.String("condition", string(model.ConditionAvailable), "item condition")
		quantity := fs.Int("quantity", 1, "units in stock")
		fs.Parse(rest)

		in := gateway.ItemInput{
			Name:        *name,
			Code:        *code,
			Description: *description,
			Location:    *location,
			Condition:   model.Condition(*condition),
			Quantity:    *quantity,
		}
		if problems := v.Validate(in); len(problems) > 0 {
			return fmt.Errorf("invalid item: %v", problems)
		}

		var res gateway.Result
		var err error
		if sub == "add" {
			res, err = v.Create(ctx, in)
		} else {
			res, err = v.Update(ctx, *id, in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, res.Message)
		return nil

	case "delete":
		fs := flag.NewFlagSet("items delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "item id")
		fs.Parse(rest)

		res, err := v.Delete(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, res.Message)
		return nil
	}
	return fmt.Errorf("unknown items subcommand %q", sub)
}

// findItem locates a catalog entry by id.
func (a *app) findItem(ctx context.Context, id int64) (model.Item, error) {
	items, _, err := a.client.Items(ctx, 100)
	if err != nil {
		return model.Item{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.Item{}, fmt.Errorf("item %d not found", id)
}
