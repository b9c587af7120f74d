// Package main is the MediTrack terminal reminder client.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"

	"github.com/Ayushbunkar/Meditrack/internal/client"
	"github.com/Ayushbunkar/Meditrack/internal/config"
	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/scheduler"
)

const usage = `Usage: meditrack-reminder [flags] <command> [args]

Commands:
  register               create an account and store its token
  login                  log in and store the token
  meds                   list medicines
  add NAME HH:MM DOSAGE  add a medicine
  rm ID                  delete a medicine
  today                  today's doses and counts
  history                lifetime counts
  run                    fire reminders until interrupted

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoCredentials) {
			fmt.Fprintln(os.Stderr, "hint: run `meditrack-reminder login`")
		}
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.ReminderConfig
	api    *client.Client
	tokens client.TokenFile
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.LoadReminder()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("meditrack-reminder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API base URL")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "token file (default ~/.config/meditrack/token)")
	fs.DurationVar(&cfg.CheckInterval, "interval", cfg.CheckInterval, "clock check interval")
	fs.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "medicine refresh interval")
	fs.DurationVar(&cfg.PromptTimeout, "prompt-timeout", cfg.PromptTimeout, "how long a reminder waits for an answer")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	if cfg.TokenFile == "" {
		cfg.TokenFile = client.DefaultTokenPath()
	}
	tokens := client.TokenFile{Path: cfg.TokenFile}

	var creds client.CredentialProvider = tokens
	if cfg.Token != "" {
		creds = client.StaticToken(cfg.Token)
	}

	a := &app{
		cfg:    cfg,
		api:    client.New(cfg.APIURL, creds, client.WithTimeout(cfg.RequestTimeout)),
		tokens: tokens,
		in:     stdin,
		reader: bufio.NewReader(stdin),
		out:    stdout,
		logger: newLogger(stderr, cfg.LogLevel),
		now:    time.Now,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "meds":
		return a.listMedicines(ctx)
	case "add":
		return a.addMedicine(ctx, rest)
	case "rm":
		return a.removeMedicine(ctx, rest)
	case "today":
		return a.today(ctx)
	case "history":
		return a.history(ctx)
	case "run":
		return a.runScheduler(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: time.Kitchen}))
}

func (a *app) register(ctx context.Context) error {
	name, err := getText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	email, err := getText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	resp, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered as %s\n", resp.User.Email)
	return nil
}

func (a *app) login(ctx context.Context) error {
	email, err := getText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", resp.User.Name)
	return nil
}

func (a *app) listMedicines(ctx context.Context) error {
	meds, err := a.api.ListMedicines(ctx)
	if err != nil {
		return err
	}
	if len(meds) == 0 {
		fmt.Fprintln(a.out, "No medicines scheduled.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tNAME\tDOSAGE\tID")
	for _, m := range meds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Time, m.Name, m.Dosage, m.ID)
	}
	return tw.Flush()
}

func (a *app) addMedicine(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: add NAME HH:MM DOSAGE")
	}
	m, err := a.api.CreateMedicine(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s at %s (%s)\n", m.Name, m.Time, m.ID)
	return nil
}

func (a *app) removeMedicine(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rm ID")
	}
	if err := a.api.DeleteMedicine(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Medicine deleted")
	return nil
}

func (a *app) today(ctx context.Context) error {
	entries, err := a.api.History(ctx, client.HistoryQuery{})
	if err != nil {
		return err
	}
	todays := model.OnDate(client.Details(entries), a.now(), time.Local)
	summary := model.Summarize(todays)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMEDICINE\tSTATE")
	for _, d := range todays {
		name := "(deleted)"
		if d.Medicine != nil {
			name = d.Medicine.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Time, name, d.State())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nToday: %d taken, %d missed (%d unanswered), %d total\n",
		summary.Taken, summary.Missed, summary.Pending, summary.Total)
	return nil
}

func (a *app) history(ctx context.Context) error {
	entries, err := a.api.History(ctx, client.HistoryQuery{})
	if err != nil {
		return err
	}
	s := client.Summarize(entries, nil, time.Local)
	fmt.Fprintf(a.out, "All time: %d taken, %d missed (%d unanswered), %d total\n",
		s.Taken, s.Missed, s.Pending, s.Total)
	return nil
}

func (a *app) runScheduler(ctx context.Context) error {
	if _, err := a.api.Me(ctx); err != nil {
		return fmt.Errorf("check credentials: %w", err)
	}

	sched := scheduler.New(a.api, newTerminalPrompter(a.in, a.out), scheduler.Config{
		CheckInterval:   a.cfg.CheckInterval,
		RefreshInterval: a.cfg.RefreshInterval,
		PromptTimeout:   a.cfg.PromptTimeout,
		Now:             a.now,
		Logger:          a.logger,
	})
	if err := sched.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Reminders running. Press Ctrl+C to stop.")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return err
	}

	for _, f := range sched.Firings() {
		fmt.Fprintf(a.out, "%s %s %s\n", f.Time, f.Name, f.State)
	}
	return nil
}
