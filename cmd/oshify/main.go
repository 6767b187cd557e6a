package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/oshifier/oshify"
	"github.com/oshifier/oshify/catalog"
	"github.com/oshifier/oshify/internal/config"
	"github.com/oshifier/oshify/internal/logging"
	"github.com/oshifier/oshify/internal/notify"
	"github.com/oshifier/oshify/internal/session"
	"github.com/oshifier/oshify/internal/source"
)

const (
	exitOK = iota
	exitFailure
	exitSelection
	exitCatalog
	exitPersist
)

var timeNow = time.Now

type options struct {
	Directory string `short:"C" long:"directory" default:"." value-name:"DIR" description:"read .oshify.toml and .env from DIR"`

	Catalog string `short:"c" long:"catalog" value-name:"FILE" description:"use FILE as the JSON catalog"`

	LogLevel string `long:"log-level" value-name:"LEVEL" description:"log level: debug, info, warn or error"`

	LogFormat string `long:"log-format" value-name:"FORMAT" description:"log format: text or json"`

	Locale string `long:"locale" value-name:"LOCALE" description:"language of the messages shown"`
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type application struct {
	opts options

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	log    *zap.Logger
	notify *notify.Notifier
}

// setup loads the configuration once the global options are parsed.
func (app *application) setup() error {
	cfg, err := config.Load(app.opts.Directory)
	if err != nil {
		return err
	}
	if app.opts.Catalog != "" {
		cfg.Catalog = app.opts.Catalog
	}
	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
	}
	if app.opts.LogFormat != "" {
		cfg.LogFormat = app.opts.LogFormat
	}
	if app.opts.Locale != "" {
		cfg.Locale = app.opts.Locale
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(app.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.log = log
	app.notify = notify.New(app.stderr, cfg.Locale, log)
	return nil
}

// catalogPath returns the catalog given on the command line or in the
// configuration, falling back to the one remembered by "use".
func (app *application) catalogPath() (string, error) {
	if app.cfg.Catalog != "" {
		return app.cfg.Catalog, nil
	}
	s, err := session.Load()
	if err != nil {
		return "", err
	}
	if s.Catalog == "" {
		app.notify.Error(notify.NoCatalog, nil)
		return "", &exitError{exitCatalog}
	}
	app.log.Debug("using remembered catalog", zap.String("path", s.Catalog), zap.Time("selected", s.Selected))
	return s.Catalog, nil
}

// report tells the user about a failed catalog operation and returns the
// matching exit status.
func (app *application) report(err error, id string) error {
	var code int
	switch {
	case errors.Is(err, oshify.ErrInvalidSelection):
		app.notify.Error(notify.InvalidSelection, nil)
		code = exitSelection
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrIO):
		app.notify.Error(notify.ReadError, map[string]any{"Err": err})
		code = exitCatalog
	case errors.Is(err, catalog.ErrParse):
		app.notify.Error(notify.ParseError, map[string]any{"Err": err})
		code = exitCatalog
	case errors.Is(err, catalog.ErrSchema):
		app.notify.Error(notify.SchemaError, nil)
		code = exitCatalog
	case errors.Is(err, catalog.ErrLock):
		app.notify.Error(notify.LockError, map[string]any{"Err": err})
		code = exitCatalog
	case errors.Is(err, catalog.ErrPersist):
		app.notify.Error(notify.SaveError, map[string]any{"Err": err, "ID": id})
		code = exitPersist
	default:
		return err
	}
	app.log.Debug("operation failed", zap.Error(err))
	return &exitError{code}
}

type cmdLocalize struct {
	app *application

	File   string `short:"f" long:"file" value-name:"SOURCE" description:"read the selection from SOURCE"`
	Offset int    `long:"offset" value-name:"N" description:"byte offset of the selection in SOURCE"`
	Length int    `long:"length" value-name:"N" description:"byte length of the selection in SOURCE"`
	Write  bool   `short:"w" long:"write" description:"replace the selection in SOURCE instead of printing the replacement"`
	Strict bool   `long:"strict" description:"reject literals whose markers do not match their placeholders"`
	NoLock bool   `long:"no-lock" description:"do not lock the catalog file"`

	Positional struct {
		Literal string `positional-arg-name:"LITERAL"`
	} `positional-args:"yes"`
}

func (x *cmdLocalize) selection() (string, error) {
	switch {
	case x.File != "":
		return source.ReadSpan(x.File, source.Span{Start: x.Offset, End: x.Offset + x.Length})
	case x.Positional.Literal != "":
		return x.Positional.Literal, nil
	}
	data, err := io.ReadAll(x.app.stdin)
	if err != nil {
		return "", err
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

func (x *cmdLocalize) Execute(args []string) error {
	app := x.app
	if err := app.setup(); err != nil {
		return err
	}
	if x.Write && x.File == "" {
		return errors.New("--write needs --file")
	}

	literal, err := x.selection()
	if err != nil {
		return err
	}
	if literal == "" {
		app.notify.Error(notify.NoSelection, nil)
		return &exitError{exitSelection}
	}

	path, err := app.catalogPath()
	if err != nil {
		return err
	}

	r := oshify.Reconciler{
		Style:  oshify.Style{Getter: app.cfg.Style.Getter, Format: app.cfg.Style.Format},
		Strict: x.Strict || app.cfg.Strict,
		NoLock: x.NoLock || app.cfg.NoLock,
		Logger: app.log,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := r.Reconcile(ctx, literal, path)
	if err != nil {
		if res != nil {
			// the new entry is lost but the replacement is still shown
			// so the user can reconcile by hand
			fmt.Fprintln(app.stdout, res.Replacement)
			return app.report(err, res.ID)
		}
		return app.report(err, "")
	}

	if x.Write {
		span := source.Span{Start: x.Offset, End: x.Offset + x.Length}
		if err := source.ReplaceSpan(x.File, span, res.Replacement, &literal); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(app.stdout, res.Replacement)
	}

	if res.Created {
		app.notify.Info(notify.FileSaved, map[string]any{"Path": path})
	} else {
		app.notify.Info(notify.Reused, map[string]any{"ID": res.ID})
	}
	return nil
}

type cmdUse struct {
	app *application

	Positional struct {
		Catalog string `positional-arg-name:"FILE" required:"yes"`
	} `positional-args:"yes"`
}

func (x *cmdUse) Execute(args []string) error {
	app := x.app
	if err := app.setup(); err != nil {
		return err
	}
	path := x.Positional.Catalog
	if _, err := catalog.Load(path); err != nil {
		return app.report(err, "")
	}

	s, err := session.Load()
	if err != nil {
		return err
	}
	if err := s.Remember(path, timeNow()); err != nil {
		return err
	}
	app.notify.Info(notify.CatalogSelected, map[string]any{"Name": filepath.Base(path)})
	return nil
}

type cmdWhich struct {
	app *application
}

func (x *cmdWhich) Execute(args []string) error {
	app := x.app
	if err := app.setup(); err != nil {
		return err
	}
	path, err := app.catalogPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}

type cmdForget struct {
	app *application
}

func (x *cmdForget) Execute(args []string) error {
	if err := x.app.setup(); err != nil {
		return err
	}
	return session.Clear()
}

func newParser(app *application) *flags.Parser {
	parser := flags.NewParser(&app.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "oshify"
	for _, cmd := range []struct {
		name, short, long string
		data              interface{}
	}{
		{"localize", "Replace a quoted literal with a catalog reference",
			"The literal is read from the LITERAL argument, from --file/--offset/--length or from standard input.",
			&cmdLocalize{app: app}},
		{"use", "Remember the catalog file to use", "", &cmdUse{app: app}},
		{"which", "Print the catalog file in use", "", &cmdWhich{app: app}},
		{"forget", "Forget the remembered catalog file", "", &cmdForget{app: app}},
	} {
		if _, err := parser.AddCommand(cmd.name, cmd.short, cmd.long, cmd.data); err != nil {
			panic(err)
		}
	}
	return parser
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &application{stdin: stdin, stdout: stdout, stderr: stderr}
	parser := newParser(app)

	_, err := parser.ParseArgs(args)
	if app.log != nil {
		defer app.log.Sync()
	}
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
		fmt.Fprintln(stdout, flagsErr.Message)
		return exitOK
	}
	fmt.Fprintf(stderr, "oshify: %v\n", err)
	return exitFailure
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
