// Package notify renders the messages shown to the user, translated with
// go-i18n.
package notify

import (
	"embed"
	"fmt"
	"io"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// Message identifiers.
const (
	CatalogSelected  = "CatalogSelected"
	NoCatalog        = "NoCatalog"
	NoSelection      = "NoSelection"
	InvalidSelection = "InvalidSelection"
	ReadError        = "ReadError"
	ParseError       = "ParseError"
	SchemaError      = "SchemaError"
	SaveError        = "SaveError"
	LockError        = "LockError"
	FileSaved        = "FileSaved"
	Reused           = "Reused"
)

// Notifier writes user-facing messages to a terminal.
type Notifier struct {
	w         io.Writer
	localizer *i18n.Localizer
	log       *zap.Logger
}

func newBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			panic(err)
		}
	}
	return bundle
}

// New returns a Notifier writing to w. locale selects the language; when
// empty the languages of the environment are used.
func New(w io.Writer, locale string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}

	var requested []string
	if locale != "" {
		requested = []string{locale}
	} else {
		requested = UserLanguages()
	}
	var langs []string
	for _, l := range requested {
		if tag, ok := parseLocale(l); ok {
			langs = append(langs, tag.String())
		}
	}
	langs = append(langs, language.English.String())

	return &Notifier{
		w:         w,
		localizer: i18n.NewLocalizer(newBundle(), langs...),
		log:       log,
	}
}

// Text renders the message id with data. Unknown ids render as the id.
func (n *Notifier) Text(id string, data map[string]any) string {
	msg, err := n.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		n.log.Warn("localize failed", zap.String("id", id), zap.Error(err))
		return id
	}
	return msg
}

// Info prints an informational message.
func (n *Notifier) Info(id string, data map[string]any) {
	fmt.Fprintln(n.w, n.Text(id, data))
}

// Error prints an error message. The message is logged as well so it
// shows up in JSON logs.
func (n *Notifier) Error(id string, data map[string]any) {
	text := n.Text(id, data)
	n.log.Debug("error reported", zap.String("id", id), zap.String("text", text))
	fmt.Fprintln(n.w, text)
}
