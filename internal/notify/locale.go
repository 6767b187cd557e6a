package notify

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

var osGetenv = os.Getenv

// UserLanguages returns the languages requested through the environment.
// LANGUAGE takes precedence and may list several locales separated by
// colons; otherwise the first of LC_ALL, LC_MESSAGES and LANG is used.
func UserLanguages() []string {
	if langs := osGetenv("LANGUAGE"); langs != "" {
		return strings.Split(langs, ":")
	}
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if lang := osGetenv(name); lang != "" {
			return []string{lang}
		}
	}
	return nil
}

// parseLocale converts a POSIX locale name such as "fr_CA.UTF-8@euro"
// into a language tag.
func parseLocale(locale string) (language.Tag, bool) {
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[:i]
	}
	switch locale {
	case "", "C", "POSIX":
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
