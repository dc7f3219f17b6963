// Package i18n holds the dialog message catalog and request language resolution.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

// Message keys used by the dialog templates.
const (
	KeyTitle      = "dialog.title"
	KeyPrompt     = "dialog.prompt"
	KeyConfirm    = "dialog.confirm"
	KeyCancel     = "dialog.cancel"
	KeyConfirmed  = "dialog.confirmed"
	KeyCancelled  = "dialog.cancelled"
	KeyNotFound   = "dialog.not_found"
	KeyError      = "dialog.error"
	KeyParameters = "dialog.parameters"
)

var czech = language.MustParse("cs")

var supportedTags = []language.Tag{
	language.English,
	czech,
}

var tagMatcher = language.NewMatcher(supportedTags)

var catalogs = map[language.Tag]map[string]string{
	language.English: {
		KeyTitle:      "Confirmation required",
		KeyPrompt:     "Do you really want to run %s?",
		KeyConfirm:    "Yes, continue",
		KeyCancel:     "Cancel",
		KeyConfirmed:  "The action %s was completed.",
		KeyCancelled:  "The action was cancelled.",
		KeyNotFound:   "There is nothing to confirm. The request was already handled or has expired.",
		KeyError:      "The action %s failed. Please start again.",
		KeyParameters: "Parameters",
	},
	czech: {
		KeyTitle:      "Vyžadováno potvrzení",
		KeyPrompt:     "Opravdu chcete provést akci %s?",
		KeyConfirm:    "Ano, pokračovat",
		KeyCancel:     "Zrušit",
		KeyConfirmed:  "Akce %s byla dokončena.",
		KeyCancelled:  "Akce byla zrušena.",
		KeyNotFound:   "Není co potvrdit. Požadavek už byl vyřízen nebo vypršel.",
		KeyError:      "Akce %s selhala. Začněte prosím znovu.",
		KeyParameters: "Parametry",
	},
}

func init() {
	for tag, messages := range catalogs {
		for key, msg := range messages {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag picks the language from the lang query parameter, then Accept-Language.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		if tags, err := parseTags(langValue); err == nil {
			return match(tags)
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return match(tags)
		}
	}

	return Default()
}

func parseTags(value string) ([]language.Tag, error) {
	tag, err := language.Parse(value)
	if err != nil {
		return nil, err
	}
	return []language.Tag{tag}, nil
}

func match(tags []language.Tag) language.Tag {
	_, index, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return Default()
	}
	return supportedTags[index]
}
