package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	userLocale, err := locale.GetLocale()
	if err != nil {
		log.Printf("uvm32: locale: %v", err)
	}

	tag, err := language.Parse(userLocale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	printer = message.NewPrinter(tag)
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
