// Package i18n negotiates the response language and translates messages and labels
// for Arabic (default, right-to-left), French and English.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	Arabic  = "ar"
	French  = "fr"
	English = "en"
)

var supported = []language.Tag{language.Arabic, language.French, language.English}

var matcher = language.NewMatcher(supported)

var (
	catOnce sync.Once
	cat     *catalog.Builder
)

func catalogue() *catalog.Builder {
	catOnce.Do(func() {
		cat = catalog.NewBuilder(catalog.Fallback(language.English))
		for _, set := range []map[string]map[string]string{entries, labelEntries} {
			for key, tr := range set {
				for lang, msg := range tr {
					_ = cat.SetString(language.MustParse(lang), key, msg)
				}
			}
		}
	})
	return cat
}

// Negotiate picks a supported language. An explicit ?lang= wins over Accept-Language;
// fallback is used when neither matches.
func Negotiate(queryLang, acceptLanguage, fallback string) string {
	if queryLang != "" {
		if tag, err := language.Parse(queryLang); err == nil {
			if l, conf := match(tag); conf != language.No {
				return l
			}
		}
	}

	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			if l, conf := match(tags...); conf != language.No {
				return l
			}
		}
	}

	if IsSupported(fallback) {
		return fallback
	}
	return Arabic
}

func match(tags ...language.Tag) (string, language.Confidence) {
	_, idx, conf := matcher.Match(tags...)
	base, _ := supported[idx].Base()
	return base.String(), conf
}

func IsSupported(lang string) bool {
	return lang == Arabic || lang == French || lang == English
}

// Dir is the text direction the UI should render for lang.
func Dir(lang string) string {
	if lang == Arabic {
		return "rtl"
	}
	return "ltr"
}

// T translates a message key. Unknown keys come back unchanged.
func T(lang, key string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag, message.Catalog(catalogue()))
	return p.Sprintf(key)
}
