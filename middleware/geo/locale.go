package geo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

// Locales são os idiomas suportados pelo site.
var Locales = []string{"en", "fr", "es", "de", "it", "pt", "nl", "ja", "ko", "zh", "ar", "hi", "ru"}

// LocaleTable mapeia código de país ISO 3166-1 alpha-2 para locale.
type LocaleTable map[string]string

var byLocale = map[string][]string{
	"fr": {"FR", "CA", "BE", "CH", "LU", "MC", "SN", "CI", "ML", "BF", "NE", "TG", "BJ", "GA", "CG", "CD", "CM", "MG", "HT"},
	"es": {"ES", "MX", "AR", "CO", "CL", "PE", "VE", "EC", "GT", "CU", "BO", "DO", "HN", "PY", "SV", "NI", "CR", "PA", "UY", "PR", "GQ"},
	"de": {"DE", "AT", "LI"},
	"it": {"IT", "SM", "VA"},
	"pt": {"PT", "BR", "AO", "MZ", "CV", "GW", "ST", "TL"},
	"nl": {"NL", "SR", "AW", "CW"},
	"ja": {"JP"},
	"ko": {"KR"},
	"zh": {"CN", "TW", "HK", "MO", "SG"},
	"ar": {"SA", "AE", "EG", "IQ", "JO", "KW", "LB", "LY", "MA", "OM", "QA", "SY", "TN", "YE", "BH", "DZ", "SD", "PS", "MR"},
	"hi": {"IN"},
	"ru": {"RU", "BY", "KZ", "KG"},
}

// DefaultTable é a tabela embutida; países ausentes caem em "en".
var DefaultTable = func() LocaleTable {
	t := make(LocaleTable)
	for locale, countries := range byLocale {
		for _, cc := range countries {
			t[cc] = locale
		}
	}
	return t
}()

// Locale devolve o locale do país, ou DefaultLocale.
func (t LocaleTable) Locale(countryCode string) string {
	if l, ok := t[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return l
	}
	return DefaultLocale
}

// LocaleFromCountry usa a tabela embutida.
func LocaleFromCountry(countryCode string) string {
	return DefaultTable.Locale(countryCode)
}

func supported(locale string) bool {
	for _, l := range Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// LoadLocaleFile lê um YAML `CC: locale` e aplica por cima da tabela embutida.
func LoadLocaleFile(path string) (LocaleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale file: %w", err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse locale file %s: %w", path, err)
	}

	t := make(LocaleTable, len(DefaultTable)+len(overrides))
	for cc, l := range DefaultTable {
		t[cc] = l
	}
	for cc, l := range overrides {
		cc = strings.ToUpper(strings.TrimSpace(cc))
		l = strings.ToLower(strings.TrimSpace(l))
		if len(cc) != 2 {
			return nil, fmt.Errorf("locale file %s: invalid country code %q", path, cc)
		}
		if !supported(l) {
			return nil, fmt.Errorf("locale file %s: unsupported locale %q for %s", path, l, cc)
		}
		t[cc] = l
	}
	return t, nil
}
