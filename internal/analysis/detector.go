package analysis

import "strings"

// categoryKeywords is the ordered keyword table used to map a free-text
// query to a profile key. Order is significant: the first matching category
// wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"celular", []string{"celular", "smartphone", "telefono", "teléfono", "iphone", "galaxy"}},
	{"heladera", []string{"heladera", "refrigerador", "freezer", "nevera"}},
	{"notebook", []string{"notebook", "laptop", "portatil", "portátil", "macbook"}},
	{"televisor", []string{"televisor", "smart tv", "tele ", "pantalla"}},
	{"lavarropas", []string{"lavarropas", "lavadora", "secarropas"}},
}

// DetectCategory maps a raw user query to a profile key by substring
// matching against fixed keyword sets. Returns DefaultCategory when nothing
// matches. Pure and total.
func DetectCategory(query string) string {
	q := strings.ToLower(query)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.category
			}
		}
	}
	return DefaultCategory
}
