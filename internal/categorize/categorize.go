// Package categorize assigns spending categories to transactions by
// matching keywords against description text.
package categorize

import (
	"strings"

	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// FallbackCategory is returned when no rule matches.
const FallbackCategory = "Other"

// Rule maps a category to the keywords that select it. Rules are
// evaluated in declaration order; the first match wins.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// defaultRules is the built-in rule table. Matching is literal
// substring, not tokenized, so "cartoon" matches "car"; that is an
// accepted limitation of the heuristic.
var defaultRules = []Rule{
	{"Food & Dining", []string{"restaurant", "cafe", "coffee", "diner", "food", "grocery", "pizza", "burger", "starbucks", "mcdonalds", "chipotle", "uber eats", "doordash", "grubhub"}},
	{"Shopping", []string{"amazon", "walmart", "target", "costco", "ebay", "etsy", "store", "shop", "retail", "purchase"}},
	{"Transportation", []string{"gas", "fuel", "uber", "lyft", "taxi", "transit", "parking", "toll", "auto", "car", "vehicle", "train", "bus", "subway"}},
	{"Bills & Utilities", []string{"bill", "utility", "electric", "water", "gas", "internet", "phone", "mobile", "cable", "tv", "netflix", "spotify", "hulu", "subscription"}},
	{"Entertainment", []string{"movie", "theater", "cinema", "concert", "event", "ticket", "game", "music", "spotify", "netflix", "hulu", "disney+", "hbo"}},
	{"Housing", []string{"rent", "mortgage", "home", "apartment", "house", "property", "real estate", "hoa", "maintenance"}},
	{"Income", []string{"payroll", "salary", "deposit", "income", "payment", "wage", "direct deposit", "interest", "dividend", "refund"}},
	{"Health & Fitness", []string{"doctor", "medical", "health", "pharmacy", "fitness", "gym", "wellness", "dental", "vision", "insurance"}},
	{"Travel", []string{"hotel", "flight", "airline", "airbnb", "travel", "vacation", "trip", "booking", "expedia", "travelocity"}},
	{"Education", []string{"school", "college", "university", "tuition", "education", "book", "course", "class", "student", "loan"}},
	{"Personal Care", []string{"salon", "spa", "haircut", "beauty", "cosmetic", "personal care"}},
	{"Gifts & Donations", []string{"gift", "donation", "charity", "nonprofit", "present"}},
	{"Investments", []string{"investment", "stock", "bond", "mutual fund", "etf", "brokerage", "retirement", "401k", "ira"}},
	{"Transfer", []string{"transfer", "zelle", "venmo", "paypal", "cash app", "wire", "ach", "withdrawal", "deposit"}},
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Categorizer evaluates an ordered rule table.
type Categorizer struct {
	rules []Rule
}

// New creates a Categorizer. A nil or empty rule list selects the
// built-in table.
func New(rules []Rule) *Categorizer {
	if len(rules) == 0 {
		rules = defaultRules
	}
	return &Categorizer{rules: rules}
}

// Categories lists the known category names in rule order, ending with
// the fallback.
func (c *Categorizer) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return append(out, FallbackCategory)
}

// Suggest returns the first category whose keywords match the
// lower-cased description, or the fallback.
func (c *Categorizer) Suggest(description string) string {
	description = strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(description, kw) {
				return rule.Category
			}
		}
	}
	return FallbackCategory
}

// Categorize fills the category of every row whose category cell is
// empty, from its description. Existing categories are never
// overwritten, so user or source categorization takes precedence and
// the operation is idempotent. The category column is created if
// missing; without a description column nothing is filled.
func (c *Categorizer) Categorize(t *tabular.Table) *tabular.Table {
	out := t.Clone()
	out.AddColumn(schema.FieldCategory)

	if !out.HasColumn(schema.FieldDescription) {
		return out
	}

	for r := range out.Rows {
		if out.Cell(r, schema.FieldCategory) != "" {
			continue
		}
		out.SetCell(r, schema.FieldCategory, c.Suggest(out.Cell(r, schema.FieldDescription)))
	}
	return out
}

// Suggest applies the built-in rule table.
func Suggest(description string) string {
	return New(nil).Suggest(description)
}

// Categorize applies the built-in rule table.
func Categorize(t *tabular.Table) *tabular.Table {
	return New(nil).Categorize(t)
}
