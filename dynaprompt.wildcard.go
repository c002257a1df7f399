package dynaprompt

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/itsatony/go-dynaprompt/internal"
)

// wildcardNamePattern matches names that may be written as `_name_`
var wildcardNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// WildcardDefinition is a named list of entries a `_name_` reference draws from.
type WildcardDefinition struct {
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Entries     []string  `json:"entries" yaml:"entries"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Shared      bool      `json:"shared,omitempty" yaml:"shared,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero" yaml:"updated_at,omitempty"`
}

// Validate checks the name and that at least one entry is present
func (d *WildcardDefinition) Validate() error {
	if err := ValidateWildcardName(d.Name); err != nil {
		return err
	}
	if len(d.Entries) == 0 {
		return NewWildcardNameError(ErrMsgWildcardContentEmpty, d.Name)
	}
	return nil
}

// Tag returns the name as written in a prompt, e.g. `_hero_`
func (d *WildcardDefinition) Tag() string {
	return WildcardTag(d.Name)
}

// Clone returns a deep copy of the definition
func (d *WildcardDefinition) Clone() *WildcardDefinition {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Entries = append([]string(nil), d.Entries...)
	return &clone
}

// WildcardLookup is the read side of a wildcard dictionary.
// A name is resolvable only when it is known and has at least one entry.
type WildcardLookup interface {
	Entries(name string) ([]string, bool)
}

// WildcardMap is an in-memory WildcardLookup.
type WildcardMap map[string][]string

// Entries returns the entries for name
func (m WildcardMap) Entries(name string) ([]string, bool) {
	entries, ok := m[name]
	return entries, ok
}

// Names returns every name in sorted order
func (m WildcardMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns a definition per name in sorted order
func (m WildcardMap) Definitions() []*WildcardDefinition {
	defs := make([]*WildcardDefinition, 0, len(m))
	for _, name := range m.Names() {
		defs = append(defs, &WildcardDefinition{
			Name:    name,
			Entries: append([]string(nil), m[name]...),
		})
	}
	return defs
}

// NewWildcardMap indexes definitions by name. Later duplicates win.
func NewWildcardMap(defs ...*WildcardDefinition) WildcardMap {
	m := make(WildcardMap, len(defs))
	for _, d := range defs {
		if d == nil {
			continue
		}
		m[d.Name] = append([]string(nil), d.Entries...)
	}
	return m
}

// Picker returns a uniformly random index in [0, n). n is always positive.
type Picker func(n int) int

// DefaultPicker draws from math/rand/v2
func DefaultPicker(n int) int {
	return rand.IntN(n)
}

// WildcardTag wraps a name in underscores
func WildcardTag(name string) string {
	return WildcardWrap + name + WildcardWrap
}

// ExtractWildcardNames returns the distinct wildcard names in first-seen
// order. `file_name_here` contains none: both underscores of a wildcard
// must sit on a word boundary.
func ExtractWildcardNames(prompt string) []string {
	matches := internal.ScanWildcards(prompt)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Name]; ok {
			continue
		}
		seen[m.Name] = struct{}{}
		names = append(names, m.Name)
	}
	return names
}

// WildcardResolver substitutes one random entry per referenced name.
type WildcardResolver struct {
	lookup WildcardLookup
	pick   Picker
}

// NewWildcardResolver creates a resolver. A nil picker uses DefaultPicker.
func NewWildcardResolver(lookup WildcardLookup, pick Picker) *WildcardResolver {
	if pick == nil {
		pick = DefaultPicker
	}
	return &WildcardResolver{lookup: lookup, pick: pick}
}

// ResolveOnce draws one entry per distinct name and replaces every
// occurrence of that name with it. The result is trimmed.
//
// When any referenced name cannot be resolved the prompt is returned
// unchanged together with the missing names in first-seen order.
func (r *WildcardResolver) ResolveOnce(prompt string) (string, []string) {
	matches := internal.ScanWildcards(prompt)
	if len(matches) == 0 {
		return prompt, nil
	}

	drawn := make(map[string]string)
	var missing []string
	for _, m := range matches {
		if _, done := drawn[m.Name]; done || slices.Contains(missing, m.Name) {
			continue
		}
		entries, ok := r.entries(m.Name)
		if !ok {
			missing = append(missing, m.Name)
			continue
		}
		drawn[m.Name] = entries[r.pick(len(entries))]
	}

	if len(missing) > 0 {
		return prompt, missing
	}

	return substituteWildcards(prompt, drawn), nil
}

// substituteWildcards replaces every literal `_name_` of each drawn name,
// including occurrences inside words such as "my_a_s". Word boundaries only
// decide which names are drawn. Replacement is a single pass, so substituted
// values are never scanned again. Longer tags win at a shared position. The
// result is trimmed.
func substituteWildcards(prompt string, values map[string]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, WildcardTag(name), values[name])
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(prompt))
}

// entries reports the entry list for name when it is usable for a draw
func (r *WildcardResolver) entries(name string) ([]string, bool) {
	if r.lookup == nil {
		return nil, false
	}
	entries, ok := r.lookup.Entries(name)
	if !ok || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// CountWildcardCombinations multiplies the entry counts of the given names.
// It is informational only: expansion always draws a single value per name.
// Unresolvable names contribute zero. The product saturates at math.MaxInt.
func CountWildcardCombinations(names []string, lookup WildcardLookup) int {
	if len(names) == 0 {
		return 0
	}
	total := 1
	for _, name := range names {
		var n int
		if lookup != nil {
			entries, _ := lookup.Entries(name)
			n = len(entries)
		}
		total = saturatingMul(total, n)
	}
	return total
}

// EnumerateWildcardCombinations builds every substitution of the prompt's
// wildcards, first name varying slowest, stopping after limit results.
// It returns nil when a name is unresolvable or limit is not positive.
func EnumerateWildcardCombinations(prompt string, lookup WildcardLookup, limit int) []string {
	if limit <= 0 {
		return nil
	}
	names := ExtractWildcardNames(prompt)
	if len(names) == 0 {
		return []string{prompt}
	}

	resolver := NewWildcardResolver(lookup, nil)
	lists := make([][]string, len(names))
	for i, name := range names {
		entries, ok := resolver.entries(name)
		if !ok {
			return nil
		}
		lists[i] = entries
	}

	var results []string
	forEachCombination(lists, func(combo []string) bool {
		values := make(map[string]string, len(names))
		for i, name := range names {
			values[name] = combo[i]
		}
		results = append(results, substituteWildcards(prompt, values))
		return len(results) < limit
	})
	return results
}

// ValidateWildcardName checks that a name is non-empty, word characters
// only and at most 50 characters long.
func ValidateWildcardName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewWildcardNameError(ErrMsgWildcardNameEmpty, name)
	}
	if !wildcardNamePattern.MatchString(name) {
		return NewWildcardNameError(ErrMsgWildcardNameInvalid, name)
	}
	if len(name) > WildcardNameMaxLength {
		return NewWildcardNameError(ErrMsgWildcardNameTooLong, name)
	}
	return nil
}

// ValidateWildcardContent checks that newline-delimited content holds at
// least one entry.
func ValidateWildcardContent(content string) error {
	if len(ParseWildcardContent(content)) == 0 {
		return NewWildcardNameError(ErrMsgWildcardContentEmpty, "")
	}
	return nil
}

// ParseWildcardContent turns newline-delimited content into trimmed,
// non-empty entries in their original order.
func ParseWildcardContent(content string) []string {
	lines := strings.Split(content, "\n")
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries
}

// describeWildcardOptions renders "hero (2 options), place (3 options)"
func describeWildcardOptions(names []string, lookup WildcardLookup) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		entries, _ := lookup.Entries(name)
		format := FmtWildcardOptions
		if len(entries) == 1 {
			format = FmtWildcardOption
		}
		parts = append(parts, fmt.Sprintf(format, name, len(entries)))
	}
	return strings.Join(parts, ListJoinSeparator)
}

// forEachCombination walks the Cartesian product of lists, first list
// varying slowest. It stops early when fn returns false.
func forEachCombination(lists [][]string, fn func(combo []string) bool) {
	if len(lists) == 0 {
		return
	}
	for _, l := range lists {
		if len(l) == 0 {
			return
		}
	}

	indices := make([]int, len(lists))
	combo := make([]string, len(lists))
	for {
		for i, idx := range indices {
			combo[i] = lists[i][idx]
		}
		if !fn(combo) {
			return
		}

		// Odometer increment from the last position.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(lists[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return
		}
	}
}

func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// saturatingAdd adds b to a non-negative a, capping at math.MaxInt
func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
