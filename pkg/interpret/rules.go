package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// ErrNoMatch is returned when text maps onto no action the session can take.
var ErrNoMatch = errors.New("no matching action")

// Rules is a deterministic interpreter for terse, command-like input:
//
//	add_to_cart product_id=X quantity=2
//	quantity=2                       (answers the pending request)
//	2                                (answers it when exactly one value is missing)
//	enter checkout | go to checkout
//	set user.payment_method=card
//	describe | help
//	quit
//
// Task and stage names are matched fuzzily against what the view offers.
type Rules struct {
	Presenter
	// Limit caps input size in bytes; zero uses MaxInputSize.
	Limit int
}

// NewRules creates a rule-based interpreter rendering at the given detail.
func NewRules(detail Detail) *Rules {
	return &Rules{Presenter: Presenter{Detail: detail}}
}

// Interpret maps text onto an action.
func (r *Rules) Interpret(_ context.Context, text string, view *domain.View) (domain.Action, error) {
	text, err := Sanitize(text, r.Limit)
	if err != nil {
		return domain.Action{}, err
	}
	words := tokenize(text)
	if len(words) == 0 {
		return domain.Action{}, ErrNoMatch
	}
	if view == nil {
		view = &domain.View{}
	}

	verb, rest := strings.ToLower(words[0]), words[1:]
	switch verb {
	case "quit", "exit", "bye", "terminate":
		reason := "user ended the session"
		if len(rest) > 0 {
			reason = strings.Join(rest, " ")
		}
		return domain.Action{Type: domain.ActionTerminate, Reason: reason}, nil

	case "help", "describe", "?", "tools":
		return domain.Describe(), nil

	case "enter", "go", "goto", "stage":
		if len(rest) > 0 && strings.EqualFold(rest[0], "to") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return domain.Action{}, fmt.Errorf("%w: which stage? available: %s", ErrNoMatch, listOrNone(view.Transitions))
		}
		target := strings.Join(rest, "_")
		if best, ok := closest(target, view.Transitions); ok {
			target = best
		}
		return domain.Enter(target), nil

	case "set":
		updates, ok := pairs(rest, scalar)
		if !ok || len(updates) == 0 {
			return domain.Action{}, fmt.Errorf("%w: expected set key=value", ErrNoMatch)
		}
		return domain.Action{Type: domain.ActionStateInput, StateUpdates: updates}, nil
	}

	if p := view.Pending; p != nil {
		if args, ok := pairs(words, raw); ok {
			return domain.Answer(args), nil
		}
		if len(p.Missing) == 1 && !strings.Contains(text, "=") && !offers(view, words[0]) {
			return domain.Answer(map[string]any{p.Missing[0]: text}), nil
		}
	}

	args, ok := pairs(rest, raw)
	if !ok {
		return domain.Action{}, fmt.Errorf("%w: arguments must be key=value", ErrNoMatch)
	}
	if name, ok := closest(words[0], toolNames(view.Controls)); ok && strings.EqualFold(name, words[0]) {
		return domain.ToolCallAction(name, args)
	}
	name, ok := closest(words[0], toolNames(view.Tasks))
	if !ok {
		return domain.Action{}, fmt.Errorf("%w: %q is not a tool here; available: %s",
			ErrNoMatch, words[0], listOrNone(toolNames(view.Tasks)))
	}
	return domain.Invoke(name, args), nil
}

func offers(view *domain.View, word string) bool {
	_, ok := closest(word, toolNames(view.Tasks))
	return ok
}

// closest returns the exact (case-insensitive) match for word, otherwise the best fuzzy match.
func closest(word string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c, word) {
			return c, true
		}
	}
	matches := fuzzy.Find(strings.ToLower(word), lower(candidates))
	if len(matches) == 0 {
		return "", false
	}
	return candidates[matches[0].Index], true
}

func lower(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

// pairs parses key=value words. It reports false if any word is not a pair.
func pairs(words []string, parse func(string) any) (map[string]any, bool) {
	out := make(map[string]any, len(words))
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			return nil, false
		}
		out[k] = parse(v)
	}
	return out, true
}

// raw keeps task arguments as text; the parameter schema does the coercion.
func raw(v string) any { return v }

// scalar types a state value the way YAML would: 2 is an int, true a bool.
func scalar(v string) any {
	var out any
	if err := yaml.Unmarshal([]byte(v), &out); err != nil {
		return v
	}
	switch out.(type) {
	case map[string]any, []any:
		return v
	}
	return out
}

// tokenize splits on whitespace, keeping double-quoted runs together and dropping the quotes.
func tokenize(s string) []string {
	var (
		words   []string
		cur     strings.Builder
		quoted  bool
		started bool
	)
	flush := func() {
		if started {
			words = append(words, cur.String())
		}
		cur.Reset()
		started = false
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()
	return words
}
