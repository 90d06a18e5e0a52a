package slackdispatch

import (
	"regexp"
	"strings"
)

// Predicate decides whether a message handler wants a message, based on the
// message text alone. Predicates are evaluated on every dispatched message,
// so they should be cheap.
type Predicate interface {
	Match(text string) bool
}

// PredicateFunc is a function adapter for Predicate.
type PredicateFunc func(text string) bool

// Match implements the Predicate interface.
func (f PredicateFunc) Match(text string) bool { return f(text) }

// Always returns a Predicate that matches every message.
func Always() Predicate {
	return PredicateFunc(func(string) bool { return true })
}

// HasPrefix returns a Predicate that matches text starting with prefix.
func HasPrefix(prefix string) Predicate {
	return PredicateFunc(func(text string) bool {
		return strings.HasPrefix(text, prefix)
	})
}

// HasSuffix returns a Predicate that matches text ending with suffix.
func HasSuffix(suffix string) Predicate {
	return PredicateFunc(func(text string) bool {
		return strings.HasSuffix(text, suffix)
	})
}

// Contains returns a Predicate that matches text containing substr.
func Contains(substr string) Predicate {
	return PredicateFunc(func(text string) bool {
		return strings.Contains(text, substr)
	})
}

// Equals returns a Predicate that matches text exactly equal to s.
func Equals(s string) Predicate {
	return PredicateFunc(func(text string) bool {
		return text == s
	})
}

// EqualFold returns a Predicate that matches text equal to s under Unicode
// case folding, ignoring surrounding whitespace.
func EqualFold(s string) Predicate {
	return PredicateFunc(func(text string) bool {
		return strings.EqualFold(strings.TrimSpace(text), s)
	})
}

// Matches returns a Predicate that matches text the regular expression
// matches anywhere.
func Matches(re *regexp.Regexp) Predicate {
	return PredicateFunc(re.MatchString)
}

// And returns a Predicate that matches when all predicates match.
func And(ps ...Predicate) Predicate {
	return and{ps: ps}
}

type and struct {
	ps []Predicate
}

func (p and) Match(text string) bool {
	for _, pred := range p.ps {
		if !pred.Match(text) {
			return false
		}
	}
	return true
}

// Or returns a Predicate that matches when any predicate matches.
func Or(ps ...Predicate) Predicate {
	return or{ps: ps}
}

type or struct {
	ps []Predicate
}

func (p or) Match(text string) bool {
	for _, pred := range p.ps {
		if pred.Match(text) {
			return true
		}
	}
	return false
}

// Not returns a Predicate that inverts p.
func Not(p Predicate) Predicate {
	return PredicateFunc(func(text string) bool {
		return !p.Match(text)
	})
}
