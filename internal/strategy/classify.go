package strategy

import (
	"fmt"
	"math"
)

type Class string

const (
	ClassTitForTat      Class = "t4t"
	ClassNastyTitForTat Class = "nasty-t4t"
	ClassJesus          Class = "jesus"
	ClassLucifer        Class = "lucifer"
	ClassNiceReverse    Class = "nice-reverse"
	ClassNastyReverse   Class = "nasty-reverse"
	ClassUnknown        Class = "?"
)

// Classify names the behavioral class of a linear strategy. The predicates
// are checked in order and the first match wins.
func Classify(l Linear) Class {
	a, b := l.A, l.B
	switch {
	case b > 0 && a >= b:
		return ClassTitForTat
	case b < 0 && math.Abs(a) >= b && a > 0:
		return ClassNastyTitForTat
	case b > 0 && math.Abs(a) < b:
		return ClassJesus
	case b < 0 && math.Abs(a) < b:
		return ClassLucifer
	case b > 0 && math.Abs(a) > b && a < 0:
		return ClassNiceReverse
	case b < 0 && math.Abs(a) > b && a < 0:
		return ClassNastyReverse
	default:
		return ClassUnknown
	}
}

// ClassOf returns the class label for any strategy. Non-linear strategies are
// labeled by their kind.
func ClassOf(s Strategy) string {
	switch v := s.(type) {
	case Linear:
		return string(Classify(v))
	case Recordable:
		return v.Kind()
	default:
		return string(ClassUnknown)
	}
}

// Describe renders a one-line description used by population listings.
func Describe(s Strategy) string {
	if stringer, ok := s.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%T", s)
}
