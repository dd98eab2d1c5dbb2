package transform

import (
	"fmt"
	"strings"
)

// Description is the structured content of a course description:
//
//	REG,[LEC],taught by Smith, Jane, Doe, John
type Description struct {
	ClassType   string
	Instructors []string // "First Last", in export order
}

// String renders the description in its normalized display form.
func (d Description) String() string {
	return fmt.Sprintf("Class Type: %s | Professor(s): %s", d.ClassType, strings.Join(d.Instructors, ", "))
}

// ParseDescription extracts the class type and instructor names from an
// exported description. It either returns the whole structure or an error;
// there is no partial result.
func ParseDescription(s string) (Description, error) {
	_, rest, ok := strings.Cut(s, ",")
	if !ok {
		return Description{}, fieldErr(FieldDescription, ErrMissingSeparator)
	}
	rest = strings.TrimSpace(rest)

	rawType, taught, ok := strings.Cut(rest, ",")
	if !ok {
		return Description{}, fieldErr(FieldDescription, ErrMissingSeparator)
	}

	classType, err := parseClassType(rawType)
	if err != nil {
		return Description{}, fieldErr(FieldDescription, err)
	}

	instructors, err := parseInstructors(taught)
	if err != nil {
		return Description{}, fieldErr(FieldDescription, err)
	}

	return Description{ClassType: classType, Instructors: instructors}, nil
}

func parseClassType(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return "", ErrMalformedClassType
	}
	return strings.TrimSpace(s[1 : len(s)-1]), nil
}

// parseInstructors turns "taught by Last, First, Last, First" into
// ["First Last", "First Last"].
func parseInstructors(s string) ([]string, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "taught by", ""))
	if s == "" {
		return []string{}, nil
	}

	tokens := strings.Split(s, ", ")
	if len(tokens)%2 != 0 {
		return nil, ErrOddNameTokens
	}

	names := make([]string, 0, len(tokens)/2)
	for i := 1; i < len(tokens); i += 2 {
		names = append(names, tokens[i]+" "+tokens[i-1])
	}
	return names, nil
}
