package modelsbuilder

import (
	"fmt"
	"strings"
)

// Kind is the kind of item a content type describes.
type Kind uint8

// Content type kinds.
const (
	KindContent Kind = iota + 1
	KindMedia
	KindMember
	KindElement
)

var kindNames = map[Kind]string{
	KindContent: "content",
	KindMedia:   "media",
	KindMember:  "member",
	KindElement: "element",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("modelsbuilder: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("modelsbuilder: invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Variation is a set of dimensions a value varies by.
type Variation uint8

// Variation flags.
const (
	VaryByCulture Variation = 1 << iota
	VaryBySegment

	VaryNothing Variation = 0
)

// String returns the flags joined by "|", or "nothing".
func (v Variation) String() string {
	var parts []string
	if v&VaryByCulture != 0 {
		parts = append(parts, "culture")
	}
	if v&VaryBySegment != 0 {
		parts = append(parts, "segment")
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, "|")
}

// ParseVariation parses the format produced by String. Both "" and
// "nothing" parse to VaryNothing.
func ParseVariation(s string) (Variation, error) {
	var v Variation
	for p := range strings.SplitSeq(strings.ToLower(s), "|") {
		switch strings.TrimSpace(p) {
		case "", "nothing":
		case "culture":
			v |= VaryByCulture
		case "segment":
			v |= VaryBySegment
		default:
			return 0, fmt.Errorf("modelsbuilder: unknown variation %q", p)
		}
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (v Variation) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variation) UnmarshalText(b []byte) error {
	p, err := ParseVariation(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// Fallback is a value fallback strategy.
type Fallback uint8

// Fallback strategies.
const (
	FallbackNone Fallback = iota
	FallbackAncestors
	FallbackLanguage
	FallbackDefault
)

// String returns the name of the strategy.
func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackAncestors:
		return "ancestors"
	case FallbackLanguage:
		return "language"
	case FallbackDefault:
		return "default"
	default:
		return fmt.Sprintf("Fallback(%d)", f)
	}
}
