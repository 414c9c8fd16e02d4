package bplustree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

var (
	// ErrEmptyNode is returned when the smallest or largest key of a node
	// without populated keys is requested.
	ErrEmptyNode = errors.New("node is empty")
	// ErrCapacityExceeded is returned when a node is constructed with more
	// entries or children than its order allows.
	ErrCapacityExceeded = errors.New("node capacity exceeded")
	// ErrInvalidOrder is returned for orders below MinOrder.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrEmptyValue is returned when the empty ValueRef is inserted.
	ErrEmptyValue = errors.New("empty value reference")
	// ErrStructuralViolation is matched by every *ViolationError.
	ErrStructuralViolation = errors.New("structural violation")
	// ErrUnsupportedMutation is returned by Remove, and by Insert on a
	// read-only tree.
	ErrUnsupportedMutation = errors.Mark(errors.New("unsupported mutation"), index.ErrUnsupported)
)

// Rule names the invariant a ViolationError reports.
type Rule string

const (
	RuleCapacity     Rule = "capacity"
	RuleEmpty        Rule = "empty"
	RuleUnderfilled  Rule = "underfilled"
	RuleSuperfluous  Rule = "superfluous-slots"
	RuleUnpaired     Rule = "unpaired-slot"
	RuleMissingChild Rule = "missing-child"
	RuleKeyOrder     Rule = "key-order"
	RuleSeparator    Rule = "separator"
	RuleOrder        Rule = "order"
	RuleHeight       Rule = "height"
	RuleSiblingChain Rule = "sibling-chain"
)

// ViolationError describes the first broken invariant found by the
// validator. Path holds the child indexes leading from the validated root to
// the offending node; it is empty for the root itself.
type ViolationError struct {
	Rule Rule
	Path []int
	Leaf bool
	msg  string
}

func violation(rule Rule, path []int, leaf bool, format string, args ...any) error {
	p := make([]int, len(path))
	copy(p, path)
	return errors.Mark(&ViolationError{
		Rule: rule,
		Path: p,
		Leaf: leaf,
		msg:  fmt.Sprintf(format, args...),
	}, ErrStructuralViolation)
}

func (e *ViolationError) Error() string {
	kind := "inner"
	if e.Leaf {
		kind = "leaf"
	}
	return fmt.Sprintf("structural violation (%s) at %s node %s: %s", e.Rule, kind, FormatPath(e.Path), e.msg)
}

// Is lets the standard library errors.Is match ErrStructuralViolation.
func (e *ViolationError) Is(target error) bool { return target == ErrStructuralViolation }

// FormatPath renders a child-index path as "root/1/0".
func FormatPath(path []int) string {
	var b strings.Builder
	b.WriteString("root")
	for _, i := range path {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}
