package flow

import "fmt"

// BranchCase names one output of a Branch partition and the predicate that
// routes records into it.
type BranchCase[T any] struct {
	Name string
	When func(T) bool
}

// Case is shorthand for constructing a BranchCase.
func Case[T any](name string, when func(T) bool) BranchCase[T] {
	return BranchCase[T]{Name: name, When: when}
}

// Branch partitions the channel into named outputs. Each record goes to the
// first case whose predicate matches it; within an output, records keep the
// sub-order they had in the input.
//
// A record that matches no case is an error, not a silent drop: partitions are
// required to be exhaustive so no record can vanish from the pipeline without
// a diagnostic.
func Branch[T any](c Channel[T], cases ...BranchCase[T]) (map[string]Channel[T], error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("branch requires at least one case")
	}
	buckets := make(map[string][]T, len(cases))
	for _, bc := range cases {
		if bc.Name == "" {
			return nil, fmt.Errorf("branch case has empty name")
		}
		if bc.When == nil {
			return nil, fmt.Errorf("branch case %q has nil predicate", bc.Name)
		}
		if _, dup := buckets[bc.Name]; dup {
			return nil, fmt.Errorf("duplicate branch case %q", bc.Name)
		}
		buckets[bc.Name] = nil
	}
	for i, item := range c.items {
		matched := false
		for _, bc := range cases {
			if bc.When(item) {
				buckets[bc.Name] = append(buckets[bc.Name], item)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("record %d matches no branch case", i)
		}
	}
	out := make(map[string]Channel[T], len(cases))
	for name, items := range buckets {
		out[name] = Channel[T]{items: items}
	}
	return out, nil
}
