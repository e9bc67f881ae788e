package flow

// Pair is the record shape produced by JoinByKey and Combine.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// JoinByKey inner-joins two channels on equal keys.
//
// When several records share a key, they pair positionally within that key
// group: the first left record with that key pairs with the first right record
// with that key, the second with the second, and so on. This is not a cross
// product. Records whose key has no partner on the other side, and surplus
// records within a key group, are dropped. Output order follows the left
// channel.
func JoinByKey[L, R any, K comparable](left Channel[L], right Channel[R], leftKey func(L) K, rightKey func(R) K) Channel[Pair[L, R]] {
	groups := make(map[K][]R)
	for _, r := range right.items {
		k := rightKey(r)
		groups[k] = append(groups[k], r)
	}
	cursors := make(map[K]int, len(groups))
	out := make([]Pair[L, R], 0, len(left.items))
	for _, l := range left.items {
		k := leftKey(l)
		group, ok := groups[k]
		if !ok {
			continue
		}
		i := cursors[k]
		if i >= len(group) {
			continue
		}
		cursors[k] = i + 1
		out = append(out, Pair[L, R]{Left: l, Right: group[i]})
	}
	return Channel[Pair[L, R]]{items: out}
}

// Combine emits the cross product of two channels in row-major order: every
// right record paired with the first left record, then every right record
// paired with the second, and so on.
func Combine[L, R any](left Channel[L], right Channel[R]) Channel[Pair[L, R]] {
	out := make([]Pair[L, R], 0, len(left.items)*len(right.items))
	for _, l := range left.items {
		for _, r := range right.items {
			out = append(out, Pair[L, R]{Left: l, Right: r})
		}
	}
	return Channel[Pair[L, R]]{items: out}
}

// Group is the record shape produced by GroupByKey: one key and the ordered
// records that carried it.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupByKey collects records sharing a key into one group record per key.
// Records keep their input order within a group; groups are emitted in
// first-appearance order of their keys.
func GroupByKey[T any, K comparable](c Channel[T], key func(T) K) Channel[Group[K, T]] {
	index := make(map[K]int)
	out := make([]Group[K, T], 0)
	for _, item := range c.items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group[K, T]{Key: k})
		}
		out[i].Items = append(out[i].Items, item)
	}
	return Channel[Group[K, T]]{items: out}
}
