package driver

// orderCounter assigns a monotonically increasing order index to each
// emitted key, per spec.md's component J. It supports exactly one
// documented rollback: undoing the increment consumed by an unindexed
// table-array header that turns out not to need an order slot (the slot
// goes to the table-array descriptor key when ExitTableArray first
// creates it, and otherwise to the next key that takes one).
type orderCounter struct {
	next int
}

// take returns the next order value and advances the counter.
func (o *orderCounter) take() int {
	v := o.next
	o.next++
	return v
}

// rollback undoes the last take(), per the table-array header rollback
// documented in spec.md §9.
func (o *orderCounter) rollback() {
	o.next--
}
