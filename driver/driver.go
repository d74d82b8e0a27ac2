// Package driver implements the TOML-to-keyed-configuration translator:
// a grammar-driven state machine that turns the event stream raised by
// a Lexer into a flat, ordered collection of fully qualified
// configuration keys in a store.Store.
package driver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/muskater/libelektra/store"
)

// Driver is the grammar-driven controller described by spec.md §4.G. It
// is strictly single-threaded: concurrent parses require separate
// Driver instances over separate Store instances.
type Driver struct {
	st       store.Store
	root     *store.Key
	reporter ErrorReporter

	currKey    *store.Key
	prevKey    *store.Key
	lastScalar *Scalar

	parents     parentStack
	indices     indexStack
	tableArrays tableArrayStack

	comments     *CommentList
	newlineCount uint

	order orderCounter

	simpleTableActive      bool
	drainCommentsOnKeyExit bool
	errorSet               bool
	currLine               int
}

// New constructs a Driver over st, rooted at root. The parent stack's
// bottom frame is always a duplicate of root, per Invariant 1.
func New(st store.Store, root *store.Key, reporter ErrorReporter) *Driver {
	if reporter == nil {
		reporter = NewZapReporter(nil)
	}
	d := &Driver{
		st:                     st,
		root:                   root.Dup(),
		reporter:               reporter,
		comments:               newCommentList(),
		drainCommentsOnKeyExit: true,
	}
	// The root key must be reachable through st itself, not just held
	// privately, so that any error/#n diagnostic fail() mirrors onto it
	// (via ErrorReporter.SetError/SetOutOfMemory) comes back out in the
	// store Parse's caller gets, per spec.md §6.
	st.Append(d.root)
	d.parents.push(d.root.Dup())
	return d
}

// Errored reports whether any handler has latched the errorSet flag.
func (d *Driver) Errored() bool { return d.errorSet }

// raiseSyntaxError lets a Lexer implementation report a tokenization
// failure through the same latch-once error policy the grammar
// handlers use.
func (d *Driver) raiseSyntaxError(line int, format string, args ...any) {
	d.fail(ErrorSyntactic, line, format, args...)
}

// setCurrKey replaces the currKey slot, adjusting reference counts per
// Invariant 7 (currKey is one of the slots that holds a reference).
func (d *Driver) setCurrKey(k *store.Key) {
	if d.currKey != nil {
		d.currKey.DecRef()
	}
	if k != nil {
		k.IncRef()
	}
	d.currKey = k
}

func (d *Driver) setPrevKey(k *store.Key) {
	if d.prevKey != nil {
		d.prevKey.DecRef()
	}
	if k != nil {
		k.IncRef()
	}
	d.prevKey = k
}

func (d *Driver) resetCurrKey() {
	d.setCurrKey(d.parents.top().Dup())
}

func (d *Driver) extendCurrKey(name string) {
	if d.currKey == nil {
		d.fail(ErrorInternal, 0, "wanted to extend current key, but current key is nil")
		return
	}
	d.currKey.AppendBaseName(name)
}

// fail latches errorSet and reports a positioned diagnostic, per
// spec.md §7's "first error latches; never recovered" policy.
func (d *Driver) fail(kind ErrorKind, line int, format string, args ...any) {
	d.errorSet = true
	if kind == ErrorMemory {
		d.reporter.SetOutOfMemory(d.root)
		return
	}
	span := Span{Start: Position{Line: line, Column: 1}, End: Position{Line: line, Column: 1}}
	d.reporter.SetError(d.root, kind, line, span, fmt.Sprintf(format, args...))
}

// destroy walks every stack to exhaustion, matching spec.md §5's
// resource discipline. Called automatically by Read.
func (d *Driver) destroy() {
	d.setCurrKey(nil)
	d.setPrevKey(nil)
	d.lastScalar = nil
	for !d.parents.empty() {
		d.parents.pop()
	}
	for !d.indices.empty() {
		d.indices.pop()
	}
	for !d.tableArrays.empty() {
		d.tableArrays.pop()
	}
	d.comments = newCommentList()
}

// Lexer is the grammar callback surface consumed by the driver: any
// concrete tokenizer that can drive a *Driver's Enter*/Exit* methods in
// TOML grammar order.
type Lexer interface {
	Run(d *Driver) error
}

// Read is spec.md §6's public entry point, `read(store, rootKey) ->
// status`: it drives lex over d and returns a non-nil error if lex
// itself failed or any handler latched errorSet.
func (d *Driver) Read(lex Lexer) error {
	runErr := lex.Run(d)
	d.destroy()
	if runErr != nil {
		return runErr
	}
	if d.errorSet {
		return fmt.Errorf("toml: parse failed")
	}
	return nil
}

// ===========================================================================
// Document events
// ===========================================================================

// ExitToml attaches any still-pending comments to the root key that New
// already appended to the store; no separate key is synthesized, so a
// document holding only comments and blank lines yields the root key as
// the single key carrying them.
func (d *Driver) ExitToml() {
	if d.errorSet {
		return
	}
	if !d.comments.empty() {
		d.drainCommentsToKey(d.root)
	}
}

// ===========================================================================
// Key events
// ===========================================================================

// EnterKey clears currKey and resets it to a duplicate of the current
// parent frame's key, establishing that the dotted name that follows
// (a key=value's left-hand side) is relative to the enclosing table.
func (d *Driver) EnterKey() {
	if d.errorSet {
		return
	}
	d.resetCurrKey()
}

// ExitSimpleKey appends one dotted-key segment to currKey.
func (d *Driver) ExitSimpleKey(s Scalar) {
	if d.errorSet {
		return
	}
	switch {
	case s.Kind == KindStringLiteral || s.Kind == KindStringBasic:
		// quoted strings are always accepted verbatim as key segments
	case s.Kind.isMultilineString():
		d.fail(ErrorSemantic, s.Line, "invalid simple key: multiline strings are not allowed as keys")
		return
	case s.Kind == KindFloatNum:
		dot := strings.IndexByte(s.Normalized, '.')
		if dot < 0 {
			d.fail(ErrorSemantic, s.Line, "invalid float-shaped simple key %q", s.Normalized)
			return
		}
		first, second := s.Normalized[:dot], s.Normalized[dot+1:]
		if !isValidBareString(first) || !isValidBareString(second) {
			d.fail(ErrorSemantic, s.Line, "invalid bare simple key %q: only alphanumeric, underscore, hyphen allowed", s.Normalized)
			return
		}
		d.extendCurrKey(first)
		d.extendCurrKey(second)
		d.currLine = s.Line
		return
	default:
		if !isValidBareString(s.Normalized) {
			d.fail(ErrorSemantic, s.Line, "invalid bare simple key %q: only alphanumeric, underscore, hyphen allowed", s.Normalized)
			return
		}
	}
	translated, err := translateScalar(s)
	if err != nil {
		d.fail(ErrorSyntactic, s.Line, "%v", err)
		return
	}
	d.extendCurrKey(translated)
	d.currLine = s.Line
}

// isTableArrayDescriptor reports whether k is the unindexed descriptor
// key of an array of tables.
func isTableArrayDescriptor(k *store.Key) bool {
	v, ok := k.GetMeta("tomltype")
	return ok && v == "tablearray"
}

// ExitKey finalizes the dotted key built up by EnterKey/ExitSimpleKey:
// it rejects duplicate names (except array-of-tables extension), pushes
// currKey as a new parent frame, drains pending comments into it if
// appropriate, and stamps it with the next order value.
func (d *Driver) ExitKey() {
	if d.errorSet {
		return
	}
	if existing, ok := d.st.Lookup(d.currKey.Name()); ok {
		if !isTableArrayDescriptor(existing) && existing.Name() != d.root.Name() {
			d.fail(ErrorSemantic, d.currLine, "multiple occurrences of keyname '%s', but keynames must be unique", existing.Name())
			return
		}
	}
	d.parents.push(d.currKey)
	if d.drainCommentsOnKeyExit {
		d.drainCommentsToKey(d.parents.top())
	}
	d.parents.top().SetMeta("order", strconv.Itoa(d.order.take()))
}

// ===========================================================================
// Value events
// ===========================================================================

// ExitValue validates and stashes a scalar as the pending value to be
// committed by ExitKeyValue/ExitArrayElement.
func (d *Driver) ExitValue(s Scalar) {
	if d.errorSet {
		return
	}
	switch {
	case s.Kind == KindStringBare:
		d.fail(ErrorSemantic, s.Line, "found a bare string value, which is not allowed; add quotes")
		return
	case s.Kind.isDatetime():
		if !validateDateTime(s) {
			d.fail(ErrorSemantic, s.Line, "invalid datetime: %q", s.Normalized)
			return
		}
	}
	d.lastScalar = &s
	d.currLine = s.Line
}

// ExitKeyValue commits the pending scalar into the top parent frame's
// key, promotes that key to prevKey, and pops the frame.
func (d *Driver) ExitKeyValue() {
	if d.errorSet {
		return
	}
	d.commitLastScalar()
	d.setPrevKey(d.parents.top())
	d.parents.pop()
}

// commitLastScalar is the scalar commit procedure of spec.md §4.G: it
// translates the pending scalar, stores it, and attaches metadata
// according to kind. A nil lastScalar (container values: arrays,
// inline tables) is a no-op, since those already appended themselves
// on container entry/exit.
func (d *Driver) commitLastScalar() {
	if d.lastScalar == nil {
		return
	}
	key := d.parents.top()
	s := *d.lastScalar
	d.lastScalar = nil

	translated, err := translateScalar(s)
	if err != nil {
		d.fail(ErrorSyntactic, s.Line, "%v", err)
		return
	}
	key.SetString(translated)

	switch {
	case s.Kind.isString():
		if !handleSpecialStrings(translated, key) {
			if t, ok := key.GetMeta("type"); !ok || t != "binary" {
				if len(translated) > 0 {
					key.SetMeta("type", "string")
				}
			}
			assignOrigValueIfDifferent(key, s.Original)
		}
		assignStringTomlType(key, s.Kind)
	case s.Kind == KindBoolean:
		key.SetMeta("type", "boolean")
	case s.Kind.isFloat():
		key.SetMeta("type", "double")
		assignOrigValueIfDifferent(key, s.Original)
	case s.Kind == KindIntDec:
		key.SetMeta("type", "long_long")
		assignOrigValueIfDifferent(key, s.Original)
	case s.Kind.isBinaryBaseInt():
		key.SetMeta("type", "unsigned_long_long")
		assignOrigValueIfDifferent(key, s.Original)
	default: // dates
		assignOrigValueIfDifferent(key, s.Original)
	}

	d.st.Append(key)
}

func assignOrigValueIfDifferent(key *store.Key, original string) {
	if key.Value() != original {
		key.SetMeta("origvalue", original)
	}
}

func assignStringTomlType(key *store.Key, kind ScalarKind) {
	switch kind {
	case KindStringBasic:
		key.SetMeta("tomltype", "string_basic")
	case KindStringMLBasic:
		key.SetMeta("tomltype", "string_ml_basic")
	case KindStringLiteral:
		key.SetMeta("tomltype", "string_literal")
	case KindStringMLLiteral:
		key.SetMeta("tomltype", "string_ml_literal")
	}
}

// ===========================================================================
// Comment-trailer events
// ===========================================================================

// ExitOptCommentKeyPair attaches at most one trailing comment as the
// inline comment of prevKey.
func (d *Driver) ExitOptCommentKeyPair() {
	if d.errorSet {
		return
	}
	if d.comments.empty() {
		return
	}
	if d.prevKey == nil {
		d.fail(ErrorInternal, 0, "wanted to assign inline comment to keypair, but keypair key is nil")
		return
	}
	if len(d.comments.entries) > 1 {
		d.fail(ErrorInternal, 0, "more than one comment existing after exiting keypair, expected up to one")
		return
	}
	entry := d.comments.popFirst()
	attachInlineComment(d.prevKey, entry)
	d.comments = newCommentList()
}

// ExitOptCommentTable attaches at most one trailing comment as the
// inline comment of the current parent (a table/table-array header),
// and, for an array of tables left with no keys of its own, synthesizes
// the indexed key so the comment has somewhere to land.
func (d *Driver) ExitOptCommentTable() {
	if d.errorSet {
		return
	}
	if d.comments.empty() {
		return
	}
	top := d.parents.top()
	if top == nil {
		d.fail(ErrorInternal, 0, "wanted to assign inline comment to table, but table key is nil")
		return
	}
	if len(d.comments.entries) > 1 {
		d.fail(ErrorInternal, 0, "more than one comment existing after exiting table, expected up to one")
		return
	}
	entry := d.comments.popFirst()
	attachInlineComment(top, entry)
	d.comments = newCommentList()

	if !d.simpleTableActive {
		if _, ok := d.st.Lookup(top.Name()); !ok {
			d.st.Append(top)
		}
	}
}

func attachInlineComment(key *store.Key, entry *CommentEntry) {
	if key == nil || entry == nil {
		return
	}
	if entry.Text == nil {
		key.SetMeta("inline/comment", "")
		return
	}
	key.SetMeta("inline/comment", *entry.Text)
}

// ===========================================================================
// Comment / blank-line accumulation events
// ===========================================================================

// ExitComment appends one decoded comment to the pending comment list,
// first materializing any pending blank-line run.
func (d *Driver) ExitComment(s Scalar) {
	if d.errorSet {
		return
	}
	d.comments.appendBlankLines(d.newlineCount)
	d.newlineCount = 0
	d.comments.appendComment(s.Normalized, s.Original)
	d.currLine = s.Line
}

// ExitNewline increments the pending blank-line counter.
func (d *Driver) ExitNewline() {
	if d.errorSet {
		return
	}
	if d.newlineCount == math.MaxUint64 {
		d.fail(ErrorInternal, 0, "newline counter at maximum range")
		return
	}
	d.newlineCount++
}

// drainCommentsToKey materializes any pending blank-line run, then
// attaches the full pending comment list to key (nil discards it,
// matching the documented open question about trailing comments after
// the last array element). It returns whether anything was drained.
func (d *Driver) drainCommentsToKey(key *store.Key) bool {
	d.comments.appendBlankLines(d.newlineCount)
	d.newlineCount = 0
	drained := !d.comments.empty()
	entries := d.comments.drain()
	if key != nil {
		attachCommentsToKey(key, entries)
	}
	d.comments = newCommentList()
	return drained
}

// firstCommentAsInlineToPrevKey promotes the first pending comment (if
// any) to the inline comment of prevKey, per the array-element
// comment-attachment policy of spec.md §9.
func (d *Driver) firstCommentAsInlineToPrevKey() {
	if d.comments.empty() {
		return
	}
	entry := d.comments.popFirst()
	if d.prevKey != nil {
		attachInlineComment(d.prevKey, entry)
	}
}

// ===========================================================================
// Table container events
// ===========================================================================

// EnterSimpleTable opens a `[name]` header's scope.
func (d *Driver) EnterSimpleTable() {
	if d.errorSet {
		return
	}
	if d.simpleTableActive {
		d.parents.pop()
	} else {
		d.simpleTableActive = true
	}
	d.resetCurrKey()
}

// ExitSimpleTable tags the current parent as a simple table and appends
// it to the store.
func (d *Driver) ExitSimpleTable() {
	if d.errorSet {
		return
	}
	top := d.parents.top()
	top.SetMeta("tomltype", "simpletable")
	d.st.Append(top)
}

// EnterTableArray opens a `[[name]]` header's scope, always resetting
// currKey to the document root (table-array headers always name a full
// path from the root).
func (d *Driver) EnterTableArray() {
	if d.errorSet {
		return
	}
	if d.simpleTableActive {
		d.parents.pop()
		d.simpleTableActive = false
	}
	if !d.tableArrays.empty() {
		d.parents.pop() // pop previous element's indexed key, pushed by ExitTableArray
	}
	d.setCurrKey(d.root.Dup())
	d.drainCommentsOnKeyExit = false
}

func parentOfName(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

// ExitTableArray resolves the just-parsed unindexed header against the
// table-array stack (same name: advance; descendant: push nested;
// unrelated: pop until a match or push fresh), computes the indexed key
// name, creates-or-updates its unindexed descriptor, and pushes the
// indexed key as the new parent frame.
func (d *Driver) ExitTableArray() {
	if d.errorSet {
		return
	}
	top := d.tableArrays.top()
	header := d.parents.top()
	switch {
	case top != nil && top.key.Name() == header.Name():
		top.currIndex++
	case top != nil && store.IsBelow(top.key, header):
		d.tableArrays.push(header)
	default:
		for !d.tableArrays.empty() && d.tableArrays.top().key.Name() != header.Name() {
			d.tableArrays.pop()
		}
		if d.tableArrays.empty() {
			d.tableArrays.push(header)
		} else {
			d.tableArrays.top().currIndex++
		}
	}
	d.parents.pop() // pop unindexed header frame
	d.order.rollback()

	key := buildTableArrayKeyName(&d.tableArrays)
	descriptorName := parentOfName(key.Name())
	if existingRoot, ok := d.st.Lookup(descriptorName); !ok {
		descriptor := store.NewKey(descriptorName)
		descriptor.SetMeta("tomltype", "tablearray")
		descriptor.SetMeta("array", "#0")
		descriptor.SetMeta("order", strconv.Itoa(d.order.take()))
		d.st.Append(descriptor)
	} else {
		existingRoot.SetMeta("array", store.IndexBaseName(d.tableArrays.top().currIndex))
	}

	d.parents.push(key)
	if d.drainCommentsToKey(d.parents.top()) {
		d.st.Append(d.parents.top())
	}
	d.drainCommentsOnKeyExit = true
}

// ===========================================================================
// Array container events
// ===========================================================================

// EnterArray pushes a fresh index frame and marks the current parent as
// an array (ported literally from the original's nested-array check: if
// the current parent already carries an "array" metadata, a synthetic
// index-0 child is pushed first).
func (d *Driver) EnterArray() {
	if d.errorSet {
		return
	}
	d.indices.push(0)
	if _, ok := d.parents.top().GetMeta("array"); ok {
		key := d.parents.top().Dup()
		key.AppendIndexBaseName(0)
		key.SetMeta("order", strconv.Itoa(d.order.take()))
		d.parents.push(key)
	}
	d.parents.top().SetMeta("array", "")
}

// ExitArray promotes any first pending comment to prevKey's inline
// comment, drops the rest (documented open question: trailing comments
// inside array brackets after the last element — see spec.md §9), pops
// the index frame, and appends the array key.
func (d *Driver) ExitArray() {
	if d.errorSet {
		return
	}
	d.firstCommentAsInlineToPrevKey()
	d.drainCommentsToKey(nil)
	d.indices.pop()
	d.st.Append(d.parents.top())
}

// EmptyArray handles `[]`.
func (d *Driver) EmptyArray() {
	if d.errorSet {
		return
	}
	d.EnterArray()
	d.ExitArray()
}

// EnterArrayElement constructs the child key for the next array
// element, pushes it as the new parent, and drains pending comments
// onto it.
func (d *Driver) EnterArrayElement() {
	if d.errorSet {
		return
	}
	idx := d.indices.top()
	if idx == nil {
		d.fail(ErrorInternal, 0, "wanted to enter an array element outside of any array")
		return
	}
	if idx.value == math.MaxUint64 {
		d.fail(ErrorInternal, 0, "array index at maximum range")
		return
	}
	if idx.value > 0 && !d.comments.empty() {
		d.firstCommentAsInlineToPrevKey()
	}

	container := d.parents.top()
	key := store.NewKey(container.Name())
	key.AppendIndexBaseName(idx.value)
	container.SetMeta("array", key.BaseName())

	d.parents.push(key)
	idx.value++
	d.drainCommentsToKey(d.parents.top())
}

// ExitArrayElement commits the pending scalar (absent for nested
// array/inline-table elements, which already appended themselves),
// updates prevKey, and pops the element frame.
func (d *Driver) ExitArrayElement() {
	if d.errorSet {
		return
	}
	d.commitLastScalar()
	d.setPrevKey(d.parents.top())
	d.parents.pop()
}

// ===========================================================================
// Inline table container events
// ===========================================================================

// EnterInlineTable tags the current parent as an inline table and
// appends it.
func (d *Driver) EnterInlineTable() {
	if d.errorSet {
		return
	}
	top := d.parents.top()
	top.SetMeta("tomltype", "inlinetable")
	d.st.Append(top)
}

// ExitInlineTable clears any stray pending scalar.
func (d *Driver) ExitInlineTable() {
	if d.errorSet {
		return
	}
	d.lastScalar = nil
}

// EmptyInlineTable handles `{}`.
func (d *Driver) EmptyInlineTable() {
	if d.errorSet {
		return
	}
	d.EnterInlineTable()
	d.ExitInlineTable()
}
