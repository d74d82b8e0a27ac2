package driver

import (
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/muskater/libelektra/store"
)

func mustParse(t *testing.T, src string) store.Store {
	t.Helper()
	st, err := Parse(strings.NewReader(src), Options{RootName: "test"})
	convey.So(err, convey.ShouldBeNil)
	return st
}

func TestSimpleKeyValueOrdering(t *testing.T) {
	convey.Convey("simple key/value pairs get monotonic order", t, func() {
		st := mustParse(t, "a = 1\nb = 2\n")
		a, ok := st.Lookup("test/a")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(a.Value(), convey.ShouldEqual, "1")
		o, _ := a.GetMeta("order")
		convey.So(o, convey.ShouldEqual, "0")

		b, ok := st.Lookup("test/b")
		convey.So(ok, convey.ShouldBeTrue)
		ob, _ := b.GetMeta("order")
		convey.So(ob, convey.ShouldEqual, "1")
	})
}

func TestQuotedDottedKey(t *testing.T) {
	convey.Convey("a quoted key is one segment even if it contains a dot", t, func() {
		st := mustParse(t, "\"a.b\" = 1\na.c = 2\n")
		quoted, ok := st.Lookup("test/a.b")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(quoted.Value(), convey.ShouldEqual, "1")

		nested, ok := st.Lookup("test/a/c")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(nested.Value(), convey.ShouldEqual, "2")
	})
}

func TestSimpleTableNesting(t *testing.T) {
	convey.Convey("a simple table nests subsequent keys beneath it", t, func() {
		st := mustParse(t, "[t]\nk = 1\n")
		table, ok := st.Lookup("test/t")
		convey.So(ok, convey.ShouldBeTrue)
		tt, _ := table.GetMeta("tomltype")
		convey.So(tt, convey.ShouldEqual, "simpletable")
		to, _ := table.GetMeta("order")
		convey.So(to, convey.ShouldEqual, "0")

		key, ok := st.Lookup("test/t/k")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(key.Value(), convey.ShouldEqual, "1")
		ko, _ := key.GetMeta("order")
		convey.So(ko, convey.ShouldEqual, "1")
	})
}

func TestArrayOfTablesIndexing(t *testing.T) {
	convey.Convey("array-of-tables elements are indexed and a descriptor is maintained", t, func() {
		src := "[[arr]]\nname = \"a\"\n\n[[arr]]\nname = \"b\"\n"
		st := mustParse(t, src)

		descriptor, ok := st.Lookup("test/arr")
		convey.So(ok, convey.ShouldBeTrue)
		tt, _ := descriptor.GetMeta("tomltype")
		convey.So(tt, convey.ShouldEqual, "tablearray")
		arrMeta, _ := descriptor.GetMeta("array")
		convey.So(arrMeta, convey.ShouldEqual, "#1")

		first, ok := st.Lookup("test/arr/#0/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(first.Value(), convey.ShouldEqual, "a")

		second, ok := st.Lookup("test/arr/#1/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(second.Value(), convey.ShouldEqual, "b")
	})
}

func TestNestedTableArrayIndexing(t *testing.T) {
	convey.Convey("a nested array of tables embeds every enclosing element's index", t, func() {
		src := "[[fruits]]\nname = \"apple\"\n\n" +
			"[[fruits.varieties]]\nname = \"red delicious\"\n\n" +
			"[[fruits.varieties]]\nname = \"granny smith\"\n\n" +
			"[[fruits]]\nname = \"banana\"\n\n" +
			"[[fruits.varieties]]\nname = \"plantain\"\n"
		st := mustParse(t, src)

		appleName, ok := st.Lookup("test/fruits/#0/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(appleName.Value(), convey.ShouldEqual, "apple")

		redDelicious, ok := st.Lookup("test/fruits/#0/varieties/#0/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(redDelicious.Value(), convey.ShouldEqual, "red delicious")

		grannySmith, ok := st.Lookup("test/fruits/#0/varieties/#1/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(grannySmith.Value(), convey.ShouldEqual, "granny smith")

		bananaName, ok := st.Lookup("test/fruits/#1/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(bananaName.Value(), convey.ShouldEqual, "banana")

		plantain, ok := st.Lookup("test/fruits/#1/varieties/#0/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(plantain.Value(), convey.ShouldEqual, "plantain")

		appleVarieties, ok := st.Lookup("test/fruits/#0/varieties")
		convey.So(ok, convey.ShouldBeTrue)
		av, _ := appleVarieties.GetMeta("array")
		convey.So(av, convey.ShouldEqual, "#1")

		bananaVarieties, ok := st.Lookup("test/fruits/#1/varieties")
		convey.So(ok, convey.ShouldBeTrue)
		bv, _ := bananaVarieties.GetMeta("array")
		convey.So(bv, convey.ShouldEqual, "#0")
	})
}

func TestDuplicateKeyIsSemanticError(t *testing.T) {
	convey.Convey("redeclaring a plain key is a semantic error", t, func() {
		_, err := Parse(strings.NewReader("a = 1\na = 2\n"), Options{RootName: "test"})
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestCommentAttachment(t *testing.T) {
	convey.Convey("a preceding comment attaches to the key and a trailer attaches inline", t, func() {
		st := mustParse(t, "# hello\na = 1 # inline\n")
		a, ok := st.Lookup("test/a")
		convey.So(ok, convey.ShouldBeTrue)
		c0, ok := a.GetMeta("comment/#0")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(c0, convey.ShouldEqual, "hello")
		inline, ok := a.GetMeta("inline/comment")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(inline, convey.ShouldEqual, "inline")
	})
}

func TestInlineTableValue(t *testing.T) {
	convey.Convey("an inline table is tagged and its fields nest beneath it", t, func() {
		st := mustParse(t, `owner = { name = "Tom", age = 30 }`)
		owner, ok := st.Lookup("test/owner")
		convey.So(ok, convey.ShouldBeTrue)
		tt, _ := owner.GetMeta("tomltype")
		convey.So(tt, convey.ShouldEqual, "inlinetable")

		name, ok := st.Lookup("test/owner/name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(name.Value(), convey.ShouldEqual, "Tom")
	})
}

func TestEmptyArrayAndInlineTable(t *testing.T) {
	convey.Convey("empty arrays and inline tables are still appended", t, func() {
		st := mustParse(t, "a = []\nb = {}\n")
		_, ok := st.Lookup("test/a")
		convey.So(ok, convey.ShouldBeTrue)
		_, ok = st.Lookup("test/b")
		convey.So(ok, convey.ShouldBeTrue)
	})
}

func TestFloatShapedKeySplitsOnDot(t *testing.T) {
	convey.Convey("a simple key token that lexes as a float is split on its dot", t, func() {
		// A text-based lexer resolves dotted keys before a float-shaped
		// token could ever reach ExitSimpleKey as one piece (it splits
		// "1.2" into "1" and "2" up front); this exercises the driver's
		// own half of that rule directly, the way a lexer whose
		// tokenizer is context-blind to key-vs-value position would.
		st := store.NewMemStore()
		root := store.NewKey("test")
		d := New(st, root, NewZapReporter(nil))
		d.EnterKey()
		d.ExitSimpleKey(Scalar{Kind: KindFloatNum, Normalized: "1.2", Original: "1.2"})
		d.ExitKey()
		d.ExitValue(Scalar{Kind: KindStringBasic, Normalized: "x", Original: "x"})
		d.ExitKeyValue()
		convey.So(d.Errored(), convey.ShouldBeFalse)

		_, ok := st.Lookup("test/1/2")
		convey.So(ok, convey.ShouldBeTrue)
	})
}

func TestFloatShapedKeyRejectsNonBareHalf(t *testing.T) {
	convey.Convey("a float-shaped simple key with an invalid half is a semantic error", t, func() {
		st := store.NewMemStore()
		root := store.NewKey("test")
		d := New(st, root, NewZapReporter(nil))
		d.EnterKey()
		d.ExitSimpleKey(Scalar{Kind: KindFloatNum, Normalized: "1.2.3", Original: "1.2.3"})
		convey.So(d.Errored(), convey.ShouldBeTrue)
	})
}

func TestDiagnosticsReachableFromReturnedStore(t *testing.T) {
	convey.Convey("a latched error is mirrored onto the root key inside the returned store", t, func() {
		st, err := Parse(strings.NewReader("a = 1\na = 2\n"), Options{RootName: "test"})
		convey.So(err, convey.ShouldNotBeNil)

		root, ok := st.Lookup("test")
		convey.So(ok, convey.ShouldBeTrue)
		msg, ok := root.GetMeta("error/#0")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(msg, convey.ShouldContainSubstring, "keyname")
	})
}

func TestCommentOnlyDocument(t *testing.T) {
	convey.Convey("a comment-only document attaches its comments to the root key", t, func() {
		st := mustParse(t, "# just a comment\n")
		root, ok := st.Lookup("test")
		convey.So(ok, convey.ShouldBeTrue)
		c0, ok := root.GetMeta("comment/#0")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(c0, convey.ShouldEqual, "just a comment")
	})
}
