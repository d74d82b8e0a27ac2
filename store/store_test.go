package store

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestKeyRefCounting(t *testing.T) {
	convey.Convey("reference counts track holders", t, func() {
		k := NewKey("user/app/a")
		convey.So(k.RefCount(), convey.ShouldEqual, 0)
		k.IncRef()
		k.IncRef()
		convey.So(k.RefCount(), convey.ShouldEqual, 2)
		k.DecRef()
		convey.So(k.RefCount(), convey.ShouldEqual, 1)
		k.DecRef()
		k.DecRef() // must not go negative
		convey.So(k.RefCount(), convey.ShouldEqual, 0)
	})
}

func TestAppendBaseNameEscaping(t *testing.T) {
	convey.Convey("slashes and backslashes in a segment are escaped", t, func() {
		k := NewKey("user/app")
		k.AppendBaseName("a/b")
		convey.So(k.Name(), convey.ShouldEqual, `user/app/a\/b`)

		k2 := NewKey("user/app")
		k2.AppendBaseName(`a\b`)
		convey.So(k2.Name(), convey.ShouldEqual, `user/app/a\\b`)
	})
}

func TestDupIsIndependent(t *testing.T) {
	convey.Convey("Dup copies value and metadata but not refcount", t, func() {
		k := NewKey("user/app/a")
		k.SetString("1")
		k.SetMeta("type", "long_long")
		k.IncRef()

		d := k.Dup()
		convey.So(d.Name(), convey.ShouldEqual, k.Name())
		convey.So(d.Value(), convey.ShouldEqual, "1")
		v, ok := d.GetMeta("type")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, "long_long")
		convey.So(d.RefCount(), convey.ShouldEqual, 0)

		d.SetString("2")
		convey.So(k.Value(), convey.ShouldEqual, "1")
	})
}

func TestIsBelow(t *testing.T) {
	convey.Convey("is-below matches strict descendants only", t, func() {
		a := NewKey("user/app/a")
		b := NewKey("user/app/a/b")
		c := NewKey("user/app/ab")
		convey.So(IsBelow(a, b), convey.ShouldBeTrue)
		convey.So(IsBelow(a, a), convey.ShouldBeFalse)
		convey.So(IsBelow(a, c), convey.ShouldBeFalse)
	})
}

func TestMemStoreOrdering(t *testing.T) {
	convey.Convey("All orders by the order metadata", t, func() {
		s := NewMemStore()
		k1 := NewKey("user/app/b")
		k1.SetMeta("order", "1")
		k2 := NewKey("user/app/a")
		k2.SetMeta("order", "0")
		s.Append(k1)
		s.Append(k2)

		all := s.All()
		convey.So(len(all), convey.ShouldEqual, 2)
		convey.So(all[0].Name(), convey.ShouldEqual, "user/app/a")
		convey.So(all[1].Name(), convey.ShouldEqual, "user/app/b")
	})
}
