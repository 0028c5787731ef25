package schema_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/civicgrid/foresight/internal/domain/schema"
)

func newTestSchema() *schema.Schema {
	return schema.New(
		schema.Column{Name: "a", Kind: schema.Numeric},
		schema.Column{Name: "b", Kind: schema.Flag},
		schema.Column{Name: "c", Kind: schema.Encoded},
	)
}

func TestSchema(t *testing.T) {
	convey.Convey("Given a three-column schema", t, func() {
		s := newTestSchema()

		convey.Convey("Then it exposes its columns in order", func() {
			convey.So(s.Len(), convey.ShouldEqual, 3)
			convey.So(s.Columns(), convey.ShouldResemble, []string{"a", "b", "c"})
		})

		convey.Convey("Then Index finds columns by name", func() {
			i, ok := s.Index("b")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(i, convey.ShouldEqual, 1)

			_, ok = s.Index("missing")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then duplicate columns panic at construction", func() {
			convey.So(func() {
				schema.New(
					schema.Column{Name: "x"},
					schema.Column{Name: "x"},
				)
			}, convey.ShouldPanic)
		})
	})
}

func TestVector(t *testing.T) {
	convey.Convey("Given a vector bound to a schema", t, func() {
		s := newTestSchema()
		v := s.NewVector()

		convey.Convey("When setting known columns", func() {
			convey.So(v.Set("a", 1.5), convey.ShouldBeNil)
			convey.So(v.Set("c", 2), convey.ShouldBeNil)

			convey.Convey("Then values read back in schema order", func() {
				convey.So(v.Values(), convey.ShouldResemble, []float64{1.5, 0, 2})
			})
		})

		convey.Convey("When setting an unknown column", func() {
			err := v.Set("missing", 1)
			convey.So(errors.Is(err, schema.ErrUnknownColumn), convey.ShouldBeTrue)
		})

		convey.Convey("When cloning", func() {
			convey.So(v.Set("a", 7), convey.ShouldBeNil)
			clone := v.Clone()
			convey.So(clone.Set("a", 9), convey.ShouldBeNil)

			got, _ := v.Get("a")
			convey.So(got, convey.ShouldEqual, 7)
		})
	})
}

func TestConform(t *testing.T) {
	convey.Convey("Given vectors from different schemas", t, func() {
		s := newTestSchema()
		other := schema.New(
			schema.Column{Name: "a", Kind: schema.Numeric},
			schema.Column{Name: "b", Kind: schema.Numeric},
			schema.Column{Name: "c", Kind: schema.Encoded},
		)

		convey.Convey("Then a vector conforms to its own schema", func() {
			convey.So(s.Conform(s.NewVector()), convey.ShouldBeNil)
		})

		convey.Convey("Then a vector from a schema with different kinds is rejected", func() {
			err := s.Conform(other.NewVector())
			convey.So(errors.Is(err, schema.ErrMismatch), convey.ShouldBeTrue)
		})

		convey.Convey("Then the zero vector is rejected", func() {
			err := s.Conform(schema.Vector{})
			convey.So(errors.Is(err, schema.ErrMismatch), convey.ShouldBeTrue)
		})
	})
}
