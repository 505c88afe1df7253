package mem_test

import (
	"log"
	"math/big"
	"os"
	"testing"

	"github.com/jcorbin/bigforth/internal/logio"
	"github.com/jcorbin/bigforth/internal/mem"
	"github.com/jcorbin/bigforth/internal/panicerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Store(t *testing.T) {
	var x, a, s mem.Handle

	for _, tc := range []storeTestCase{
		storeTest("scalar",
			"create", func(t *testing.T, m *mem.Store) {
				var err error
				x, err = m.Create("X", mem.Scalar)
				require.NoError(t, err, "must create X")
				require.Equal(t, mem.Scalar, x.Kind)
				require.Equal(t, 1, m.Len())
				expectScalar(t, m, x, 0)
			},

			"store 42", func(t *testing.T, m *mem.Store) {
				require.NoError(t, m.Store(x, big.NewInt(42)))
				expectScalar(t, m, x, 42)
				expectScalar(t, m, x, 42)
			},

			"duplicate", func(t *testing.T, m *mem.Store) {
				_, err := m.Create("X", mem.Text)
				require.ErrorIs(t, err, mem.ErrDuplicateName)
				require.Equal(t, 1, m.Len())
			},

			"handle round trip", func(t *testing.T, m *mem.Store) {
				h, err := mem.HandleOf(x.Value())
				require.NoError(t, err)
				require.Equal(t, x, h)
			},

			"free", func(t *testing.T, m *mem.Store) {
				require.NoError(t, m.Free("X"))
				_, err := m.Fetch(x)
				require.ErrorIs(t, err, mem.ErrInvalidHandle)
				require.ErrorIs(t, m.Free("X"), mem.ErrInvalidHandle)
			},

			"slots are not reused", func(t *testing.T, m *mem.Store) {
				y, err := m.Create("X", mem.Scalar)
				require.NoError(t, err)
				require.NotEqual(t, x.Slot, y.Slot)
				_, err = m.Fetch(x)
				require.ErrorIs(t, err, mem.ErrInvalidHandle)
			},
		),

		storeTest("array",
			"create and grow", func(t *testing.T, m *mem.Store) {
				var err error
				a, err = m.Create("A", mem.Scalar)
				require.NoError(t, err)
				require.NoError(t, m.Store(a, big.NewInt(7)))
				grown, err := m.Grow(a, 4)
				require.NoError(t, err)
				require.Equal(t, mem.Array, grown.Kind)
				require.Equal(t, a.Slot, grown.Slot)
				require.Equal(t, grown, m.Last())
				a = grown
			},

			"element zero preserved", func(t *testing.T, m *mem.Store) {
				expectElements(t, m, a, 7, 0, 0, 0)
			},

			"store elements", func(t *testing.T, m *mem.Store) {
				require.NoError(t, m.StoreAt(a, 3, big.NewInt(9)))
				require.NoError(t, m.StoreAt(a, 1, big.NewInt(-1)))
				expectElements(t, m, a, 7, -1, 0, 9)
			},

			"out of bounds", func(t *testing.T, m *mem.Store) {
				_, err := m.FetchAt(a, 4)
				require.ErrorIs(t, err, mem.ErrIndexRange)
				require.ErrorIs(t, m.StoreAt(a, -1, big.NewInt(1)), mem.ErrIndexRange)
			},

			"stale scalar handle", func(t *testing.T, m *mem.Store) {
				_, err := m.Fetch(mem.Handle{Kind: mem.Scalar, Slot: a.Slot})
				require.ErrorIs(t, err, mem.ErrTypeMismatch)
			},

			"grow twice", func(t *testing.T, m *mem.Store) {
				_, err := m.Grow(a, 8)
				require.ErrorIs(t, err, mem.ErrTypeMismatch)
			},

			"bad size", func(t *testing.T, m *mem.Store) {
				b, err := m.Create("B", mem.Scalar)
				require.NoError(t, err)
				_, err = m.Grow(b, 0)
				require.ErrorIs(t, err, mem.ErrBadSize)
				_, err = m.Grow(b, -3)
				require.ErrorIs(t, err, mem.ErrBadSize)
				expectScalar(t, m, b, 0)
			},
		),

		storeTest("text",
			"create", func(t *testing.T, m *mem.Store) {
				var err error
				s, err = m.Create("S", mem.Text)
				require.NoError(t, err)
				require.NoError(t, m.SetText(s, "héllo"))
				text, err := m.Text(s)
				require.NoError(t, err)
				require.Equal(t, "héllo", text)
				c, err := m.Get(s)
				require.NoError(t, err)
				require.Equal(t, 5, c.Len())
			},

			"mistyped access", func(t *testing.T, m *mem.Store) {
				_, err := m.Fetch(s)
				require.ErrorIs(t, err, mem.ErrTypeMismatch)
				_, err = m.FetchAt(s, 0)
				require.ErrorIs(t, err, mem.ErrTypeMismatch)
				_, err = m.Get(mem.Handle{Kind: mem.Scalar, Slot: s.Slot})
				require.ErrorIs(t, err, mem.ErrTypeMismatch)
			},

			"release", func(t *testing.T, m *mem.Store) {
				require.True(t, m.Release(s))
				require.False(t, m.Release(s))
				require.Equal(t, 0, m.Len())
			},
		),

		storeTest("limit",
			"full", func(t *testing.T, m *mem.Store) {
				m.Limit = 2
				_, err := m.Create("A", mem.Scalar)
				require.NoError(t, err)
				_, err = m.Create("B", mem.Scalar)
				require.NoError(t, err)
				_, err = m.Create("C", mem.Scalar)
				require.ErrorIs(t, err, mem.ErrFull)
			},
		),

		storeTest("image",
			"round trip", func(t *testing.T, m *mem.Store) {
				x, err := m.Create("X", mem.Scalar)
				require.NoError(t, err)
				require.NoError(t, m.Store(x, big.NewInt(11)))
				a, err := m.Create("A", mem.Scalar)
				require.NoError(t, err)
				a, err = m.Grow(a, 2)
				require.NoError(t, err)
				require.NoError(t, m.StoreAt(a, 1, big.NewInt(22)))
				s, err := m.Create("S", mem.Text)
				require.NoError(t, err)
				require.NoError(t, m.SetText(s, "hi"))

				var restored mem.Store
				require.NoError(t, restored.Restore(m.Image()))
				assert.Equal(t, m.Image(), restored.Image())
				expectScalar(t, &restored, x, 11)
				expectElements(t, &restored, a, 0, 22)

				y, err := restored.Create("Y", mem.Scalar)
				require.NoError(t, err)
				assert.Greater(t, y.Slot, s.Slot, "restored store must keep allocating fresh slots")
			},
		),
	} {
		t.Run(tc.name, func(t *testing.T) {
			tcLogOut := &logio.Writer{Logf: t.Logf}
			log.SetOutput(tcLogOut)
			defer log.SetOutput(os.Stderr)

			var m mem.Store
			defer func() {
				if t.Failed() {
					t.Logf("image: %+v", m.Image())
				}
			}()

			for _, step := range tc.steps {
				if !t.Run(step.name, func(t *testing.T) {
					isolateTest(t, step.bind(&m))
				}) {
					break
				}
			}
		})
	}
}

func Test_HandleOf(t *testing.T) {
	for _, v := range []*big.Int{
		big.NewInt(-1),
		big.NewInt(0),
		big.NewInt(5),
		new(big.Int).Lsh(big.NewInt(9), 32),
		new(big.Int).Lsh(big.NewInt(1), 80),
	} {
		_, err := mem.HandleOf(v)
		assert.ErrorIs(t, err, mem.ErrInvalidHandle, "for %v", v)
	}
}

func isolateTest(t *testing.T, f func(t *testing.T)) {
	if err := panicerr.Recover(t.Name(), func() error {
		f(t)
		return nil
	}); err != nil {
		t.Logf("%+v", err)
		t.Fail()
	}
}

func expectScalar(t *testing.T, m *mem.Store, h mem.Handle, want int64) {
	v, err := m.Fetch(h)
	require.NoError(t, err, "unexpected fetch error for %v", h)
	require.Equal(t, big.NewInt(want).String(), v.String(), "expected value of %v", h)
}

func expectElements(t *testing.T, m *mem.Store, h mem.Handle, want ...int64) {
	c, err := m.Get(h)
	require.NoError(t, err, "must get %v", h)
	require.Equal(t, len(want), c.Len(), "expected %v length", h)
	for i, w := range want {
		v, err := m.FetchAt(h, i)
		require.NoError(t, err, "unexpected fetch error for %v[%v]", h, i)
		require.Equal(t, big.NewInt(w).String(), v.String(), "expected %v[%v]", h, i)
	}
}

func storeTest(name string, args ...interface{}) (tc storeTestCase) {
	tc.name = name
	for i := 0; i < len(args); i++ {
		var step storeTestStep

		step.name = args[i].(string)

		if i++; i >= len(args) {
			panic("storeTest: missing function argument after name")
		}
		step.f = args[i].(func(t *testing.T, m *mem.Store))

		tc.steps = append(tc.steps, step)
	}
	return tc
}

type storeTestCase struct {
	name  string
	steps []storeTestStep
}

type storeTestStep struct {
	name string
	f    func(t *testing.T, m *mem.Store)

	m *mem.Store
}

func (step storeTestStep) bind(m *mem.Store) func(t *testing.T) {
	step.m = m
	return step.boundTest
}

func (step storeTestStep) boundTest(t *testing.T) {
	step.f(t, step.m)
}
