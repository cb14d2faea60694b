package variables

import (
	"testing"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlainTextUnchanged(t *testing.T) {
	store := New(nil)

	for _, input := range []string{"", "Hello", "no placeholders here", "{ not one }", "a}b{c"} {
		assert.Equal(t, input, store.Render(input))
	}
}

func TestRenderSubstitutesBoundVariable(t *testing.T) {
	store := New([]models.Variable{{Name: "name", Value: "Ada", Type: models.VariableTypeString}})

	assert.Equal(t, "Hello Ada", store.Render("Hello {name}"))
}

func TestRenderUnboundVariableYieldsEmpty(t *testing.T) {
	store := New(nil)

	assert.Equal(t, "Hello ", store.Render("Hello {name}"))
}

func TestRenderIsSingleNonRecursivePass(t *testing.T) {
	store := New(nil)
	store.Set("a", "{b}")
	store.Set("b", "deep")

	// The substituted "{b}" must not be expanded again.
	assert.Equal(t, "{b}", store.Render("{a}"))
}

func TestRenderStringifiesTypes(t *testing.T) {
	store := New(nil)
	store.Set("count", float64(3))
	store.Set("price", 19.9)
	store.Set("ok", true)
	store.Set("tags", []any{"a", "b"})

	assert.Equal(t, "3", store.Render("{count}"))
	assert.Equal(t, "19.9", store.Render("{price}"))
	assert.Equal(t, "true", store.Render("{ok}"))
	assert.Equal(t, "a, b", store.Render("{tags}"))
}

func TestIncrementTreatsMissingAsZero(t *testing.T) {
	store := New(nil)

	store.Increment("counter")
	store.Increment("counter")
	store.Decrement("other")

	counter, ok := store.Get("counter")
	require.True(t, ok)
	assert.InEpsilon(t, 2.0, counter, 1e-9)

	other, ok := store.Get("other")
	require.True(t, ok)
	assert.InEpsilon(t, -1.0, other, 1e-9)
}

func TestIncrementCoercesStrings(t *testing.T) {
	store := New(nil)
	store.Set("n", "41")
	store.Increment("n")

	n, _ := store.Get("n")
	assert.InEpsilon(t, 42.0, n, 1e-9)

	store.Set("junk", "not a number")
	store.Increment("junk")

	junk, _ := store.Get("junk")
	assert.InEpsilon(t, 1.0, junk, 1e-9)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := New([]models.Variable{{Name: "name", Value: "Ada", Type: models.VariableTypeString}})
	store.Set("visits", float64(2))

	restored := FromSnapshot(store.Snapshot())

	assert.Equal(t, "Hello Ada, visit 2", restored.Render("Hello {name}, visit {visits}"))

	// Snapshots are copies, not views.
	restored.Set("name", "Grace")
	name, _ := store.Get("name")
	assert.Equal(t, "Ada", name)
}
