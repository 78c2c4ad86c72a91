package sqlitec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	t.Run("Kinds", func(t *testing.T) {
		assert.Equal(t, TypeNull, Null().Kind())
		assert.Equal(t, TypeInt32, Int32(1).Kind())
		assert.Equal(t, TypeInt64, Int64(1).Kind())
		assert.Equal(t, TypeFloat64, Float64(1).Kind())
		assert.Equal(t, TypeText, Text("x").Kind())
		assert.Equal(t, TypeBlob, Blob([]byte{1}).Kind())
	})

	t.Run("Payloads", func(t *testing.T) {
		assert.Equal(t, int64(-7), Int32(-7).Int64())
		assert.Equal(t, int64(1<<40), Int64(1<<40).Int64())
		assert.Equal(t, 3.14, Float64(3.14).Float64())
		assert.Equal(t, "hola", Text("hola").Text())
		assert.Equal(t, []byte("raw"), Blob([]byte("raw")).Blob())
	})

	t.Run("NullIsNotEmpty", func(t *testing.T) {
		assert.True(t, Null().IsNull())
		assert.False(t, Text("").IsNull())
		assert.False(t, Blob(nil).IsNull())
		assert.NotEqual(t, Null().Kind(), Text("").Kind())
		assert.NotEqual(t, Null().Kind(), Blob(nil).Kind())
	})

	t.Run("KindString", func(t *testing.T) {
		assert.Equal(t, "null", TypeNull.String())
		assert.Equal(t, "int32", TypeInt32.String())
		assert.Equal(t, "int64", TypeInt64.String())
		assert.Equal(t, "float64", TypeFloat64.String())
		assert.Equal(t, "text", TypeText.String())
		assert.Equal(t, "blob", TypeBlob.String())
		assert.Equal(t, "ValueKind(42)", ValueKind(42).String())
	})
}
