package model

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("wall fixture keeps record order and kinds", func(t *testing.T) {
		file, err := ReadFile("testdata/wall.json")
		require.NoError(t, err)
		require.Len(t, file, 5)

		construction, ok := file[0].Node.Content.(*Construction)
		require.True(t, ok)
		assert.Equal(t, "Ydervæg, tegl", construction.Name.Danish)
		assert.Equal(t, 1, construction.Layer)
		assert.True(t, construction.Locked)

		product, ok := file[1].Node.Content.(*Opaque)
		require.True(t, ok)
		assert.Equal(t, "Product", product.Kind)

		edge, ok := file[2].Edge.Content.(*ConstructionToProduct)
		require.True(t, ok)
		assert.Equal(t, 120.0, edge.Amount)
		assert.Equal(t, "c6b1f8e2-8c36-4b2f-a7b4-5b7bfb1e4c21", file[2].Edge.To)

		stage, ok := file[4].Edge.Content.(*Opaque)
		require.True(t, ok)
		assert.Equal(t, "ProductToStage", stage.Kind)
	})

	t.Run("round trip is lossless", func(t *testing.T) {
		data, err := os.ReadFile("testdata/wall.json")
		require.NoError(t, err)

		file, err := Parse(data)
		require.NoError(t, err)

		out, err := file.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(out))
	})

	t.Run("records that are neither node nor edge are preserved", func(t *testing.T) {
		input := `[{"Something":{"a":1}},42,{"Node":{"Construction":{"id":"x","name":{},"unit":"M2","source":"User","comment":{},"layer":0,"locked":false}}}]`

		file, err := Parse([]byte(input))
		require.NoError(t, err)
		require.Len(t, file, 3)
		assert.NotNil(t, file[0].Raw)
		assert.NotNil(t, file[1].Raw)

		out, err := file.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, input, string(out))
	})

	t.Run("rejects non list documents", func(t *testing.T) {
		_, err := Parse([]byte(`{"Node":{}}`))
		assert.Error(t, err)
	})

	t.Run("rejects edges without two endpoints", func(t *testing.T) {
		_, err := Parse([]byte(`[{"Edge":[{"ConstructionToProduct":{"id":"e","amount":1}},"a"]}]`))
		assert.Error(t, err)
	})
}

func TestConstructionToProducts(t *testing.T) {
	file, err := ReadFile("testdata/wall.json")
	require.NoError(t, err)

	edges := file.ConstructionToProducts()
	require.Len(t, edges, 2)
	assert.Equal(t, "1f9a2b3c-0000-4000-8000-000000000001", edges[0].Content.(*ConstructionToProduct).ID)
	assert.Equal(t, "1f9a2b3c-0000-4000-8000-000000000002", edges[1].Content.(*ConstructionToProduct).ID)

	t.Run("empty file has no edges", func(t *testing.T) {
		assert.Empty(t, File{}.ConstructionToProducts())
	})
}

func TestClone(t *testing.T) {
	file, err := ReadFile("testdata/wall.json")
	require.NoError(t, err)

	clone := file.Clone()
	require.Len(t, clone, len(file))

	clone.ConstructionToProducts()[0].Content.(*ConstructionToProduct).Amount = 1
	clone[0].Node.Content.(*Construction).Name.Danish = "ændret"
	clone[1].Node.Content.(*Opaque).Raw[0] = ' '

	assert.Equal(t, 120.0, file.ConstructionToProducts()[0].Content.(*ConstructionToProduct).Amount)
	assert.Equal(t, "Ydervæg, tegl", file[0].Node.Content.(*Construction).Name.Danish)
	assert.Equal(t, byte('{'), file[1].Node.Content.(*Opaque).Raw[0])
}

func TestNameFirst(t *testing.T) {
	assert.Equal(t, "Mursten", Name{Danish: "Mursten", English: "Brick"}.First())
	assert.Equal(t, "Brick", Name{English: "Brick"}.First())
	assert.Equal(t, "Ziegel", Name{German: "Ziegel"}.First())
	assert.Equal(t, "", Name{}.First())
}
