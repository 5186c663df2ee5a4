package plot

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonsonwune/collegerank/models"
)

func colleges(fees ...string) *models.Table {
	t := models.NewTable([]string{models.ColumnCollegeName, "Fees"})
	for i, f := range fees {
		t.Rows = append(t.Rows, models.Row{
			models.ColumnCollegeName: string(rune('A' + i)),
			"Fees":                   f,
		})
	}
	return t
}

func lineOptions() Options {
	return Options{
		XField: "Fees",
		YField: models.ColumnCollegeName,
		Title:  TitleFor("Fees", "CA"),
		XLabel: "Fees",
		YLabel: models.ColumnCollegeName,
		Kind:   KindLine,
	}
}

func requirePNG(t *testing.T, img []byte) {
	t.Helper()
	require.NotEmpty(t, img)
	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, decoded.Bounds().Dx())
	assert.Equal(t, DefaultHeight, decoded.Bounds().Dy())
}

func TestRender_Line(t *testing.T) {
	table := colleges("1000", "2500", "1800")

	first, err := Render(table, lineOptions())
	require.NoError(t, err)
	requirePNG(t, first)

	second, err := Render(table, lineOptions())
	require.NoError(t, err)
	requirePNG(t, second)
}

func TestRender_UnsupportedKind(t *testing.T) {
	opts := lineOptions()
	opts.Kind = "bar"

	img, err := Render(colleges("1", "2"), opts)
	assert.ErrorIs(t, err, ErrUnsupportedGraphType)
	assert.Nil(t, img)
}

func TestRender_EmptyInput(t *testing.T) {
	img, err := Render(colleges(), lineOptions())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, img)
}

func TestRender_UnknownColumn(t *testing.T) {
	opts := lineOptions()
	opts.XField = "Placement"

	_, err := Render(colleges("1"), opts)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRender_NonNumericCellLeavesGap(t *testing.T) {
	table := colleges("1000", "N/A", "1800", "2100")

	img, err := Render(table, lineOptions())
	require.NoError(t, err)
	requirePNG(t, img)
	assert.Equal(t, "N/A", table.Rows[1]["Fees"])
}

func TestRender_AllMissing(t *testing.T) {
	_, err := Render(colleges("N/A", ""), lineOptions())
	assert.ErrorIs(t, err, ErrNoNumericValues)
}

func TestRender_SingleRow(t *testing.T) {
	img, err := Render(colleges("0"), lineOptions())
	require.NoError(t, err)
	requirePNG(t, img)
}

func TestRenderBase64(t *testing.T) {
	text, err := RenderBase64(colleges("3", "4"), lineOptions())
	require.NoError(t, err)

	img, err := base64.StdEncoding.DecodeString(text)
	require.NoError(t, err)
	requirePNG(t, img)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" line ")
	require.NoError(t, err)
	assert.Equal(t, KindLine, k)

	for _, s := range []string{"", "bar", "Line", "pie"} {
		_, err := ParseKind(s)
		assert.ErrorIs(t, err, ErrUnsupportedGraphType, s)
	}
}

func TestSplitSegments(t *testing.T) {
	nan := math.NaN()
	segs := splitSegments([]float64{1, 2, nan, nan, 5, nan, 7})

	require.Len(t, segs, 3)
	assert.Equal(t, []float64{1, 2}, segs[0].xs)
	assert.Equal(t, []float64{0, 1}, segs[0].ys)
	assert.Equal(t, []float64{5}, segs[1].xs)
	assert.Equal(t, []float64{4}, segs[1].ys)
	assert.Equal(t, []float64{6}, segs[2].ys)

	assert.Empty(t, splitSegments([]float64{nan}))
}

func TestValueBounds(t *testing.T) {
	lo, hi := valueBounds([]float64{10, math.NaN(), 20})
	assert.Less(t, lo, 10.0)
	assert.Greater(t, hi, 20.0)

	lo, hi = valueBounds([]float64{0})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = valueBounds([]float64{50, 50})
	assert.Equal(t, 45.0, lo)
	assert.Equal(t, 55.0, hi)
}
