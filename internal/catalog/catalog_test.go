package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest writes manifest content to a temp file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeManifest(t, `<models><model name="Basic"/></models>`)

	models, err := Load(path)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "Basic", m.Name)
	assert.Equal(t, 16, m.MX)
	assert.Equal(t, 16, m.MY)
	assert.Equal(t, 1, m.MZ)
	assert.False(t, m.Is3D)
	assert.Equal(t, 50000, m.Steps)
}

func TestLoad_ExplicitExtents(t *testing.T) {
	path := writeManifest(t, `<models>
		<model name="Wide" length="40" width="20" steps="1000"/>
	</models>`)

	models, err := Load(path)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, 40, m.MX)
	assert.Equal(t, 20, m.MY)
	assert.Equal(t, 1, m.MZ)
	assert.Equal(t, 1000, m.Steps)
	assert.False(t, m.Is3D)
}

func TestLoad_SizeFallsThroughToLengthAndWidth(t *testing.T) {
	path := writeManifest(t, `<models><model name="Square" size="32"/></models>`)

	models, err := Load(path)
	require.NoError(t, err)

	m := models[0]
	assert.Equal(t, 32, m.MX)
	assert.Equal(t, 32, m.MY)
	assert.Equal(t, 1, m.MZ)
}

func TestLoad_DeclaredDimensionThreeDefaultsHeightToSize(t *testing.T) {
	path := writeManifest(t, `<models><model name="Cube" d="3" size="8"/></models>`)

	models, err := Load(path)
	require.NoError(t, err)

	m := models[0]
	assert.Equal(t, 8, m.MZ)
	assert.True(t, m.Is3D)
}

func TestLoad_HeightAboveOneForcesThreeD(t *testing.T) {
	path := writeManifest(t, `<models><model name="Tower" height="5"/></models>`)

	models, err := Load(path)
	require.NoError(t, err)

	m := models[0]
	assert.Equal(t, 5, m.MZ)
	assert.True(t, m.Is3D, "height > 1 implies 3D even when d is not declared")
}

func TestLoad_DuplicateNamesKeepFirstOccurrence(t *testing.T) {
	path := writeManifest(t, `<models>
		<model name="River" size="10"/>
		<model name="Basic"/>
		<model name="River" size="99"/>
	</models>`)

	models, err := Load(path)
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Equal(t, "River", models[0].Name)
	assert.Equal(t, 10, models[0].MX, "first declaration wins")
	assert.Equal(t, "Basic", models[1].Name)
}

func TestLoad_NestedModelElements(t *testing.T) {
	path := writeManifest(t, `<models>
		<group>
			<model name="Inner"/>
		</group>
		<model name="Outer"/>
	</models>`)

	models, err := Load(path)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "Inner", models[0].Name)
	assert.Equal(t, "Outer", models[1].Name)
}

func TestLoad_UnnamedModelSkipped(t *testing.T) {
	path := writeManifest(t, `<models>
		<model size="4"/>
		<model name="Named"/>
	</models>`)

	models, err := Load(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "Named", models[0].Name)
}

func TestLoad_NegativeStepsMeansUnlimited(t *testing.T) {
	path := writeManifest(t, `<models><model name="Endless" steps="-1"/></models>`)

	models, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, models[0].Steps)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestNotFound)

	var me *ManifestError
	assert.ErrorAs(t, err, &me)
}

func TestLoad_MalformedMarkup(t *testing.T) {
	path := writeManifest(t, `<models><model name="Broken"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrManifestNotFound)

	var me *ManifestError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, path, me.Path)
}

func TestLoad_BadNumericAttribute(t *testing.T) {
	path := writeManifest(t, `<models><model name="Bad" size="huge"/></models>`)

	_, err := Load(path)
	require.Error(t, err)

	var me *ManifestError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Bad", me.Model)
	assert.Contains(t, err.Error(), "size")
}

func TestLoad_NonPositiveExtentRejected(t *testing.T) {
	path := writeManifest(t, `<models><model name="Flat" width="0"/></models>`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width")
}

func TestLoad_InvalidDeclaredDimension(t *testing.T) {
	path := writeManifest(t, `<models><model name="FourD" d="4"/></models>`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "d must be 2 or 3")
}

func TestModelExtents(t *testing.T) {
	flat := Model{Name: "Flat", MX: 20, MY: 30, MZ: 1}
	assert.Equal(t, "20x30", flat.Extents())

	cube := Model{Name: "Cube", MX: 8, MY: 8, MZ: 8, Is3D: true}
	assert.Equal(t, "8x8x8", cube.Extents())
}
