package imagegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

func TestVariants(t *testing.T) {
	assert.Equal(t, []string{"ultra", "core", "sd3"}, Variants(FamilyGenerate))
	assert.Equal(t, []string{
		"inpaint", "outpaint", "erase", "search-and-replace", "search-and-recolor",
		"remove-background", "replace-background-and-relight",
	}, Variants(FamilyEdit))
	assert.Equal(t, []string{"sketch", "structure", "style", "style-transfer"}, Variants(FamilyControl))
	assert.Equal(t, []string{"creative", "conservative", "fast"}, Variants(FamilyUpscale))
	assert.Empty(t, Variants("paint"))
}

func TestVariants_ReturnsCopy(t *testing.T) {
	v := Variants(FamilyGenerate)
	v[0] = "changed"
	assert.Equal(t, "ultra", Variants(FamilyGenerate)[0])
}

func TestLookup(t *testing.T) {
	tests := []struct {
		family  Family
		variant string
		path    string
		mode    Mode
	}{
		{FamilyGenerate, "ultra", "stable-image/generate/ultra", ModeSync},
		{FamilyGenerate, "sd3", "stable-image/generate/sd3", ModeSync},
		{FamilyEdit, "inpaint", "stable-image/edit/inpaint", ModeSync},
		{FamilyEdit, "replace-background-and-relight", "stable-image/edit/replace-background-and-relight", ModeAsync},
		{FamilyControl, "style-transfer", "stable-image/control/style-transfer", ModeSync},
		{FamilyUpscale, "creative", "stable-image/upscale/creative", ModeAsync},
		{FamilyUpscale, "fast", "stable-image/upscale/fast", ModeSync},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, err := Lookup(tt.family, tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.path, r.Path())
			assert.Equal(t, tt.mode, r.Mode)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup(FamilyEdit, "blur")
	assert.ErrorIs(t, err, apperrors.ErrInvalidVariant)
	assert.Contains(t, err.Error(), "inpaint")

	_, err = Lookup("paint", "core")
	assert.ErrorIs(t, err, apperrors.ErrInvalidVariant)
	assert.Contains(t, err.Error(), "upscale")
}

func TestRoute_FileField(t *testing.T) {
	r, err := Lookup(FamilyEdit, "replace-background-and-relight")
	require.NoError(t, err)
	assert.Equal(t, "subject_image", r.FileField(RoleImage))
	assert.Equal(t, RoleLightReference, r.FileField(RoleLightReference))
	assert.True(t, r.acceptsFile(RoleBackgroundReference))
	assert.False(t, r.acceptsFile(RoleMask))
}

func TestRoutes_OutputFormatChoices(t *testing.T) {
	for _, family := range Families {
		for _, variant := range Variants(family) {
			r, err := Lookup(family, variant)
			require.NoError(t, err)
			assert.True(t, r.allows(ParamOutputFormat), r.Path())
			assert.Equal(t, OutputFormats, r.Choices[ParamOutputFormat], r.Path())
		}
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "sync", ModeSync.String())
	assert.Equal(t, "async", ModeAsync.String())
}
