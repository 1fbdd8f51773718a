package imagegen

import (
	"fmt"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// Family is a top-level generation capability.
type Family string

const (
	FamilyGenerate Family = "generate"
	FamilyEdit     Family = "edit"
	FamilyControl  Family = "control"
	FamilyUpscale  Family = "upscale"
)

// Families lists the families in dispatch order.
var Families = []Family{FamilyGenerate, FamilyEdit, FamilyControl, FamilyUpscale}

// Mode selects how a route is dispatched.
type Mode int

const (
	// ModeSync issues one POST whose body is the image.
	ModeSync Mode = iota
	// ModeAsync issues one POST returning a job id, then polls for the result.
	ModeAsync
)

func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// Input roles.
const (
	RoleImage               = "image"
	RoleMask                = "mask"
	RoleStyleImage          = "style_image"
	RoleBackgroundReference = "background_reference"
	RoleLightReference      = "light_reference"
)

// Parameter names shared by most routes.
const (
	ParamPrompt         = "prompt"
	ParamNegativePrompt = "negative_prompt"
	ParamSeed           = "seed"
	ParamOutputFormat   = "output_format"
	ParamAspectRatio    = "aspect_ratio"
	ParamStylePreset    = "style_preset"
	ParamModel          = "model"
	ParamMode           = "mode"
	ParamCreativity     = "creativity"
	ParamSearchPrompt   = "search_prompt"
	ParamSelectPrompt   = "select_prompt"
	ParamGrowMask       = "grow_mask"
)

// SD3 models.
const (
	SD3Large      = "sd3.5-large"
	SD3LargeTurbo = "sd3.5-large-turbo"
	SD3Medium     = "sd3.5-medium"
)

// OutputFormats lists the accepted output formats.
var OutputFormats = []string{"jpeg", "png", "webp"}

// Route describes one (family, variant) endpoint.
type Route struct {
	Family  Family
	Variant string
	Mode    Mode

	// RequiredFiles and OptionalFiles name input roles.
	RequiredFiles []string
	OptionalFiles []string
	// FileFields renames a role on the wire. Roles not listed are sent under their own name.
	FileFields map[string]string

	// RequiredParams must be present and non-empty.
	RequiredParams []string
	// Allowed lists every parameter the endpoint accepts, required ones included.
	Allowed []string
	// Defaults fill allowed parameters the caller left empty.
	Defaults map[string]string
	// Fixed values are always sent and override the caller.
	Fixed map[string]string
	// Choices restrict a parameter to an enumerated set.
	Choices map[string][]string

	// adjust runs last on the assembled parameters.
	adjust func(params map[string]string)
}

// Path returns the endpoint path relative to the API base.
func (r *Route) Path() string {
	return fmt.Sprintf("stable-image/%s/%s", r.Family, r.Variant)
}

// FileField returns the multipart field name for role.
func (r *Route) FileField(role string) string {
	if f, ok := r.FileFields[role]; ok {
		return f
	}
	return role
}

func (r *Route) allows(param string) bool {
	for _, p := range r.Allowed {
		if p == param {
			return true
		}
	}
	return false
}

func (r *Route) acceptsFile(role string) bool {
	for _, f := range r.RequiredFiles {
		if f == role {
			return true
		}
	}
	for _, f := range r.OptionalFiles {
		if f == role {
			return true
		}
	}
	return false
}

type routeKey struct {
	family  Family
	variant string
}

var (
	routes   = map[routeKey]*Route{}
	variants = map[Family][]string{}
)

func register(rs ...*Route) {
	for _, r := range rs {
		if r.Choices == nil {
			r.Choices = map[string][]string{}
		}
		if r.allows(ParamOutputFormat) {
			r.Choices[ParamOutputFormat] = OutputFormats
		}
		routes[routeKey{r.Family, r.Variant}] = r
		variants[r.Family] = append(variants[r.Family], r.Variant)
	}
}

// Lookup returns the route for a family and variant.
func Lookup(family Family, variant string) (*Route, error) {
	r, ok := routes[routeKey{family, variant}]
	if ok {
		return r, nil
	}
	if _, known := variants[family]; !known {
		return nil, apperrors.InvalidVariant("family", string(family), familyNames())
	}
	return nil, apperrors.InvalidVariant(string(family), variant, variants[family])
}

// Variants returns the variants of family in table order.
func Variants(family Family) []string {
	return append([]string(nil), variants[family]...)
}

func familyNames() []string {
	names := make([]string, len(Families))
	for i, f := range Families {
		names[i] = string(f)
	}
	return names
}

func dropNegativeForTurbo(params map[string]string) {
	if params[ParamModel] == SD3LargeTurbo {
		delete(params, ParamNegativePrompt)
	}
}

func textToImage(variant string) *Route {
	return &Route{
		Family:         FamilyGenerate,
		Variant:        variant,
		Mode:           ModeSync,
		RequiredParams: []string{ParamPrompt},
		Allowed: []string{
			ParamPrompt, ParamNegativePrompt, ParamAspectRatio, ParamSeed,
			ParamOutputFormat, ParamStylePreset,
		},
		Defaults: map[string]string{ParamAspectRatio: "1:1"},
	}
}

func init() {
	sd3 := textToImage("sd3")
	sd3.Allowed = append(sd3.Allowed, ParamModel, ParamMode)
	sd3.Defaults[ParamModel] = SD3Large
	sd3.Fixed = map[string]string{ParamMode: "text-to-image"}
	sd3.Choices = map[string][]string{ParamModel: {SD3Large, SD3LargeTurbo, SD3Medium}}
	sd3.adjust = dropNegativeForTurbo

	register(
		textToImage("ultra"),
		textToImage("core"),
		sd3,
	)

	register(
		&Route{
			Family:        FamilyEdit,
			Variant:       "inpaint",
			RequiredFiles: []string{RoleImage, RoleMask},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, ParamSeed, ParamOutputFormat,
				ParamGrowMask, ParamMode,
			},
			Fixed: map[string]string{ParamMode: "mask"},
		},
		&Route{
			Family:        FamilyEdit,
			Variant:       "outpaint",
			RequiredFiles: []string{RoleImage},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, "left", "right", "up", "down",
				ParamCreativity, ParamSeed, ParamOutputFormat,
			},
		},
		&Route{
			Family:        FamilyEdit,
			Variant:       "erase",
			RequiredFiles: []string{RoleImage},
			Allowed:       []string{ParamSeed, ParamOutputFormat, ParamGrowMask},
		},
		&Route{
			Family:         FamilyEdit,
			Variant:        "search-and-replace",
			RequiredFiles:  []string{RoleImage},
			RequiredParams: []string{ParamSearchPrompt, ParamPrompt},
			Allowed: []string{
				ParamPrompt, ParamSearchPrompt, ParamNegativePrompt, ParamSeed,
				ParamOutputFormat, ParamMode,
			},
			Fixed: map[string]string{ParamMode: "search"},
		},
		&Route{
			Family:         FamilyEdit,
			Variant:        "search-and-recolor",
			RequiredFiles:  []string{RoleImage},
			RequiredParams: []string{ParamSelectPrompt, ParamPrompt},
			Allowed: []string{
				ParamPrompt, ParamSelectPrompt, ParamNegativePrompt, ParamGrowMask,
				ParamSeed, ParamOutputFormat, ParamMode,
			},
			Fixed: map[string]string{ParamMode: "search"},
		},
		&Route{
			Family:        FamilyEdit,
			Variant:       "remove-background",
			RequiredFiles: []string{RoleImage},
			Allowed:       []string{ParamOutputFormat},
		},
		&Route{
			Family:        FamilyEdit,
			Variant:       "replace-background-and-relight",
			Mode:          ModeAsync,
			RequiredFiles: []string{RoleImage},
			OptionalFiles: []string{RoleBackgroundReference, RoleLightReference},
			FileFields:    map[string]string{RoleImage: "subject_image"},
			Allowed: []string{
				"background_prompt", "foreground_prompt", ParamNegativePrompt,
				"preserve_original_subject", "original_background_depth",
				"keep_original_background", "light_source_direction",
				"light_source_strength", ParamSeed, ParamOutputFormat,
			},
		},
	)

	for _, variant := range []string{"sketch", "structure"} {
		register(&Route{
			Family:         FamilyControl,
			Variant:        variant,
			RequiredFiles:  []string{RoleImage},
			RequiredParams: []string{ParamPrompt},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, "control_strength", ParamSeed,
				ParamOutputFormat,
			},
		})
	}
	register(
		&Route{
			Family:         FamilyControl,
			Variant:        "style",
			RequiredFiles:  []string{RoleImage},
			RequiredParams: []string{ParamPrompt},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, "fidelity", ParamAspectRatio,
				ParamSeed, ParamOutputFormat,
			},
		},
		&Route{
			Family:         FamilyControl,
			Variant:        "style-transfer",
			RequiredFiles:  []string{RoleImage, RoleStyleImage},
			FileFields:     map[string]string{RoleImage: "init_image"},
			RequiredParams: []string{ParamPrompt},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, "style_strength",
				"composition_fidelity", "change_strength", ParamSeed, ParamOutputFormat,
			},
		},
	)

	upscale := func(variant string, mode Mode) *Route {
		return &Route{
			Family:        FamilyUpscale,
			Variant:       variant,
			Mode:          mode,
			RequiredFiles: []string{RoleImage},
			Allowed: []string{
				ParamPrompt, ParamNegativePrompt, ParamCreativity, ParamSeed,
				ParamOutputFormat,
			},
			Defaults: map[string]string{ParamCreativity: "0.3"},
		}
	}
	register(
		upscale("creative", ModeAsync),
		upscale("conservative", ModeSync),
		&Route{
			Family:        FamilyUpscale,
			Variant:       "fast",
			RequiredFiles: []string{RoleImage},
			Allowed:       []string{ParamOutputFormat},
		},
	)
}
