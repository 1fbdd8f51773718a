// Command imagegen runs single image generations and the faction batches.
package main

import (
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
	"github.com/elidorascodex/tecflow/internal/shared/cli"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("imagegen", pflag.ContinueOnError)
	cli.AddCommonFlags(fs)
	opts := addFlags(fs)

	ctx, a, cleanup, err := cli.Bootstrap(fs, args, map[string]string{
		"stability.output_dir": "output-dir",
	})
	if err != nil {
		return cli.Fatal(stderr, err)
	}
	defer cleanup()

	task := opts.task()

	var batch *imagegen.Batch
	switch task.Name {
	case imagegen.TaskGenerateFactionImages, imagegen.TaskGenerateBlockNexus:
		batch, err = a.Batch()
		if err != nil {
			return cli.Fatal(stderr, err)
		}
	default:
		// single requests need no factions file
		batch = imagegen.NewBatch(a.Images, nil, 1, a.Logger)
	}

	return cli.Report(stdout, batch.Run(ctx, task))
}

type options struct {
	name string

	prompt         string
	negativePrompt string
	model          string
	sd3Model       string
	aspectRatio    string
	stylePreset    string
	seed           int64
	outputFormat   string
	outputName     string
	outputDir      string
	upload         bool

	factionName string
	imageTypes  []string

	image      string
	mask       string
	styleImage string

	editType     string
	searchPrompt string
	selectPrompt string
	growMask     int

	controlType     string
	controlStrength float64

	upscaleType string
	creativity  float64
}

func addFlags(fs *pflag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.name, "task", "generate", "task: generate, edit, control, upscale, generate_faction_images, generate_block_nexus")

	fs.StringVar(&o.prompt, "prompt", "", "text prompt")
	fs.StringVar(&o.negativePrompt, "negative-prompt", "", "what to keep out of the image")
	fs.StringVar(&o.model, "model", "ultra", "generate variant: ultra, core, sd3")
	fs.StringVar(&o.sd3Model, "sd3-model", imagegen.SD3Large, "model used by the sd3 variant")
	fs.StringVar(&o.aspectRatio, "aspect-ratio", "", "aspect ratio, e.g. 16:9")
	fs.StringVar(&o.stylePreset, "style-preset", "", "style preset, e.g. fantasy-art")
	fs.Int64Var(&o.seed, "seed", 0, "seed, 0 for random")
	fs.StringVar(&o.outputFormat, "output-format", "png", "output format: jpeg, png, webp")
	fs.StringVar(&o.outputName, "output-name", "", "artifact file name without extension")
	fs.StringVar(&o.outputDir, "output-dir", "", "directory for generated artifacts")
	fs.BoolVar(&o.upload, "upload", false, "upload the artifact to object storage")

	fs.StringVar(&o.factionName, "faction-name", "", "faction for generate_faction_images")
	fs.StringSliceVar(&o.imageTypes, "image-type", nil, "faction image types: banner, icon, landscape")

	fs.StringVar(&o.image, "image", "", "input image path")
	fs.StringVar(&o.mask, "mask", "", "mask image path")
	fs.StringVar(&o.styleImage, "style-image", "", "style reference image path")

	fs.StringVar(&o.editType, "edit-type", "erase", "edit variant: erase, inpaint, outpaint, search-and-replace, search-and-recolor, remove-background, replace-background-and-relight")
	fs.StringVar(&o.searchPrompt, "search-prompt", "", "object to find for search-and-replace")
	fs.StringVar(&o.selectPrompt, "select-prompt", "", "object to select for search-and-recolor")
	fs.IntVar(&o.growMask, "grow-mask", 0, "pixels to grow the mask by")

	fs.StringVar(&o.controlType, "control-type", "sketch", "control variant: sketch, structure, style, style-transfer")
	fs.Float64Var(&o.controlStrength, "control-strength", 0.7, "control strength for sketch and structure")

	fs.StringVar(&o.upscaleType, "upscale-type", "fast", "upscale variant: fast, conservative, creative")
	fs.Float64Var(&o.creativity, "creativity", 0.3, "creativity for creative and conservative upscales")
	return o
}

// task maps the flags onto a batch task. Parameters a route does not accept are dropped by
// the client, so every set flag is passed through.
func (o *options) task() imagegen.Task {
	name := imagegen.TaskName(o.name)
	switch name {
	case imagegen.TaskGenerateFactionImages:
		types := make([]imagegen.FactionImageType, len(o.imageTypes))
		for i, t := range o.imageTypes {
			types[i] = imagegen.FactionImageType(t)
		}
		return imagegen.Task{Name: name, FactionName: o.factionName, ImageTypes: types, Variant: o.model}
	case imagegen.TaskGenerate, imagegen.TaskEdit, imagegen.TaskControl, imagegen.TaskUpscale:
		return imagegen.Task{Name: name, Request: o.request(name)}
	default:
		return imagegen.Task{Name: name}
	}
}

func (o *options) request(name imagegen.TaskName) *imagegen.Request {
	req := &imagegen.Request{
		Prompt:         o.prompt,
		NegativePrompt: o.negativePrompt,
		Seed:           o.seed,
		OutputFormat:   o.outputFormat,
		OutputName:     o.outputName,
		Upload:         o.upload,
	}

	switch name {
	case imagegen.TaskGenerate:
		req.Variant = o.model
		if o.model == "sd3" {
			req.WithParam(imagegen.ParamModel, o.sd3Model)
		}
	case imagegen.TaskEdit:
		req.Variant = o.editType
	case imagegen.TaskControl:
		req.Variant = o.controlType
		req.WithParam("control_strength", strconv.FormatFloat(o.controlStrength, 'f', -1, 64))
	case imagegen.TaskUpscale:
		req.Variant = o.upscaleType
		req.WithParam(imagegen.ParamCreativity, strconv.FormatFloat(o.creativity, 'f', -1, 64))
	}

	optional := map[string]string{
		imagegen.ParamAspectRatio:  o.aspectRatio,
		imagegen.ParamStylePreset:  o.stylePreset,
		imagegen.ParamSearchPrompt: o.searchPrompt,
		imagegen.ParamSelectPrompt: o.selectPrompt,
	}
	for k, v := range optional {
		if v != "" {
			req.WithParam(k, v)
		}
	}
	if o.growMask > 0 {
		req.WithParam(imagegen.ParamGrowMask, strconv.Itoa(o.growMask))
	}

	files := map[string]string{
		imagegen.RoleImage:      o.image,
		imagegen.RoleMask:       o.mask,
		imagegen.RoleStyleImage: o.styleImage,
	}
	for role, path := range files {
		if path != "" {
			req.WithFile(role, imagegen.FromPath(path))
		}
	}
	return req
}
