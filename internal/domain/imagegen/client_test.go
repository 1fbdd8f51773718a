package imagegen

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// completeRequest returns a request satisfying every requirement of route.
func completeRequest(route *Route) *Request {
	req := &Request{Family: route.Family, Variant: route.Variant}
	for _, role := range route.RequiredFiles {
		req.WithFile(role, reader("img"))
	}
	for _, p := range route.RequiredParams {
		if p == ParamPrompt {
			req.Prompt = "a lantern"
			continue
		}
		req.WithParam(p, "a cat")
	}
	return req
}

func TestSubmit_ValidationBeforeNetwork(t *testing.T) {
	for _, family := range Families {
		for _, variant := range Variants(family) {
			route, err := Lookup(family, variant)
			require.NoError(t, err)

			for _, role := range route.RequiredFiles {
				t.Run(route.Path()+"/missing file "+role, func(t *testing.T) {
					doer := &stubDoer{}
					client, _, _ := newTestClient(t, doer)

					req := completeRequest(route)
					delete(req.Files, role)

					_, err := client.Submit(context.Background(), req)
					assert.ErrorIs(t, err, apperrors.ErrValidation)
					assert.Empty(t, doer.Calls())
				})
			}

			for _, param := range route.RequiredParams {
				t.Run(route.Path()+"/missing param "+param, func(t *testing.T) {
					doer := &stubDoer{}
					client, _, _ := newTestClient(t, doer)

					req := completeRequest(route)
					if param == ParamPrompt {
						req.Prompt = ""
					} else {
						delete(req.Params, param)
					}

					_, err := client.Submit(context.Background(), req)
					assert.ErrorIs(t, err, apperrors.ErrValidation)
					assert.Empty(t, doer.Calls())
				})
			}
		}
	}
}

func TestSubmit_InvalidVariant(t *testing.T) {
	tests := []struct {
		name    string
		family  Family
		variant string
	}{
		{"unknown variant", FamilyEdit, "blur"},
		{"variant from another family", FamilyUpscale, "sketch"},
		{"unknown family", Family("animate"), "core"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &stubDoer{}
			client, _, _ := newTestClient(t, doer)

			_, err := client.Submit(context.Background(), &Request{Family: tt.family, Variant: tt.variant, Prompt: "x"})
			assert.ErrorIs(t, err, apperrors.ErrInvalidVariant)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Empty(t, doer.Calls())
		})
	}
}

func TestSubmit_OtherValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{"negative seed", &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x", Seed: -1}},
		{"bad output format", &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x", OutputFormat: "gif"}},
		{"bad sd3 model", (&Request{Family: FamilyGenerate, Variant: "sd3", Prompt: "x"}).WithParam(ParamModel, "sd2")},
		{"path in output name", &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x", OutputName: "../escape"}},
		{"non scalar param", (&Request{Family: FamilyGenerate, Variant: "core", Prompt: "x"}).WithParam("aspect_ratio", []string{"1:1"})},
		{"unreadable input path", (&Request{Family: FamilyUpscale, Variant: "fast"}).WithFile(RoleImage, FromPath("/does/not/exist.png"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &stubDoer{}
			client, _, _ := newTestClient(t, doer)

			_, err := client.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Empty(t, doer.Calls())
		})
	}
}

func TestSubmit_MissingAPIKey(t *testing.T) {
	doer := &stubDoer{}
	client, _, _ := newTestClient(t, doer)
	client.cfg.APIKey = ""

	_, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x"})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Empty(t, doer.Calls())
}

func TestSubmit_EndToEnd(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "42", "SUCCESS", "PNGDATA")}}
	client, _, dir := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{
		Family:  FamilyGenerate,
		Variant: "core",
		Prompt:  "a lantern",
		Seed:    42,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "stability_20250314_092653_42.png"), res.Path)
	assert.Equal(t, ".png", filepath.Ext(res.Path))
	assert.Contains(t, filepath.Base(res.Path), "42")
	assert.Equal(t, "png", res.Format)
	assert.EqualValues(t, 7, res.Size)
	assert.Nil(t, res.Image)
	assert.Nil(t, res.Metadata)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))

	calls := doer.Calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/v2beta/stable-image/generate/core", call.Path)
	assert.Equal(t, "image/*", call.Accept)
	assert.Equal(t, "Bearer sk-test", call.Auth)
	assert.Equal(t, []string{"a lantern"}, call.Fields["prompt"])
	assert.Equal(t, []string{"42"}, call.Fields["seed"])
	assert.Equal(t, []string{"1:1"}, call.Fields["aspect_ratio"])
	assert.Equal(t, []string{"jpeg"}, call.Fields["output_format"])
	assert.Equal(t, []string{""}, call.Fields[placeholderField])
	assert.NotContains(t, call.Fields, "negative_prompt")
}

func TestSubmit_DistinctNamesPerSeed(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{
		imageResponse("image/jpeg", "1", "SUCCESS", "a"),
		imageResponse("image/jpeg", "2", "SUCCESS", "b"),
	}}
	client, _, _ := newTestClient(t, doer)

	first, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "ultra", Prompt: "x", Seed: 1})
	require.NoError(t, err)
	second, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "ultra", Prompt: "x", Seed: 2})
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasSuffix(first.Path, "_1.jpeg"))
	assert.True(t, strings.HasSuffix(second.Path, "_2.jpeg"))
}

func TestSubmit_OutputName(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/webp", "7", "SUCCESS", "w")}}
	client, _, dir := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{
		Family:     FamilyGenerate,
		Variant:    "core",
		Prompt:     "x",
		OutputName: "hero.final.png",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hero.webp"), res.Path)
}

func TestSubmit_ReturnFlags(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "9", "SUCCESS", "bytes")}}
	client, _, _ := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{
		Family:         FamilyGenerate,
		Variant:        "core",
		Prompt:         "x",
		ReturnImage:    true,
		ReturnMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), res.Image)
	assert.Equal(t, &Metadata{Seed: "9", FinishReason: "SUCCESS"}, res.Metadata)
}

func TestSubmit_MissingHeadersTolerated(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{{status: http.StatusOK, body: "raw"}}}
	client, _, _ := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{
		Family:         FamilyGenerate,
		Variant:        "core",
		Prompt:         "x",
		ReturnMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jpeg", res.Format)
	assert.Equal(t, &Metadata{Seed: "0"}, res.Metadata)
	assert.True(t, strings.HasSuffix(res.Path, "_0.jpeg"))
}

func TestSubmit_TurboDropsNegativePrompt(t *testing.T) {
	tests := []struct {
		model        string
		wantNegative bool
	}{
		{SD3LargeTurbo, false},
		{SD3Large, true},
		{SD3Medium, true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "1", "SUCCESS", "x")}}
			client, _, _ := newTestClient(t, doer)

			req := &Request{Family: FamilyGenerate, Variant: "sd3", Prompt: "x", NegativePrompt: "blurry"}
			req.WithParam(ParamModel, tt.model).WithParam(ParamNegativePrompt, "blurry")

			_, err := client.Submit(context.Background(), req)
			require.NoError(t, err)

			fields := doer.Calls()[0].Fields
			_, has := fields[ParamNegativePrompt]
			assert.Equal(t, tt.wantNegative, has)
			assert.Equal(t, []string{tt.model}, fields[ParamModel])
			assert.Equal(t, []string{"text-to-image"}, fields[ParamMode])
		})
	}
}

func TestSubmit_DropsParamsOutsideRoute(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "1", "SUCCESS", "x")}}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyUpscale, Variant: "fast", Prompt: "ignored", Seed: 5}).
		WithFile(RoleImage, reader("img")).
		WithFile(RoleMask, reader("mask")).
		WithParam(ParamCreativity, 0.9).
		WithParam(ParamOutputFormat, "png")

	_, err := client.Submit(context.Background(), req)
	require.NoError(t, err)

	call := doer.Calls()[0]
	assert.Equal(t, map[string][]string{ParamOutputFormat: {"png"}}, call.Fields)
	assert.Contains(t, call.Files, RoleImage)
	assert.NotContains(t, call.Files, RoleMask)
}

func TestSubmit_DefaultsAndFixedValues(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "1", "SUCCESS", "x")}}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyEdit, Variant: "inpaint", Prompt: "sky"}).
		WithFile(RoleImage, reader("img")).
		WithFile(RoleMask, reader("mask")).
		WithParam(ParamMode, "search")

	_, err := client.Submit(context.Background(), req)
	require.NoError(t, err)

	call := doer.Calls()[0]
	assert.Equal(t, []string{"mask"}, call.Fields[ParamMode])
	assert.Equal(t, []byte("mask"), call.Files[RoleMask])
	assert.NotContains(t, call.Fields, placeholderField)

	doer = &stubDoer{posts: []stubResponse{imageResponse("image/png", "1", "SUCCESS", "x")}}
	client, _, _ = newTestClient(t, doer)
	req = (&Request{Family: FamilyUpscale, Variant: "conservative"}).WithFile(RoleImage, reader("img"))

	_, err = client.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.3"}, doer.Calls()[0].Fields[ParamCreativity])
}

func TestSubmit_RenamedFileFields(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "1", "SUCCESS", "x")}}
	client, _, _ := newTestClient(t, doer)

	dir := t.TempDir()
	stylePath := filepath.Join(dir, "style.png")
	require.NoError(t, os.WriteFile(stylePath, []byte("STYLE"), 0o600))

	req := (&Request{Family: FamilyControl, Variant: "style-transfer", Prompt: "x"}).
		WithFile(RoleImage, reader("INIT")).
		WithFile(RoleStyleImage, FromPath(stylePath)).
		WithParam("style_strength", 0.8)

	_, err := client.Submit(context.Background(), req)
	require.NoError(t, err)

	call := doer.Calls()[0]
	assert.Equal(t, []byte("INIT"), call.Files["init_image"])
	assert.Equal(t, []byte("STYLE"), call.Files[RoleStyleImage])
	assert.Equal(t, "style.png", call.Names[RoleStyleImage])
	assert.NotContains(t, call.Files, RoleImage)
	assert.Equal(t, []string{"0.8"}, call.Fields["style_strength"])
}

func TestSubmit_AsyncPollsUntilDone(t *testing.T) {
	doer := &stubDoer{
		posts: []stubResponse{jobResponse("job-1")},
		gets:  []stubResponse{pending, pending, pending, imageResponse("image/png", "11", "SUCCESS", "DONE")},
	}
	client, clk, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyEdit, Variant: "replace-background-and-relight"}).
		WithFile(RoleImage, reader("subject")).
		WithFile(RoleLightReference, reader("light")).
		WithParam("background_prompt", "a neon alley")

	res, err := client.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, doer.Count(http.MethodPost))
	assert.Equal(t, 4, doer.Count(http.MethodGet))
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second, 10 * time.Second}, clk.Waits())
	assert.Equal(t, "png", res.Format)

	calls := doer.Calls()
	assert.Equal(t, "application/json", calls[0].Accept)
	assert.Equal(t, []byte("subject"), calls[0].Files["subject_image"])
	assert.Equal(t, []byte("light"), calls[0].Files[RoleLightReference])
	for _, c := range calls[1:] {
		assert.Equal(t, "/v2beta/results/job-1", c.Path)
		assert.Equal(t, "*/*", c.Accept)
		assert.Equal(t, "Bearer sk-test", c.Auth)
	}
}

func TestSubmit_AsyncTimesOut(t *testing.T) {
	doer := &stubDoer{
		posts: []stubResponse{jobResponse("job-slow")},
		gets:  []stubResponse{pending},
	}
	client, clk, _ := newTestClient(t, doer)
	client.cfg.PollTimeout = 30 * time.Second

	req := (&Request{Family: FamilyUpscale, Variant: "creative", Prompt: "x"}).WithFile(RoleImage, reader("img"))

	_, err := client.Submit(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrTimedOut)
	assert.NotErrorIs(t, err, apperrors.ErrTransport)
	assert.Equal(t, 4, doer.Count(http.MethodGet))
	assert.Equal(t, testNow.Add(40*time.Second), clk.Now())
}

func TestSubmit_AsyncDefaultTimeoutIsBounded(t *testing.T) {
	doer := &stubDoer{
		posts: []stubResponse{jobResponse("job-slow")},
		gets:  []stubResponse{pending},
	}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyUpscale, Variant: "creative"}).WithFile(RoleImage, reader("img"))

	_, err := client.Submit(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrTimedOut)
	assert.Equal(t, 51, doer.Count(http.MethodGet))
}

func TestSubmit_AsyncHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doer := &stubDoer{
		posts: []stubResponse{jobResponse("job-1")},
		gets:  []stubResponse{pending},
		onGet: func(int) { cancel() },
	}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyUpscale, Variant: "creative"}).WithFile(RoleImage, reader("img"))

	_, err := client.Submit(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, doer.Count(http.MethodGet))
}

func TestSubmit_ContentFiltered(t *testing.T) {
	t.Run("sync", func(t *testing.T) {
		doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "3", "CONTENT_FILTERED", "blurred")}}
		client, _, dir := newTestClient(t, doer)

		res, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x"})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrContentFiltered)
		assert.True(t, apperrors.IsFiltered(err))

		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})

	t.Run("async", func(t *testing.T) {
		doer := &stubDoer{
			posts: []stubResponse{jobResponse("job-f")},
			gets:  []stubResponse{pending, imageResponse("image/png", "3", "CONTENT_FILTERED", "blurred")},
		}
		client, _, _ := newTestClient(t, doer)

		req := (&Request{Family: FamilyUpscale, Variant: "creative"}).WithFile(RoleImage, reader("img"))
		_, err := client.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrContentFiltered)
	})
}

func TestSubmit_TransportErrors(t *testing.T) {
	t.Run("sync non-2xx", func(t *testing.T) {
		doer := &stubDoer{posts: []stubResponse{{status: http.StatusBadRequest, body: `{"errors":["prompt too long"]}`}}}
		client, _, _ := newTestClient(t, doer)

		_, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "core", Prompt: "x"})
		require.ErrorIs(t, err, apperrors.ErrTransport)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Contains(t, appErr.Body, "prompt too long")
	})

	t.Run("poll non-2xx", func(t *testing.T) {
		doer := &stubDoer{
			posts: []stubResponse{jobResponse("job-x")},
			gets:  []stubResponse{pending, {status: http.StatusNotFound, body: "gone"}},
		}
		client, _, _ := newTestClient(t, doer)

		req := (&Request{Family: FamilyUpscale, Variant: "creative"}).WithFile(RoleImage, reader("img"))
		_, err := client.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrTransport)
		assert.Equal(t, 2, doer.Count(http.MethodGet))
	})
}

func TestSubmit_MissingJobID(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{{status: http.StatusOK, body: `{"name":"x"}`}}}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyUpscale, Variant: "creative"}).WithFile(RoleImage, reader("img"))
	_, err := client.Submit(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	assert.Equal(t, 0, doer.Count(http.MethodGet))
}

func TestSubmit_JSONTerminalResponse(t *testing.T) {
	doer := &stubDoer{
		posts: []stubResponse{jobResponse("job-j")},
		gets: []stubResponse{{
			status: http.StatusOK,
			header: map[string]string{"Content-Type": "application/json; charset=utf-8"},
			body:   `{"image":"SU1H","finish_reason":"SUCCESS","seed":77}`,
		}},
	}
	client, _, _ := newTestClient(t, doer)

	req := (&Request{Family: FamilyUpscale, Variant: "creative", ReturnImage: true, ReturnMetadata: true}).
		WithFile(RoleImage, reader("img"))
	res, err := client.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []byte("IMG"), res.Image)
	assert.Equal(t, "77", res.Metadata.Seed)
	assert.Equal(t, "jpeg", res.Format)
}

func TestFormatOf(t *testing.T) {
	tests := map[string]string{
		"":                         "jpeg",
		"image/png":                "png",
		"image/webp; charset=bin":  "webp",
		"garbage":                  "jpeg",
		"application/octet-stream": "octet-stream",
		"IMAGE/PNG":                "png",
		"image/../../../escaped":   "jpeg",
		"image/png/../x":           "png",
		"image/..":                 "jpeg",
		"image/p n g":              "jpeg",
		"image/":                   "jpeg",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatOf(in), in)
	}
}

func TestSubmit_ContentTypeCannotEscapeOutputDir(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/../../../escaped", "5", "SUCCESS", "IMG")}}
	client, _, dir := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "core", Prompt: "a lantern"})
	require.NoError(t, err)

	assert.Equal(t, "jpeg", res.Format)
	assert.Equal(t, dir, filepath.Dir(res.Path))
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("IMG"), data)
}

func TestSubmit_NonNumericSeedIgnored(t *testing.T) {
	doer := &stubDoer{posts: []stubResponse{imageResponse("image/png", "../../x", "SUCCESS", "IMG")}}
	client, _, dir := newTestClient(t, doer)

	res, err := client.Submit(context.Background(), &Request{Family: FamilyGenerate, Variant: "core", Prompt: "a lantern", ReturnMetadata: true})
	require.NoError(t, err)

	assert.Equal(t, "0", res.Metadata.Seed)
	assert.Equal(t, dir, filepath.Dir(res.Path))
	assert.True(t, strings.HasSuffix(res.Path, "_0.png"), res.Path)
}
