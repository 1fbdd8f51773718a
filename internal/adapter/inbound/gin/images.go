package gin

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
	"github.com/elidorascodex/tecflow/internal/port/inbound"
	"github.com/elidorascodex/tecflow/internal/shared/response"
)

// Form fields mapped onto Request fields rather than passed through as params.
var requestFields = map[string]bool{
	"prompt":          true,
	"negative_prompt": true,
	"seed":            true,
	"output_format":   true,
	"output_name":     true,
	"upload":          true,
}

// imageHandler implements inbound.ImageHttpPort.
type imageHandler struct {
	images inbound.ImageDomain
}

// NewImageHandler creates a new image generation HTTP handler.
func NewImageHandler(images inbound.ImageDomain) inbound.ImageHttpPort {
	return &imageHandler{images: images}
}

func (h *imageHandler) Generate(c *gin.Context) {
	req := &imagegen.Request{
		Family:         imagegen.Family(c.Param("family")),
		Variant:        c.Param("variant"),
		ReturnMetadata: true,
	}

	form, err := c.MultipartForm()
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := c.Request.ParseForm(); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		form = &multipart.Form{Value: c.Request.PostForm}
	case err != nil:
		response.BadRequest(c, "invalid multipart form: "+err.Error())
		return
	}

	if err := applyFormValues(req, form.Value); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	for role, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "open "+role+": "+err.Error())
			return
		}
		defer f.Close()
		req.WithFile(role, imagegen.FromReader(fh.Filename, f))
	}

	res, err := h.images.Submit(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, inbound.ImageOutput{
		Path:      res.Path,
		Format:    res.Format,
		Size:      res.Size,
		ObjectKey: res.ObjectKey,
		Metadata:  res.Metadata,
	})
}

func (h *imageHandler) ListVariants(c *gin.Context) {
	out := make(map[imagegen.Family][]string, len(imagegen.Families))
	for _, f := range imagegen.Families {
		out[f] = imagegen.Variants(f)
	}
	c.JSON(http.StatusOK, out)
}

// applyFormValues copies form values into req. Unrecognised fields become params; the
// route decides which of them are sent.
func applyFormValues(req *imagegen.Request, values map[string][]string) error {
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := strings.TrimSpace(vals[0])
		if !requestFields[key] {
			req.WithParam(key, v)
			continue
		}
		switch key {
		case "prompt":
			req.Prompt = v
		case "negative_prompt":
			req.NegativePrompt = v
		case "output_format":
			req.OutputFormat = v
		case "output_name":
			req.OutputName = v
		case "seed":
			if v == "" {
				continue
			}
			seed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errors.New("seed must be an integer")
			}
			req.Seed = seed
		case "upload":
			upload, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New("upload must be a boolean")
			}
			req.Upload = upload
		}
	}
	return nil
}
