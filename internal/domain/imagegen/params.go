package imagegen

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

type field struct {
	name  string
	value string
}

// validate checks req against the route without touching the network or the filesystem.
func (r *Route) validate(req *Request) error {
	for _, role := range r.RequiredFiles {
		in, ok := req.Files[role]
		if !ok || in.empty() {
			return apperrors.Validation("%s/%s requires input file %q", r.Family, r.Variant, role)
		}
	}
	if req.Seed < 0 || req.Seed > MaxSeed {
		return apperrors.Validation("seed must be between 0 and %d, got %d", MaxSeed, req.Seed)
	}
	name := strings.TrimSpace(req.OutputName)
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return apperrors.Validation("output name %q must be a bare file name", req.OutputName)
	}
	for key, v := range req.Params {
		if _, err := scalar(v); err != nil {
			return apperrors.Validation("param %s: %v", key, err)
		}
	}
	return nil
}

// buildParams assembles the form fields for req. Parameters the route does not accept are
// dropped, defaults fill gaps and fixed values win. Fields are sorted by name.
func (r *Route) buildParams(req *Request, logger *zap.Logger) ([]field, error) {
	params := make(map[string]string)

	for key, v := range req.Params {
		if !r.allows(key) {
			logger.Debug("dropping parameter not accepted by route",
				zap.String("route", r.Path()),
				zap.String("param", key),
			)
			continue
		}
		s, _ := scalar(v)
		if s != "" {
			params[key] = s
		}
	}

	first := map[string]string{
		ParamPrompt:         req.Prompt,
		ParamNegativePrompt: req.NegativePrompt,
		ParamOutputFormat:   strings.ToLower(req.OutputFormat),
	}
	if r.allows(ParamSeed) {
		first[ParamSeed] = strconv.FormatInt(req.Seed, 10)
	}
	for key, v := range first {
		if v != "" && r.allows(key) {
			params[key] = v
		}
	}

	for key, v := range r.Defaults {
		if _, ok := params[key]; !ok {
			params[key] = v
		}
	}
	if r.allows(ParamOutputFormat) {
		if _, ok := params[ParamOutputFormat]; !ok {
			params[ParamOutputFormat] = "jpeg"
		}
	}
	for key, v := range r.Fixed {
		params[key] = v
	}

	for _, key := range r.RequiredParams {
		if strings.TrimSpace(params[key]) == "" {
			return nil, apperrors.Validation("%s/%s requires %s", r.Family, r.Variant, key)
		}
	}
	for key, allowed := range r.Choices {
		if v, ok := params[key]; ok && !slices.Contains(allowed, v) {
			return nil, apperrors.Validation("%s must be one of %v, got %q", key, allowed, v)
		}
	}

	if r.adjust != nil {
		r.adjust(params)
	}

	fields := make([]field, 0, len(params))
	for key, v := range params {
		fields = append(fields, field{name: key, value: v})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	return fields, nil
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
