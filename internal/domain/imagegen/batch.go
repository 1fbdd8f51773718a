package imagegen

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	factionStylePreset    = "fantasy-art"
	blockNexusStyle       = "digital-art"
	defaultFactionVariant = "ultra"
)

// BatchItem is one named request of a batch.
type BatchItem struct {
	Key     string
	Request *Request
}

// BatchOutcome is the result of one batch item. Exactly one of Result and Err is set.
type BatchOutcome struct {
	Key    string
	Result *Result
	Err    error
}

// Batch composes named sets of requests over a Submitter.
type Batch struct {
	submitter     Submitter
	factions      Factions
	maxConcurrent int
	logger        *zap.Logger
}

// NewBatch creates a batch runner. maxConcurrent below 2 runs items sequentially.
func NewBatch(s Submitter, factions Factions, maxConcurrent int, logger *zap.Logger) *Batch {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		submitter:     s,
		factions:      factions,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("batch"),
	}
}

// RunAll submits every item. One failure never stops the others. Outcomes keep the
// order of items.
func (b *Batch) RunAll(ctx context.Context, items []BatchItem) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(items))

	g := new(errgroup.Group)
	g.SetLimit(b.maxConcurrent)
	for i, item := range items {
		g.Go(func() error {
			out := BatchOutcome{Key: item.Key}
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				out.Result, out.Err = b.submitter.Submit(ctx, item.Request)
			}
			if out.Err != nil {
				b.logger.Error("Batch item failed",
					zap.String("key", item.Key),
					zap.Error(out.Err),
				)
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// FactionRequest builds the request for one faction image.
func (b *Batch) FactionRequest(factionName string, imageType FactionImageType, variant string) (*Request, error) {
	faction, err := b.factions.Find(factionName)
	if err != nil {
		return nil, err
	}
	prompt, aspect, err := FactionPrompt(faction, imageType)
	if err != nil {
		return nil, err
	}
	if variant == "" {
		variant = defaultFactionVariant
	}
	req := &Request{
		Family:     FamilyGenerate,
		Variant:    variant,
		Prompt:     prompt,
		OutputName: fmt.Sprintf("faction_%s_%s", faction.Slug(), imageType),
	}
	req.WithParam(ParamAspectRatio, aspect).WithParam(ParamStylePreset, factionStylePreset)
	return req, nil
}

// GenerateFactionImage generates one themed image for a faction.
func (b *Batch) GenerateFactionImage(ctx context.Context, factionName string, imageType FactionImageType, variant string) (*Result, error) {
	req, err := b.FactionRequest(factionName, imageType, variant)
	if err != nil {
		return nil, err
	}
	b.logger.Info("Generating faction image",
		zap.String("faction", factionName),
		zap.String("type", string(imageType)),
	)
	return b.submitter.Submit(ctx, req)
}

// GenerateFactionImages generates several image types for a faction.
func (b *Batch) GenerateFactionImages(ctx context.Context, factionName string, types []FactionImageType, variant string) []BatchOutcome {
	if len(types) == 0 {
		types = DefaultFactionImageTypes
	}
	var (
		items    []BatchItem
		outcomes []BatchOutcome
	)
	for _, t := range types {
		req, err := b.FactionRequest(factionName, t, variant)
		if err != nil {
			outcomes = append(outcomes, BatchOutcome{Key: string(t), Err: err})
			continue
		}
		items = append(items, BatchItem{Key: string(t), Request: req})
	}
	return append(outcomes, b.RunAll(ctx, items)...)
}

// BlockNexusItems returns the fixed request set for the Block-Nexus page.
func BlockNexusItems() []BatchItem {
	item := func(key, variant, prompt, aspect string) BatchItem {
		req := &Request{
			Family:     FamilyGenerate,
			Variant:    variant,
			Prompt:     prompt,
			OutputName: "block_nexus_" + key,
		}
		req.WithParam(ParamAspectRatio, aspect).WithParam(ParamStylePreset, blockNexusStyle)
		return BatchItem{Key: key, Request: req}
	}

	header := item("header", "sd3",
		"Abstract digital representation of blockchain networks interconnected as a nexus, with glowing nodes and pathways representing different cryptocurrencies, dark tech background, high contrast.",
		"21:9")
	header.Request.WithParam(ParamModel, SD3Large)

	return []BatchItem{
		header,
		item("ethereum", "core",
			"Abstract representation of Ethereum blockchain, featuring the classic Ethereum diamond logo, blue-purple color scheme, network connections, nodes and blocks flowing in digital space.",
			"16:9"),
		item("xrp", "core",
			"Abstract representation of XRP Ledger blockchain, featuring ripple wave patterns, blue-white-black color scheme, hexagonal nodes and connections flowing in digital space.",
			"16:9"),
		item("cardano", "core",
			"Abstract representation of Cardano blockchain, featuring Cardano's symbols, blue and green tones, mathematical patterns, scientific notation, and proof of stake concepts.",
			"16:9"),
	}
}

// GenerateBlockNexus generates the Block-Nexus page images.
func (b *Batch) GenerateBlockNexus(ctx context.Context) []BatchOutcome {
	b.logger.Info("Generating images for Block-Nexus page")
	return b.RunAll(ctx, BlockNexusItems())
}
