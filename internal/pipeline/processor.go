package pipeline

import (
	"context"
	"log/slog"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/oracle"
)

// Processor runs the full standardization pipeline for one catalog. Stages
// execute strictly in sequence; the oracle client it holds handles caching
// and retries, so the processor itself is synchronous and stateless between
// runs.
type Processor struct {
	client *oracle.Client
	log    *slog.Logger
}

func NewProcessor(client *oracle.Client, log *slog.Logger) *Processor {
	return &Processor{client: client, log: log}
}

// Outcome is the three-part result every processing run produces, plus the
// intermediate inference output for review surfaces.
type Outcome struct {
	Records    []Record      `json:"records"`
	Report     *Report       `json:"validation"`
	Mapping    *FieldMapping `json:"field_mapping"`
	Structure  *Structure    `json:"structure"`
	Categories *CategoryInfo `json:"categories"`
}

// ProcessCatalog extracts the file at path and standardizes it. Only
// extraction failures (unsupported format, unparsable file) are returned as
// errors; inference and validation degradation is reported in the Outcome.
func (p *Processor) ProcessCatalog(ctx context.Context, path string) (*Outcome, error) {
	res, err := extract.ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.ProcessGrid(ctx, res), nil
}

// ProcessGrid runs stages 3–7 over an already-extracted grid. It never
// fails: an empty grid yields an empty outcome and oracle degradation falls
// back to deterministic inference.
func (p *Processor) ProcessGrid(ctx context.Context, res *extract.Result) *Outcome {
	st := InferStructure(ctx, p.client, res, p.log)

	if len(res.Rows) == 0 {
		return &Outcome{
			Records:    []Record{},
			Report:     &Report{Errors: []Issue{}, Warnings: []Issue{}},
			Mapping:    &FieldMapping{Columns: make(map[string]ColumnMapping)},
			Structure:  st,
			Categories: &CategoryInfo{},
		}
	}

	// Field mapping and category prompts sample actual data rows, not
	// headers or section markers.
	dataIdx := DataRows(res.Rows, st)
	dataVals := make([][]string, len(dataIdx))
	for i, idx := range dataIdx {
		dataVals[i] = res.Rows[idx]
	}
	sample := SampleRows(dataVals, 5)

	fm := MapFields(ctx, p.client, res.Headers, sample, p.log)

	manufacturer := ""
	if fm.Manufacturer != nil {
		manufacturer = fm.Manufacturer.Name
	}
	ci := ExtractCategories(ctx, p.client, res.Rows, st, manufacturer, p.log)

	norm := NewNormalizer(p.log)
	records := Assemble(res.Rows, st, fm, ci, norm)
	report := Validate(records)
	kept := Filter(records, report)

	p.log.Info("catalog processed",
		"file", res.Meta.FileName,
		"rows", len(res.Rows),
		"records", len(records),
		"valid", report.ValidCount,
		"invalid", report.InvalidCount,
	)

	return &Outcome{
		Records:    kept,
		Report:     report,
		Mapping:    fm,
		Structure:  st,
		Categories: ci,
	}
}
