package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

const DefaultExtractTemplate = "{channel}_{timestep:06d}.{ext}"

var (
	DefaultExtractFormats = []string{"vtpd", "vti"}

	cyclePlaceholder = regexp.MustCompile(`\{(?:timestep|cycle)(?::0?(\d+)d)?\}`)
)

// ExtractionRule persists one channel on a fixed cadence.
type ExtractionRule struct {
	Name         string
	Channel      string
	Frequency    int
	PathTemplate string
	Formats      []string

	input    ports.Producer
	schedule *schedule
}

// Input is the producer the rule will write from.
func (r *ExtractionRule) Input() ports.Producer { return r.input }

// Path renders the output file name for cycle and format, relative to dir.
func (r *ExtractionRule) Path(dir string, cycle int64, format string) string {
	return filepath.Join(dir, RenderTemplate(r.PathTemplate, r.Channel, cycle, format))
}

// RenderTemplate expands {channel}, {ext} and {timestep[:0Nd]} (or {cycle...}).
func RenderTemplate(tmpl, channel string, cycle int64, ext string) string {
	out := cyclePlaceholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := cyclePlaceholder.FindStringSubmatch(m)
		if sub[1] == "" {
			return strconv.FormatInt(cycle, 10)
		}
		width, err := strconv.Atoi(sub[1])
		if err != nil {
			return strconv.FormatInt(cycle, 10)
		}
		return fmt.Sprintf("%0*d", width, cycle)
	})
	return strings.NewReplacer("{channel}", channel, "{ext}", ext).Replace(out)
}

// Extraction owns the per-channel extraction rules.
type Extraction struct {
	opts    ports.RunOptions
	writer  ports.Writer
	catalog ports.Catalog
	obs     ports.Observability
	rules   map[string]*ExtractionRule
}

// NewExtraction binds rules (owned by the caller) to writer. catalog may be nil.
func NewExtraction(opts ports.RunOptions, writer ports.Writer, catalog ports.Catalog, obs ports.Observability, rules map[string]*ExtractionRule) *Extraction {
	if rules == nil {
		rules = make(map[string]*ExtractionRule)
	}
	return &Extraction{opts: opts, writer: writer, catalog: catalog, obs: obs, rules: rules}
}

// Attach builds a rule for ch bound to the channel's producer as of now.
func (e *Extraction) Attach(ch *Channel, frequency int, template string) (*ExtractionRule, error) {
	if !e.opts.ExtractsEnabled {
		return nil, ErrExtractionDisabled
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: nil channel", ErrConfiguration)
	}
	if frequency <= 0 {
		return nil, fmt.Errorf("%w: extract frequency %d for %q", ErrConfiguration, frequency, ch.Name)
	}
	if template == "" {
		template = DefaultExtractTemplate
	}
	if !cyclePlaceholder.MatchString(template) {
		return nil, fmt.Errorf("%w: extract template %q has no cycle placeholder", ErrConfiguration, template)
	}
	if _, ok := e.rules[ch.Name]; ok {
		return nil, fmt.Errorf("%w: extraction for %q", ErrDuplicateChannel, ch.Name)
	}
	formats := e.opts.ExtractFormats
	if len(formats) == 0 {
		formats = DefaultExtractFormats
	}

	rule := &ExtractionRule{
		Name:         "VTPD_" + ch.Name,
		Channel:      ch.Name,
		Frequency:    frequency,
		PathTemplate: template,
		Formats:      append([]string(nil), formats...),
		input:        ch.Producer(),
		schedule:     newSchedule(scaleTrigger(e.opts.GlobalTrigger, frequency)),
	}
	e.rules[ch.Name] = rule
	ch.Extract = true
	e.obs.LogInfo("extractor_attached",
		ports.Field{Key: "channel", Value: ch.Name},
		ports.Field{Key: "rule", Value: rule.Name},
		ports.Field{Key: "frequency", Value: frequency})
	return rule, nil
}

func (e *Extraction) Rule(channel string) (*ExtractionRule, bool) {
	r, ok := e.rules[channel]
	return r, ok
}

// Refresh re-points the rule at the channel's current producer when the
// transport replaced it. It reports whether the input changed.
func (e *Extraction) Refresh(ch *Channel) bool {
	rule, ok := e.rules[ch.Name]
	if !ok {
		return false
	}
	current := ch.Producer()
	if rule.input == current {
		return false
	}
	rule.input = current
	return true
}

// Fire writes the rule's input if the trigger is due on info. Write failures
// are returned for the caller to log; nothing here aborts the run.
func (e *Extraction) Fire(ctx context.Context, ch *Channel, info domain.ExecInfo) (bool, error) {
	rule, ok := e.rules[ch.Name]
	if !ok {
		return false, nil
	}
	if e.Refresh(ch) {
		e.obs.LogInfo("extractor_rebound",
			ports.Field{Key: "channel", Value: ch.Name},
			ports.Field{Key: "cycle", Value: info.Cycle})
	}
	if !rule.schedule.due(info) {
		return false, nil
	}
	rule.schedule.mark(info)

	if ports.EmptyProducer(rule.input) {
		return false, channelErr(ch.Name, info.Cycle, "extract", fmt.Errorf("%w: input is empty", ErrExtractionWrite))
	}

	var errs []error
	for _, format := range rule.Formats {
		path := rule.Path(e.opts.ExtractsDir, info.Cycle, format)
		start := time.Now()
		if err := e.writer.Write(ctx, rule.input, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}
		e.obs.ObserveLatency(MetricExtractWriteLatency, time.Since(start).Seconds())
		e.obs.IncCounter(MetricExtractsWritten, 1)
		e.recordCatalog(ctx, domain.ExtractRecord{
			Channel:   ch.Name,
			Rule:      rule.Name,
			Cycle:     info.Cycle,
			Time:      info.Time,
			Path:      path,
			Format:    format,
			WrittenAt: time.Now().UTC(),
		})
		return true, nil
	}

	e.obs.IncCounter(MetricExtractFailures, 1)
	return false, channelErr(ch.Name, info.Cycle, "extract",
		fmt.Errorf("%w: %w", ErrExtractionWrite, errors.Join(errs...)))
}

func (e *Extraction) recordCatalog(ctx context.Context, rec domain.ExtractRecord) {
	if e.catalog == nil {
		return
	}
	if err := e.catalog.Record(ctx, rec); err != nil {
		e.obs.LogError("catalog_record_failed", err,
			ports.Field{Key: "channel", Value: rec.Channel},
			ports.Field{Key: "cycle", Value: rec.Cycle},
			ports.Field{Key: "catalog", Value: e.catalog.Name()})
	}
}
