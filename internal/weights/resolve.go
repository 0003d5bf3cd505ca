package weights

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/snow-rank/internal/domain"
)

// ForceInteractiveEnv forces interactive prompting even without a terminal.
const ForceInteractiveEnv = "WEIGHTS_INTERACTIVE"

// Asker blocks until the user answers a prompt. An empty answer means "keep the
// default" for weights and "no" for yes/no questions. An error (closed input) ends
// elicitation.
type Asker interface {
	AskText(prompt string) (string, error)
}

// Notifier is implemented by askers that can show informational lines between prompts.
type Notifier interface {
	Notify(msg string)
}

// Source names the layer that last set a metric's weight.
type Source string

const (
	SourceDefault Source = "default"
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
	SourcePreset  Source = "preset"
	SourceManual  Source = "manual"
)

// Options carries the per-run inputs to Resolve.
type Options struct {
	// Overrides holds raw command-line values keyed by metric.
	Overrides map[domain.MetricKey]string
	// Preset selects a preset by number, name or alias without prompting.
	Preset string
	// Terminal reports whether an interactive terminal is attached.
	Terminal bool
	// Force enables prompting without a terminal.
	Force bool
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Weights     WeightMap
	Sources     map[domain.MetricKey]Source
	Preset      string
	Interactive bool
	Rejected    int // env or command-line values ignored as invalid
	Passes      int // manual-entry passes, including the converged one
}

// Resolver merges the weight layers.
type Resolver struct {
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
	asker     Asker
}

// NewResolver creates a Resolver reading the process environment. Pass a nil asker to
// disable prompting entirely.
func NewResolver(asker Asker, logger *slog.Logger) *Resolver {
	return &Resolver{
		logger:    logger,
		lookupEnv: os.LookupEnv,
		asker:     asker,
	}
}

// WithEnv replaces the environment lookup, for tests and per-request resolution.
func (r *Resolver) WithEnv(lookup func(string) (string, bool)) *Resolver {
	r.lookupEnv = lookup
	return r
}

// Resolve applies every layer and returns weights that sum to 100.
func (r *Resolver) Resolve(opts Options) Resolution {
	res := Resolution{
		Weights: Defaults(),
		Sources: make(map[domain.MetricKey]Source, 5),
	}
	for _, m := range domain.Metrics() {
		res.Sources[m.Key] = SourceDefault
	}

	env := make(map[domain.MetricKey]string)
	for _, m := range domain.Metrics() {
		if v, ok := r.lookupEnv(m.EnvKey); ok && strings.TrimSpace(v) != "" {
			env[m.Key] = v
		}
	}
	r.applyOverrides(&res, SourceEnv, env)
	r.applyOverrides(&res, SourceCLI, opts.Overrides)

	if opts.Preset != "" {
		if p, ok := MatchPreset(opts.Preset); ok {
			r.applyPreset(&res, p)
		} else {
			r.logger.Warn("unknown weight preset, ignoring", "preset", opts.Preset)
		}
	}

	res.Interactive = r.asker != nil && (opts.Terminal || opts.Force || r.forcedByEnv())
	if res.Interactive {
		if err := r.elicit(&res); err != nil {
			r.logger.Warn("interactive weight entry ended early", "error", err)
		}
	}

	res.Weights = Normalize(res.Weights, r.logger)
	return res
}

func (r *Resolver) applyOverrides(res *Resolution, src Source, values map[domain.MetricKey]string) {
	for _, m := range domain.Metrics() {
		raw, ok := values[m.Key]
		if !ok {
			continue
		}
		v, err := ParseValue(raw)
		if err != nil {
			res.Rejected++
			r.logger.Warn("ignoring invalid weight override",
				"metric", string(m.Key),
				"source", string(src),
				"value", raw,
				"error", err,
			)
			continue
		}
		res.Weights[m.Key] = v
		res.Sources[m.Key] = src
	}
}

func (r *Resolver) applyPreset(res *Resolution, p Preset) {
	for k, v := range p.Weights {
		res.Weights[k] = v
		res.Sources[k] = SourcePreset
	}
	res.Preset = p.Name
}

func (r *Resolver) forcedByEnv() bool {
	raw, ok := r.lookupEnv(ForceInteractiveEnv)
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}
	v, err := ParseBool(raw)
	if err != nil {
		r.logger.Warn("ignoring invalid boolean", "key", ForceInteractiveEnv, "value", raw)
		return false
	}
	return v
}

// elicit runs the preset menu and the manual-entry loop. Weights in res are only
// replaced by a completed step.
func (r *Resolver) elicit(res *Resolution) error {
	if res.Preset == "" {
		p, ok, err := r.askPreset()
		if err != nil {
			return err
		}
		if ok {
			r.applyPreset(res, p)
		}
	}

	r.notify("Current weights: " + describe(res.Weights))
	manual, err := r.askYesNo("Adjust weights manually? [y/N]: ")
	if err != nil || !manual {
		return err
	}

	w, passes, err := r.manualEntry(res.Weights)
	res.Passes = passes
	if err != nil {
		return err
	}
	for _, m := range domain.Metrics() {
		if w[m.Key] != res.Weights[m.Key] {
			res.Sources[m.Key] = SourceManual
		}
	}
	res.Weights = w
	return nil
}

func (r *Resolver) askPreset() (Preset, bool, error) {
	all := Presets()
	for i, p := range all {
		r.notify(fmt.Sprintf("  %d) %s: %s (%s)", i+1, p.Name, p.Summary, describe(p.Weights)))
	}
	for {
		answer, err := r.asker.AskText("Choose a preset [Enter to skip]: ")
		if err != nil {
			return Preset{}, false, err
		}
		if strings.TrimSpace(answer) == "" {
			return Preset{}, false, nil
		}
		if p, ok := MatchPreset(answer); ok {
			return p, true, nil
		}
		r.notify(fmt.Sprintf("Unknown preset %q.", strings.TrimSpace(answer)))
	}
}

func (r *Resolver) askYesNo(prompt string) (bool, error) {
	answer, err := r.asker.AskText(prompt)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(answer) == "" {
		return false, nil
	}
	v, err := ParseBool(answer)
	if err != nil {
		return false, nil
	}
	return v, nil
}

// manualEntry prompts once per metric and repeats the whole pass, starting again from
// start, until the entered weights sum to 100. There is no pass limit; only an Asker
// error ends the loop early.
func (r *Resolver) manualEntry(start WeightMap) (WeightMap, int, error) {
	for pass := 1; ; pass++ {
		w := start.Clone()
		for _, m := range domain.Metrics() {
			v, err := r.askWeight(m, w[m.Key])
			if err != nil {
				return nil, pass, err
			}
			w[m.Key] = v
		}
		if w.SumsToTotal() {
			return w, pass, nil
		}
		r.notify(fmt.Sprintf("Weights sum to %s, not 100. Starting over.", formatWeight(roundTo(w.Sum(), 6))))
	}
}

func (r *Resolver) askWeight(m domain.Metric, current float64) (float64, error) {
	prompt := fmt.Sprintf("%s weight (0-100) [%s]: ", m.Label, formatWeight(current))
	for {
		answer, err := r.asker.AskText(prompt)
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(answer) == "" {
			return current, nil
		}
		v, err := ParseValue(answer)
		if err == nil && v <= Total {
			return v, nil
		}
		r.notify("Enter a number between 0 and 100.")
	}
}

func (r *Resolver) notify(msg string) {
	if n, ok := r.asker.(Notifier); ok {
		n.Notify(msg)
	}
}

func describe(w WeightMap) string {
	parts := make([]string, 0, 5)
	for _, m := range domain.Metrics() {
		parts = append(parts, fmt.Sprintf("%s %s", m.Key, formatWeight(roundTo(w[m.Key], 2))))
	}
	return strings.Join(parts, ", ")
}
