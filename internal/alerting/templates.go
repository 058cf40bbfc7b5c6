package alerting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Template names recognised by the composer.
const (
	TplTier1Header  = "tier_1_header"
	TplTier2Header  = "tier_2_header"
	TplTickerBox    = "ticker_box"
	TplTickerFooter = "ticker_footer"
	TplExchangeLine = "exchange_line"
	TplNoData       = "no_data_message"
	TplStartup      = "startup_message"
	TplStats        = "stats_message"
)

// DefaultTemplates are written to the template file on first start and
// restored by Reset. Operators edit the file (or use the templates command) to
// change alert formatting without touching code.
var DefaultTemplates = map[string]string{
	TplTier1Header: "🔥 FUNDING RATES >= {threshold}% 🔥",
	TplTier2Header: "🚨 EXTREME FUNDING RATES >= {threshold}% 🚨",
	TplTickerBox: "╔══════════════════════════════════╗\n" +
		" 🪙 {ticker}/USDT",
	TplTickerFooter: "╚═════════════════════════════════╝",
	TplExchangeLine: "📈 {exchange} {ticker}/USDT = {sign}{rate}% ({cycle}, ⏰ {payout})",
	TplNoData:       "✅ No funding rates to report.",
	TplStartup: "🚀 Funding monitor started\n" +
		"📊 Tier 1: >= {tier1}%\n" +
		"📊 Tier 2: >= {tier2}%\n" +
		"⏰ Collection: {interval}",
	TplStats: "📊 Collection stats:\n" +
		"🔍 {total} tickers above {threshold}%\n" +
		"📊 Tier 1 (>= {tier1}%): {count1} tickers\n" +
		"📊 Tier 2 (>= {tier2}%): {count2} tickers",
}

var placeholderRe = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// TemplateManager owns the named message templates, backed by a JSON file
// mapping name to format string. The file is created with defaults when
// missing and rewritten in full on every edit.
type TemplateManager struct {
	path   string
	logger zerolog.Logger

	mu        sync.RWMutex
	templates map[string]string
}

// NewTemplateManager loads templates from path, falling back to (and
// persisting) the built-in defaults when the file is missing or unreadable.
func NewTemplateManager(path string, logger zerolog.Logger) *TemplateManager {
	m := &TemplateManager{
		path:   path,
		logger: logger.With().Str("component", "templates").Logger(),
	}
	m.templates = m.load()
	return m
}

func (m *TemplateManager) load() map[string]string {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", m.path).Msg("failed to read template file, using defaults")
			return cloneTemplates(DefaultTemplates)
		}
		defaults := cloneTemplates(DefaultTemplates)
		if err := m.persist(defaults); err != nil {
			m.logger.Warn().Err(err).Str("path", m.path).Msg("failed to create template file")
		}
		return defaults
	}

	var loaded map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.logger.Warn().Err(err).Str("path", m.path).Msg("template file is not valid JSON, using defaults")
		return cloneTemplates(DefaultTemplates)
	}
	return loaded
}

// Get returns the raw template string, empty when unknown.
func (m *TemplateManager) Get(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templates[name]
}

// Format substitutes {name} placeholders. When the template references a
// placeholder with no value the raw template is returned unformatted and the
// problem is logged; formatting never fails the caller.
func (m *TemplateManager) Format(name string, vars map[string]string) string {
	tpl := m.Get(name)
	if tpl == "" {
		return ""
	}

	missing := ""
	formatted := placeholderRe.ReplaceAllStringFunc(tpl, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := vars[key]
		if !ok {
			missing = key
			return match
		}
		return value
	})
	if missing != "" {
		m.logger.Warn().Str("template", name).Str("placeholder", missing).Msg("template placeholder has no value")
		return tpl
	}
	return formatted
}

// List returns known template names, sorted.
func (m *TemplateManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update replaces one template's content and rewrites the file.
func (m *TemplateManager) Update(name, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[name]; !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	m.templates[name] = content
	return m.persist(m.templates)
}

// Reset restores every template to its built-in default.
func (m *TemplateManager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates = cloneTemplates(DefaultTemplates)
	return m.persist(m.templates)
}

func (m *TemplateManager) persist(templates map[string]string) error {
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

func cloneTemplates(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
