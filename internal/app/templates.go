package app

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/storage"
)

// ListTemplates prints every template name with its current content.
func (a *App) ListTemplates() error {
	manager := a.newTemplates()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tContent")
	for _, name := range manager.List() {
		fmt.Fprintf(writer, "%s\t%s\n", name, manager.Get(name))
	}
	writer.Flush()
	return nil
}

// ShowTemplate prints one template body.
func (a *App) ShowTemplate(name string) error {
	manager := a.newTemplates()
	fmt.Fprintln(os.Stdout, manager.Get(name))
	return nil
}

// SetTemplate replaces one template and persists the file.
func (a *App) SetTemplate(name, content string) error {
	manager := a.newTemplates()
	if err := manager.Update(name, content); err != nil {
		return err
	}
	a.Logger.Info().Str("template", name).Msg("template updated")
	return nil
}

// ResetTemplates restores the built-in defaults.
func (a *App) ResetTemplates() error {
	manager := a.newTemplates()
	if err := manager.Reset(); err != nil {
		return err
	}
	a.Logger.Info().Msg("templates reset to defaults")
	return nil
}

// PreviewTemplates renders a sample alert with the current templates so edits
// can be checked without sending anything.
func (a *App) PreviewTemplates() error {
	composer := a.newComposer(a.newTemplates())

	rate1 := decimal.NewFromFloat(2.4131)
	rate2 := decimal.NewFromFloat(-1.0875)
	settle := time.Now().Add(95 * time.Minute).UnixMilli()
	cycle := 8

	sample := storage.FundingRecord{
		Ticker: "EXAMPLE",
		Quotes: map[string]storage.Quote{
			"binance": {Rate: &rate1, NextSettle: &settle, CycleHours: &cycle},
			"okx":     {Rate: &rate2, NextSettle: &settle, CycleHours: &cycle},
		},
		UpdatedAt: time.Now().UTC(),
	}

	tier1, tier2 := composer.BuildTierMessages([]storage.FundingRecord{sample})
	header1, header2 := composer.TierHeaders()

	fmt.Fprintln(os.Stdout, header1)
	for _, msg := range tier1 {
		fmt.Fprintln(os.Stdout, msg)
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, header2)
	for _, msg := range tier2 {
		fmt.Fprintln(os.Stdout, msg)
	}
	return nil
}
