package cli

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/exporters"
	"github.com/samvad-hq/shiksha/pkg/portal"
)

var (
	confDomain    string
	confPaperType string
	confFormat    string
	confDirect    bool
)

var conferencesCmd = &cobra.Command{
	Use:   "conferences",
	Short: "Find conferences accepting papers in a domain",
	Long: `Find conferences through the AI backend, or scrape EasyChair directly with --direct.

Examples:
  shiksha conferences --domain "machine learning" --paper-type research --format IEEE
  shiksha conferences --domain security --direct`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := portal.ConferenceQuery{Domain: confDomain, PaperType: confPaperType, Format: confFormat}

		var (
			confs []domain.Conference
			err   error
		)
		if confDirect {
			confs, err = rt.Scraper().Search(cmd.Context(), confDomain)
		} else {
			confs, err = rt.Service().SearchConferences(cmd.Context(), q)
		}
		if err != nil {
			return err
		}
		if confs == nil {
			confs = []domain.Conference{}
		}
		if err := writeJSON(cmd.OutOrStdout(), confs); err != nil {
			return err
		}
		export(cmd, exporters.KindConferences, q, confs)
		return nil
	},
}

func init() {
	conferencesCmd.Flags().StringVar(&confDomain, "domain", "", "Research domain to match against conference topics")
	conferencesCmd.Flags().StringVar(&confPaperType, "paper-type", "", "Paper type, e.g. research")
	conferencesCmd.Flags().StringVar(&confFormat, "format", "", "Paper format, e.g. IEEE")
	conferencesCmd.Flags().BoolVar(&confDirect, "direct", false, "Scrape EasyChair directly instead of asking the backend")
	rootCmd.AddCommand(conferencesCmd)
}
