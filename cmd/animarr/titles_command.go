package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

type cliTitle struct {
	ID           int64  `json:"id"`
	TitleRomaji  string `json:"title_romaji,omitempty"`
	TitleEnglish string `json:"title_english,omitempty"`
	Format       string `json:"format,omitempty"`
	Season       string `json:"season,omitempty"`
	SeasonYear   int    `json:"season_year,omitempty"`
	Popularity   int    `json:"popularity,omitempty"`
}

type cliTitleList struct {
	Titles []cliTitle `json:"titles"`
	Count  int        `json:"count"`
}

func newTitlesCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "List the synced catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			var list cliTitleList
			if err := client.get("/api/titles", &list); err != nil {
				return err
			}

			rows := make([][]string, 0, len(list.Titles))
			for _, title := range list.Titles {
				name := title.TitleRomaji
				if name == "" {
					name = title.TitleEnglish
				}
				rows = append(rows, []string{
					strconv.FormatInt(title.ID, 10),
					truncate(name, 50),
					title.Format,
					title.Season + " " + strconv.Itoa(title.SeasonYear),
					strconv.Itoa(title.Popularity),
				})
			}
			writeRows(cmd.OutOrStdout(),
				[]string{"ID", "TITLE", "FORMAT", "SEASON", "POPULARITY"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight})
			return nil
		},
	}
}
