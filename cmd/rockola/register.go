package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/discord"
)

var registerGuild string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Replace the slash commands on Discord and exit",
	Long: `Bulk-overwrites the bot's slash commands. Guild commands update
instantly; global ones can take up to an hour to show up.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		guildID := registerGuild
		if !cmd.Flags().Changed("guild") {
			guildID = a.cfg.GuildID
		}

		bot, err := discord.New(a.cfg, a.store, a.tally, a.log)
		if err != nil {
			return err
		}
		if err := bot.Register(cmd.Context(), guildID); err != nil {
			return err
		}
		a.log.Info("slash commands registered", zap.String("guild", guildID), zap.Int("count", len(bot.Definitions())))
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerGuild, "guild", "", "guild id to register in (defaults to GUILD_ID, empty for global)")
	rootCmd.AddCommand(registerCmd)
}
