package discord

import "github.com/bwmarrin/discordgo"

// Localize picks the Japanese string for Japanese-locale interactions
// and the English string otherwise, matching the bot's two carried
// locales.
func Localize(locale discordgo.Locale, en, ja string) string {
	if locale == discordgo.Japanese {
		return ja
	}
	return en
}
