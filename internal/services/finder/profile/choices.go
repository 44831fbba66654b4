package profile

import (
	"strings"

	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
)

// Choice is one allowed value of an enumerated profile field.
type Choice struct {
	// Value is the canonical stored value.
	Value string
	// Key is the catalog key of the localized label.
	Key string
}

// RankMythic is the top rank; only it carries a Mythic tier.
const RankMythic = "Mythic"

// Lanes lists the allowed lane values in menu order.
var Lanes = []Choice{
	{Value: "Gold Lane", Key: "lane.gold"},
	{Value: "Roam", Key: "lane.roam"},
	{Value: "Mid Lane", Key: "lane.mid"},
	{Value: "Jungle", Key: "lane.jungle"},
	{Value: "EXP Lane", Key: "lane.exp"},
	{Value: "Anywhere", Key: "lane.anywhere"},
}

// Ranks lists the allowed rank values from lowest to highest.
var Ranks = []Choice{
	{Value: "Warrior", Key: "rank.warrior"},
	{Value: "Elite", Key: "rank.elite"},
	{Value: "Master", Key: "rank.master"},
	{Value: "Grandmaster", Key: "rank.grandmaster"},
	{Value: "Epic", Key: "rank.epic"},
	{Value: "Legend", Key: "rank.legend"},
	{Value: RankMythic, Key: "rank.mythic"},
}

// MythicTiers lists the subdivisions of the Mythic rank.
var MythicTiers = []Choice{
	{Value: "Mythic", Key: "mythic.mythic"},
	{Value: "Mythical Honor", Key: "mythic.honor"},
	{Value: "Mythical Glory", Key: "mythic.glory"},
	{Value: "Mythical Immortal", Key: "mythic.immortal"},
}

// Goals lists the allowed play goals.
var Goals = []Choice{
	{Value: "Climb rank", Key: "goal.climb"},
	{Value: "Play for fun", Key: "goal.fun"},
	{Value: "Find a permanent team", Key: "goal.team"},
}

// ParseChoice resolves input to a canonical value. Input matches a choice
// when it equals the localized label, the base-locale label, or the
// canonical value itself.
func ParseChoice(printer catalog.Printer, choices []Choice, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	for _, choice := range choices {
		if choice.Value == input || printer.Matches(choice.Key, input) {
			return choice.Value, true
		}
	}
	return "", false
}

// Label returns the localized label for a canonical value, or the value
// itself when it is not one of the choices.
func Label(printer catalog.Printer, choices []Choice, value string) string {
	for _, choice := range choices {
		if choice.Value == value {
			return printer.Text(choice.Key)
		}
	}
	return value
}

// Labels returns the localized labels of choices in order.
func Labels(printer catalog.Printer, choices []Choice) []string {
	labels := make([]string, 0, len(choices))
	for _, choice := range choices {
		labels = append(labels, printer.Text(choice.Key))
	}
	return labels
}

func isChoice(choices []Choice, value string) bool {
	for _, choice := range choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}
