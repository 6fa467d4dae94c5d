package grant

import (
	"strings"

	"github.com/loverust/paybridge/sku"
)

// Template is one console command in a grant sequence. Placeholders:
// {steamid64} for the owning player, {duration} for the grant lifetime
// token. Revoke may be empty for steps with nothing to undo; such steps are
// never persisted for sweeping.
type Template struct {
	Command string
	Revoke  string

	// Critical steps abort the whole grant when they fail. Non-critical
	// steps are best-effort: a failure is logged and recorded but the
	// grant still counts as fulfilled.
	Critical bool
}

// kindTemplates maps a grant kind to its ordered command sequence. The
// command vocabulary belongs to the LoveRustVIP server plugin.
var kindTemplates = map[sku.Kind][]Template{
	sku.KindVIP: {
		{
			Command:  "loverustvip.grant {steamid64} {duration}",
			Revoke:   "loverustvip.revoke {steamid64}",
			Critical: true,
		},
		{
			Command: "oxide.usergroup add {steamid64} vip",
			Revoke:  "oxide.usergroup remove {steamid64} vip",
		},
	},
	sku.KindRainbow: {
		{
			Command:  "loverustvip.grantrainbow {steamid64} {duration}",
			Revoke:   "loverustvip.clearcolor {steamid64}",
			Critical: true,
		},
	},
}

// Templates returns the command sequence for a kind, or nil when the kind
// maps to no console work.
func Templates(kind sku.Kind) []Template {
	return kindTemplates[kind]
}

// Render substitutes the player id and duration token into a template
// string.
func Render(tpl, steamID, durationToken string) string {
	out := strings.ReplaceAll(tpl, "{steamid64}", steamID)
	return strings.ReplaceAll(out, "{duration}", durationToken)
}
