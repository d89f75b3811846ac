// Package handlers wires every feature module into the process-wide registry.
// The table here is the single source of truth for module names and their
// activation priorities.
package handlers

import (
	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/handlers/cleaner"
	"github.com/butcherhq/butcherbot/internal/handlers/configmenu"
	"github.com/butcherhq/butcherbot/internal/handlers/dice"
	"github.com/butcherhq/butcherbot/internal/handlers/music"
	"github.com/butcherhq/butcherbot/internal/handlers/regionblock"
	"github.com/butcherhq/butcherbot/internal/handlers/rules"
	"github.com/butcherhq/butcherbot/internal/handlers/shippering"
	"github.com/butcherhq/butcherbot/internal/handlers/translate"
	"github.com/butcherhq/butcherbot/internal/handlers/triggers"
)

// RegisterAll fills the registry. configmenu activates first so its gate and
// usage hooks observe every other module; cleaner runs late so feature
// commands are handled before their messages can be swept.
func RegisterAll() {
	bot.RegisterModule("configmenu", -100, configmenu.New)
	bot.RegisterModule("regionblock", -10, regionblock.New)
	bot.RegisterModule("triggers", 0, triggers.New)
	bot.RegisterModule("translate", 0, translate.New)
	bot.RegisterModule("music", 0, music.New)
	bot.RegisterModule("rules", 0, rules.New)
	bot.RegisterModule("shippering", 10, shippering.New)
	bot.RegisterModule("dice", 10, dice.New)
	bot.RegisterModule("cleaner", 100, cleaner.New)
}
