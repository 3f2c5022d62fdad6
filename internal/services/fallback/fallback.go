// Package fallback provides deterministic canned answers used whenever the
// hosted model is unreachable or no credential is configured. Respond is a
// total function: every query gets some answer.
package fallback

import "strings"

// Responder picks a canned paragraph by keyword matching over a fixed list
// of categories. Category order is fixed; within a category a named match
// (a specific boss or weapon) wins over the category-generic text.
type Responder struct {
	categories []category
}

type category struct {
	keywords []string
	specific []specificAnswer
	generic  string
}

type specificAnswer struct {
	keywords []string
	text     string
}

// NewResponder creates a responder with the built-in answer set.
func NewResponder() *Responder {
	return &Responder{categories: cannedCategories()}
}

// Respond returns the first matching canned paragraph for the query, or the
// generic help text when nothing matches. It never fails.
func (r *Responder) Respond(query string) string {
	q := strings.ToLower(query)

	for _, cat := range r.categories {
		// Specific answers take priority inside their category even when
		// the category keyword itself is absent ("skeletron" alone should
		// hit the boss category).
		for _, specific := range cat.specific {
			if containsAny(q, specific.keywords) {
				return specific.text
			}
		}
		if containsAny(q, cat.keywords) {
			return cat.generic
		}
	}

	return defaultAnswer
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

const defaultAnswer = "I'm your Terraria Helper! Ask me about bosses (like the Eye of Cthulhu or Skeletron), weapons (like the Terra Blade), NPCs (like the Guide or Merchant), or crafting recipes, and I'll do my best to help."

// cannedCategories defines the fixed evaluation order:
// bosses, weapons, NPCs, crafting, getting started.
func cannedCategories() []category {
	return []category{
		{
			keywords: []string{"boss", "bosses", "fight", "beat", "defeat", "summon"},
			specific: []specificAnswer{
				{
					keywords: []string{"eye of cthulhu", "cthulhu"},
					text:     "The Eye of Cthulhu is usually the first boss you'll face. It spawns naturally once you have enough health and defense, or you can summon it with a Suspicious Looking Eye at night. Build a long platform arena, grab a bow with Frostburn Arrows, and keep moving. It drops Demonite Ore and Unholy Arrows.",
				},
				{
					keywords: []string{"skeletron"},
					text:     "Skeletron guards the Dungeon and must be fought at night: talk to the Old Man at the Dungeon entrance after dark. Take out the hands first to stop its defense, then work on the head with ranged weapons. If dawn breaks mid-fight it will one-shot you, so bring your best damage. It drops the Skeletron Hand and Book of Skulls.",
				},
				{
					keywords: []string{"wall of flesh"},
					text:     "The Wall of Flesh is the final pre-hardmode boss. Drop a Guide Voodoo Doll into lava in the Underworld to summon it, then run along a long bridge while firing piercing weapons. Beating it activates hardmode, so stock up on gear first.",
				},
				{
					keywords: []string{"king slime"},
					text:     "King Slime is an easy early boss summoned with a Slime Crown. Build a layered platform arena and strike from above; it drops the Slimy Saddle and Royal Gel.",
				},
			},
			generic: "Terraria has many bosses to conquer! Early on, prepare for the Eye of Cthulhu and King Slime, then work toward Skeletron and the Wall of Flesh. Each boss needs its own arena and gear, so ask me about a specific boss for a strategy.",
		},
		{
			keywords: []string{"weapon", "sword", "bow", "gun", "blade", "damage"},
			specific: []specificAnswer{
				{
					keywords: []string{"terra blade"},
					text:     "The Terra Blade is one of the most powerful melee weapons in the game, dealing 115 melee damage and firing a projectile beam. Craft it from a True Excalibur and a True Night's Edge at a Mythril or Orichalcum Anvil. You'll need to defeat the mechanical bosses to gather the parts.",
				},
				{
					keywords: []string{"night's edge", "nights edge"},
					text:     "The Night's Edge is the strongest pre-hardmode sword. Combine the Muramasa, Blade of Grass, Fiery Greatsword, and Light's Bane at a Demon Altar to craft it.",
				},
				{
					keywords: []string{"megashark"},
					text:     "The Megashark is a fast-firing hardmode gun with a 50% chance not to consume ammo. Craft it from a Minishark, Illegal Gun Parts, Shark Fins, and Souls of Might at a Mythril Anvil.",
				},
			},
			generic: "Terraria offers melee, ranged, magic, and summoner weapons for every stage of the game. Tell me which weapon you're after (like the Terra Blade or Megashark) and I'll explain how to get it.",
		},
		{
			keywords: []string{"npc", "merchant", "nurse", "guide", "dryad", "villager", "housing"},
			specific: []specificAnswer{
				{
					keywords: []string{"guide"},
					text:     "The Guide is with you from the start of the game. Talk to him with any item in hand to see every recipe it's used in. He needs a valid house like every NPC, and his Voodoo Doll is the key to summoning the Wall of Flesh.",
				},
				{
					keywords: []string{"merchant"},
					text:     "The Merchant moves in once all players combined carry more than 50 silver coins and a house is free. He sells basic supplies: torches, ropes, a piggy bank, and mining gear.",
				},
			},
			generic: "NPCs move into valid houses once their requirements are met. A valid house needs walls, a light source, a table, a chair, and a door. Ask me about a specific NPC like the Guide, Merchant, or Nurse.",
		},
		{
			keywords: []string{"craft", "crafting", "recipe", "make", "build", "anvil", "workbench"},
			generic:  "Crafting in Terraria works at stations: start with a Work Bench, then a Furnace and Anvil, and later hardmode stations like the Mythril Anvil. Show any item to the Guide to see its recipes. What are you trying to craft?",
		},
		{
			keywords: []string{"start", "begin", "new", "beginner", "first", "tips"},
			generic:  "Welcome to Terraria! Start by chopping trees for wood, build a small shelter before nightfall, and craft a Work Bench and basic tools. Explore caves for ore and hearts, and prepare for the Eye of Cthulhu once you have better gear.",
		},
	}
}
