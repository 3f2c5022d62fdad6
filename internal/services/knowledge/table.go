package knowledge

// terrariaTable is the built-in fact table. Order matters: Search iterates
// in declaration order and cuts at the result limit.
func terrariaTable() []Entry {
	return []Entry{
		{
			Name:     "Eye of Cthulhu",
			Category: "bosses",
			Attributes: map[string]string{
				"description": "The Eye of Cthulhu is usually the first boss players encounter.",
				"strategy":    "Use a bow with Frostburn Arrows, build a long platform, and keep moving.",
				"drops":       "Demonite Ore, Corrupt Seeds, Unholy Arrow",
			},
		},
		{
			Name:     "Skeletron",
			Category: "bosses",
			Attributes: map[string]string{
				"description": "Guards the Dungeon and must be defeated at night.",
				"strategy":    "Focus on the hands first, then the head. Use ranged weapons.",
				"drops":       "Skeletron Hand, Skeletron Mask, Book of Skulls",
			},
		},
		{
			Name:     "King Slime",
			Category: "bosses",
			Attributes: map[string]string{
				"description": "A giant blue slime that can be summoned with a Slime Crown.",
				"strategy":    "Build a small arena with platforms and strike the crown from above.",
				"drops":       "Solidifier, Slimy Saddle, Royal Gel",
			},
		},
		{
			Name:     "Wall of Flesh",
			Category: "bosses",
			Attributes: map[string]string{
				"description": "The final pre-hardmode boss, summoned by dropping a Guide Voodoo Doll into lava in the Underworld.",
				"strategy":    "Build a long bridge across the Underworld and use piercing weapons like the Bee's Knees.",
				"drops":       "Pwnhammer, emblem accessories, hardmode activation",
			},
		},
		{
			Name:     "Terra Blade",
			Category: "items",
			Attributes: map[string]string{
				"description": "One of the most powerful melee weapons in the game.",
				"recipe":      "True Excalibur + True Night's Edge at Mythril/Orichalcum Anvil",
				"damage":      "115 melee damage",
			},
		},
		{
			Name:     "Night's Edge",
			Category: "items",
			Attributes: map[string]string{
				"description": "A powerful pre-hardmode sword combining four blades.",
				"recipe":      "Muramasa + Blade of Grass + Fiery Greatsword + Light's Bane at a Demon Altar",
				"damage":      "40 melee damage",
			},
		},
		{
			Name:     "Megashark",
			Category: "items",
			Attributes: map[string]string{
				"description": "A fast-firing hardmode gun with a chance not to consume ammo.",
				"recipe":      "Minishark + Illegal Gun Parts + Shark Fins + Souls of Might at a Mythril Anvil",
				"damage":      "25 ranged damage",
			},
		},
		{
			Name:     "Guide",
			Category: "npcs",
			Attributes: map[string]string{
				"description":  "Provides crafting recipes and basic game information.",
				"housing":      "Any valid house will work.",
				"requirements": "Always present at game start",
			},
		},
		{
			Name:     "Merchant",
			Category: "npcs",
			Attributes: map[string]string{
				"description":  "Sells basic tools and supplies like torches, ropes, and piggy banks.",
				"housing":      "Any valid house will work.",
				"requirements": "All players combined carry more than 50 silver coins",
			},
		},
		{
			Name:     "Nurse",
			Category: "npcs",
			Attributes: map[string]string{
				"description":  "Heals the player for coins, scaling with max health.",
				"housing":      "Any valid house will work.",
				"requirements": "A player has increased their maximum health",
			},
		},
		{
			Name:     "Dryad",
			Category: "npcs",
			Attributes: map[string]string{
				"description":  "Sells purification powder, seeds, and reports world corruption percentages.",
				"housing":      "Any valid house will work.",
				"requirements": "Any boss except King Slime has been defeated",
			},
		},
	}
}
