package models

// All lists every table this service migrates, in dependency order.
func All() []any {
	return []any{
		&UserGamification{},
		&CoinTransaction{},
		&RecipeCompletion{},
		&DailyIngredient{},
		&RecipeIngredientTag{},
		&Post{},
		&SkillTrack{},
		&SkillTrackRecipe{},
		&SkillTrackProgress{},
		&Badge{},
		&UserBadge{},
		&Challenge{},
		&UserProfile{},
		&CookProof{},
		&Squad{},
		&SquadMember{},
	}
}
