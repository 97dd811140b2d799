package services

import (
	"math/rand/v2"

	"kiatere/internal/models"
)

var categories = []string{
	"Animals",
	"Foods",
	"Countries",
	"Movies",
	"Sports",
	"Colors",
	"Professions",
	"Things in a Kitchen",
	"School Subjects",
	"Board Games",
	"Fruits",
	"Vegetables",
	"Car Brands",
	"TV Shows",
	"Books",
	"Things You Wear",
	"Musical Instruments",
	"Things in Nature",
	"Superheroes",
	"Pizza Toppings",
	"Things in Space",
	"Board Game Mechanics",
	"Modes of Transportation",
	"Desserts",
	"Languages",
	"Hobbies",
	"Flowers",
}

// selectCategory picks a category that is neither the current one nor used
// since the last rotation reset, records it and makes it current.
func selectCategory(gs *models.GameState) string {
	candidates := unusedCategories(gs)
	if len(candidates) == 0 {
		gs.UsedCategories = []string{}
		candidates = unusedCategories(gs)
	}

	category := candidates[rand.IntN(len(candidates))]
	gs.UsedCategories = append(gs.UsedCategories, category)
	gs.CurrentCategory = category
	return category
}

func unusedCategories(gs *models.GameState) []string {
	used := make(map[string]bool, len(gs.UsedCategories))
	for _, c := range gs.UsedCategories {
		used[c] = true
	}

	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == gs.CurrentCategory || used[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}
