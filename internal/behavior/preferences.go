package behavior

import (
	"sort"

	"github.com/onnwee/culturank/internal/profile"
)

// Engagement weights per interaction type for preference inference.
// Stronger signals of interest weigh more.
var engagementWeights = map[string]float64{
	profile.InteractionView:  1,
	profile.InteractionClick: 2,
	profile.InteractionSave:  3,
	profile.InteractionShare: 4,
}

// TopCategoryCount is how many top categories by weighted engagement are
// folded into the user's preference set on each update.
const TopCategoryCount = 5

// TopCategories ranks the categories in the user's history by weighted
// engagement and returns up to TopCategoryCount of them, strongest first.
// Each interaction contributes its type's engagement weight, scaled by
// rating/3 when an explicit rating exists. Ties break alphabetically so
// the result is deterministic.
func TopCategories(history []profile.Interaction) []string {
	engagement := make(map[string]float64)
	for _, in := range history {
		if in.Category == "" {
			continue
		}
		weight, ok := engagementWeights[in.Type]
		if !ok {
			weight = 1
		}
		if in.Rating != nil {
			weight *= float64(*in.Rating) / 3
		}
		engagement[in.Category] += weight
	}

	categories := make([]string, 0, len(engagement))
	for c := range engagement {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if engagement[categories[i]] != engagement[categories[j]] {
			return engagement[categories[i]] > engagement[categories[j]]
		}
		return categories[i] < categories[j]
	})

	if len(categories) > TopCategoryCount {
		categories = categories[:TopCategoryCount]
	}
	return categories
}

// UpdatePreferencesFromBehavior unions the user's top engaged categories
// into their preference set. The update is strictly additive: existing
// preferences are never removed. Returns the categories that were newly
// added.
func UpdatePreferencesFromBehavior(user *profile.UserProfile, history []profile.Interaction) []string {
	existing := make(map[string]bool, len(user.Preferences))
	for _, pref := range user.Preferences {
		existing[pref] = true
	}

	var added []string
	for _, c := range TopCategories(history) {
		if !existing[c] {
			user.Preferences = append(user.Preferences, c)
			existing[c] = true
			added = append(added, c)
		}
	}
	return added
}
