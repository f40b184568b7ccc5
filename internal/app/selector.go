package app

import (
	"math/rand"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// IsEligible dit si un item peut être sélectionné maintenant: plafond de
// lectures (maxPlays, 0 = illimité) et cooldown depuis la dernière lecture.
func IsEligible(item domain.Item, nowMillis int64) bool {
	if item.MaxPlays > 0 && item.PlayCount >= item.MaxPlays {
		return false
	}
	if item.CooldownMinutes > 0 && item.LastPlayedAt > 0 {
		readyAt := item.LastPlayedAt + int64(item.CooldownMinutes)*60_000
		if readyAt > nowMillis {
			return false
		}
	}
	return true
}

// EligibleItems filtre les items sélectionnables. Si aucun ne l'est, la
// rotation retombe sur la liste complète (on ne bloque jamais).
func EligibleItems(items []domain.Item, nowMillis int64) []domain.Item {
	eligible := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if IsEligible(it, nowMillis) {
			eligible = append(eligible, it)
		}
	}
	if len(eligible) == 0 {
		return items
	}
	return eligible
}

// PickNextIndex choisit l'index suivant selon le mode de rotation.
// intn permet d'injecter le tirage en test; nil = rand.Intn.
//
// Le tie-break du mode random (si le tirage tombe sur currentIndex, décaler
// d'un cran cyclique) n'est pas uniforme; c'est le comportement voulu, ne
// pas le "corriger".
func PickNextIndex(items []domain.Item, currentIndex int, mode domain.ShuffleMode, intn func(int) int) int {
	if len(items) == 0 {
		return -1
	}
	if intn == nil {
		intn = rand.Intn
	}

	switch domain.NormalizeShuffleMode(string(mode)) {
	case domain.ShuffleRandom:
		if len(items) == 1 {
			return 0
		}
		idx := intn(len(items))
		if idx == currentIndex {
			idx = (idx + 1) % len(items)
		}
		return idx

	case domain.ShuffleLeastPlayed:
		bestIdx := 0
		bestScore := -1
		for i, it := range items {
			score := it.PlayCount
			if score < 0 {
				score = 0
			}
			if bestScore < 0 || score < bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		return bestIdx

	case domain.ShuffleNewest:
		newestIdx := 0
		var newestScore int64 = -1
		for i, it := range items {
			score := it.AddedAt
			if score < 0 {
				score = 0
			}
			if score > newestScore {
				newestScore = score
				newestIdx = i
			}
		}
		return newestIdx

	default: // sequential
		if currentIndex < 0 {
			return 0
		}
		return (currentIndex + 1) % len(items)
	}
}
