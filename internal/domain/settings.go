package domain

// Settings sont les préférences globales synchronisées, héritées par les
// channels qui n'ont pas de profil propre.
type Settings struct {
	CaptionsEnabledDefault bool   `json:"captionsEnabledDefault"`
	CaptionsLanguage       string `json:"captionsLanguage"`
	MaximizePlayer         bool   `json:"maximizePlayer"`
}

func DefaultSettings() Settings {
	return Settings{
		CaptionsEnabledDefault: false,
		CaptionsLanguage:       "en",
		MaximizePlayer:         false,
	}
}

// NormalizeSettings comble les champs manquants avec les valeurs par défaut.
func NormalizeSettings(s Settings) Settings {
	if s.CaptionsLanguage == "" {
		s.CaptionsLanguage = DefaultSettings().CaptionsLanguage
	}
	return s
}
