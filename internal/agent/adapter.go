package agent

import (
	"regexp"
	"strings"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// Adapter décrit ce qu'une plateforme a de spécifique: la machine à états
// est partagée, seuls les localisateurs et heuristiques changent. Les
// sélecteurs pourriront avec le markup des sites; ils restent des données,
// pas de la logique.
type Adapter struct {
	Platform domain.Platform

	DetectPageKind func(url string) PageKind

	// Contrôles "play/resume" des pages browse, du plus précis au plus
	// générique; GenericPlayCandidates sert de filet avec PlayLabelLooksPlayable.
	PlayLocators          []string
	GenericPlayCandidates string

	// Menu sous-titres.
	CaptionMenuOpen  string
	CaptionOptions   string
	// CaptionMenuClose est vide quand refermer le menu n'est pas nécessaire.
	CaptionMenuClose string

	FullscreenLocator string
	StartOverLocator  string

	// RequiresVisibility: ne piloter l'UI que si la page est visible.
	RequiresVisibility bool

	// OptionIsOff reconnaît l'option "sous-titres désactivés" du menu.
	OptionIsOff func(el Element) bool
	// OptionMatchesLanguage reconnaît l'option correspondant à la langue voulue.
	OptionMatchesLanguage func(el Element, language string) bool
}

// PlayLabelLooksPlayable est l'heuristique partagée de dernier recours pour
// trouver un bouton play par son libellé.
func PlayLabelLooksPlayable(label string) bool {
	label = strings.Join(strings.Fields(strings.ToLower(label)), " ")
	if strings.Contains(label, "trailer") {
		return false
	}
	return strings.Contains(label, "resume episode") ||
		strings.Contains(label, "play episode") ||
		strings.Contains(label, "start watching") ||
		label == "play" ||
		strings.HasPrefix(label, "play ") ||
		strings.Contains(label, "resume")
}

func labelIsOff(el Element) bool {
	label := strings.TrimSpace(strings.ToLower(el.Label()))
	return label == "off" ||
		strings.HasPrefix(label, "off") ||
		strings.Contains(label, " off") ||
		strings.Contains(label, "none") ||
		strings.Contains(label, "disabled")
}

func labelMatchesLanguage(el Element, language string) bool {
	label := strings.ToLower(el.Label())
	desired := strings.ToLower(language)
	if desired == "" {
		return false
	}
	if strings.Contains(label, desired) {
		return true
	}
	if strings.HasPrefix(desired, "en") && strings.Contains(label, "english") {
		return true
	}
	return false
}

var (
	netflixWatchPage = regexp.MustCompile(`(?i)/watch/`)
	netflixTitlePage = regexp.MustCompile(`(?i)/title/\d+`)
	netflixJbvPage   = regexp.MustCompile(`(?i)[?&]jbv=\d+`)
)

// Netflix pilote les contrôles data-uia; la fermeture du menu sous-titres
// est nécessaire sinon il reste à l'écran.
func Netflix() Adapter {
	return Adapter{
		Platform: domain.PlatformNetflix,
		DetectPageKind: func(url string) PageKind {
			switch {
			case netflixWatchPage.MatchString(url):
				return PageWatch
			case netflixTitlePage.MatchString(url) || netflixJbvPage.MatchString(url):
				return PageBrowse
			default:
				return PageOther
			}
		},
		PlayLocators: []string{
			`a[data-uia="play-button"]`,
			`.PlayLink`,
			`[data-uia="resume-play-button"]`,
		},
		GenericPlayCandidates: `button, [role="button"], a`,
		CaptionMenuOpen:       `[data-uia="control-audio-subtitle"]`,
		CaptionOptions:        `[data-uia="selector-audio-subtitle"] [data-uia^="subtitle-item"]`,
		CaptionMenuClose:      `[data-uia="control-audio-subtitle"]`,
		FullscreenLocator: `[data-uia="control-fullscreen-enter"], [data-uia*="fullscreen" i], ` +
			`button[aria-label*="full screen" i], button[title*="full screen" i]`,
		RequiresVisibility:    false,
		OptionIsOff:           labelIsOff,
		OptionMatchesLanguage: labelMatchesLanguage,
	}
}

// Hulu: la navigation part souvent d'une page série, d'où les localisateurs
// play fournis; le pilotage UI exige une page visible.
func Hulu() Adapter {
	return Adapter{
		Platform: domain.PlatformHulu,
		DetectPageKind: func(url string) PageKind {
			lower := strings.ToLower(url)
			switch {
			case strings.Contains(lower, "/watch/"):
				return PageWatch
			case strings.Contains(lower, "/series/"):
				return PageBrowse
			default:
				return PageOther
			}
		},
		PlayLocators: []string{
			`[aria-label*="Resume Episode"]`,
			`[aria-label*="Play Episode"]`,
			`button[aria-label*="Resume"]`,
			`button[aria-label*="Play"]`,
			`a[aria-label*="Resume"]`,
			`a[aria-label*="Play"]`,
			`button[data-testid*="play"]`,
			`a[data-testid*="play"]`,
		},
		GenericPlayCandidates: `button, [role="button"], a`,
		CaptionMenuOpen:       `[aria-label="Settings"], .SettingsButton`,
		CaptionOptions: `.controls__setting-col.controls__setting-subtitles [role="radio"], ` +
			`.controls__setting-bd[aria-label="subtitles"] [role="radio"], ` +
			`.controls__setting-subtitles .controls__setting-option`,
		FullscreenLocator: `[aria-label*="FULL SCREEN" i], [aria-label*="FULLSCREEN" i], ` +
			`[data-testid*="fullscreen" i]`,
		StartOverLocator: `[aria-label="START OVER"], [aria-label*="Start Over"], ` +
			`button[title*="Start Over"]`,
		RequiresVisibility:    true,
		OptionIsOff:           labelIsOff,
		OptionMatchesLanguage: labelMatchesLanguage,
	}
}

// Max utilise des data-testid stables pour les pistes et le fullscreen.
func Max() Adapter {
	return Adapter{
		Platform: domain.PlatformMax,
		DetectPageKind: func(url string) PageKind {
			lower := strings.ToLower(url)
			switch {
			case strings.Contains(lower, "/watch/"):
				return PageWatch
			case strings.Contains(lower, "/series/"), strings.Contains(lower, "/show/"):
				return PageBrowse
			default:
				return PageOther
			}
		},
		PlayLocators: []string{
			`button[aria-label*="Play"]`,
			`a[aria-label*="Play"]`,
			`button[data-testid*="play"]`,
		},
		GenericPlayCandidates: `button, [role="button"], a`,
		CaptionMenuOpen:       `[data-testid="player-ux-settings-button"], [aria-label*="Settings"]`,
		CaptionOptions:        `[data-testid="player-ux-text-track-button"][role="radio"]`,
		FullscreenLocator: `[data-testid="player-ux-fullscreen-button"], [data-testid*="fullscreen" i], ` +
			`button[aria-label*="full screen" i], button[title*="full screen" i], ` +
			`button[aria-label*="maximize" i]`,
		RequiresVisibility:    true,
		OptionIsOff:           labelIsOff,
		OptionMatchesLanguage: labelMatchesLanguage,
	}
}

// ForPlatform renvoie l'adapter d'une plateforme détectée; false pour les
// plateformes qu'on ne sait pas piloter.
func ForPlatform(p domain.Platform) (Adapter, bool) {
	switch p {
	case domain.PlatformNetflix:
		return Netflix(), true
	case domain.PlatformHulu:
		return Hulu(), true
	case domain.PlatformMax:
		return Max(), true
	default:
		return Adapter{}, false
	}
}
