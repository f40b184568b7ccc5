package agent

// PageKind classe la page courante pour la machine à états.
type PageKind int

const (
	// PageOther: rien à faire ici.
	PageOther PageKind = iota
	// PageWatch: un lecteur vidéo est (ou sera) présent.
	PageWatch
	// PageBrowse: page série/titre où il faut cliquer le bouton play.
	PageBrowse
)

// TextTrack est une piste de sous-titres du média natif.
type TextTrack interface {
	Language() string
	Kind() string
	Mode() string
	SetMode(mode string)
}

const (
	TrackShowing  = "showing"
	TrackDisabled = "disabled"
)

// Media expose l'élément média actif de la page. Token identifie l'élément
// et sa source courante: un token neuf réarme les one-shots (restart, fin
// d'épisode).
type Media interface {
	Token() string
	Duration() float64
	CurrentTime() float64
	SeekTo(seconds float64)
	Play()
	Pause()
	Ended() bool
	Tracks() []TextTrack
}

// Element est un élément interactif localisé dans la page.
type Element interface {
	Click()
	// Label agrège aria-label, title et texte visible.
	Label() string
	Visible() bool
	Selected() bool
}

// PageDriver est la capacité minimale dont la machine à états a besoin pour
// réconcilier la page. Les implémentations vivent côté navigateur; les tests
// utilisent un driver en mémoire.
type PageDriver interface {
	Location() string
	// Visible dit si la page est au premier plan (certaines plateformes
	// ignorent les clics synthétiques quand elle ne l'est pas).
	Visible() bool
	Fullscreen() bool
	Media() (Media, bool)
	Find(selector string) (Element, bool)
	FindAll(selector string) []Element
	// NudgeControls simule le mouvement de souris qui fait réapparaître les
	// contrôles du lecteur.
	NudgeControls()
}
