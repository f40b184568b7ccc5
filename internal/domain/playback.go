package domain

// CaptionSettings est la préférence sous-titres résolue pour la session en cours.
type CaptionSettings struct {
	Enabled  bool   `json:"enabled"`
	Language string `json:"language"`
}

// PlaybackState est l'unique source de vérité "qu'est-ce qui joue".
// Local au process, volontairement éphémère entre deux démarrages.
//
// Invariants: HistoryIndex ∈ [-1, len(History)-1];
// History[HistoryIndex] == LastItemID tant que Running.
type PlaybackState struct {
	Running      bool            `json:"running"`
	ChannelName  string          `json:"channelName"`
	LastItemID   string          `json:"lastItemId"`
	History      []string        `json:"history"`
	HistoryIndex int             `json:"historyIndex"`
	StartedAt    int64           `json:"startedAt"`
	TabID        int64           `json:"playbackTabId"` // 0 = aucun tab
	Captions     CaptionSettings `json:"captionSettings"`
	Maximize     bool            `json:"maximizeEnabled"`
}

func DefaultPlaybackState() PlaybackState {
	return PlaybackState{
		History:      []string{},
		HistoryIndex: -1,
		Captions:     CaptionSettings{Enabled: false, Language: "en"},
	}
}

// Normalize reclampe l'état dans ses invariants (history index borné,
// history jamais nil). Tolère un état corrompu relu du store.
func (s PlaybackState) Normalize() PlaybackState {
	if s.History == nil {
		s.History = []string{}
	}
	if s.HistoryIndex >= len(s.History) {
		s.HistoryIndex = len(s.History) - 1
	}
	if s.HistoryIndex < -1 {
		s.HistoryIndex = -1
	}
	if s.Captions.Language == "" {
		s.Captions.Language = "en"
	}
	return s
}

// Transition décrit comment un nouvel item s'insère dans l'historique.
type Transition string

const (
	// TransitionReset repart d'un historique neuf contenant le seul nouvel item.
	TransitionReset Transition = "reset"
	// TransitionAppend tronque l'historique après le curseur puis ajoute l'item.
	TransitionAppend Transition = "append"
	// TransitionBack recule le curseur dans l'historique existant.
	TransitionBack Transition = "back"
	// TransitionForward avance le curseur dans l'historique existant.
	TransitionForward Transition = "forward"
)

// Apply applique la transition d'historique pour itemID et renvoie le nouvel
// état. Les champs de session (Running, ChannelName, …) restent à la charge
// de l'appelant.
func (s PlaybackState) Apply(itemID string, t Transition) PlaybackState {
	next := s.Normalize()
	switch t {
	case TransitionReset:
		next.History = []string{itemID}
		next.HistoryIndex = 0
	case TransitionBack:
		if next.HistoryIndex > 0 {
			next.HistoryIndex--
		}
	case TransitionForward:
		if next.HistoryIndex < len(next.History)-1 {
			next.HistoryIndex++
		}
	default: // append
		history := append([]string{}, next.History[:next.HistoryIndex+1]...)
		history = append(history, itemID)
		next.History = history
		next.HistoryIndex = len(history) - 1
	}
	next.LastItemID = itemID
	return next
}

// PlaybackView est l'état enrichi des booléens dérivés servis aux clients.
type PlaybackView struct {
	PlaybackState
	CanGoBack    bool `json:"canGoBack"`
	CanGoForward bool `json:"canGoForward"`
}

func (s PlaybackState) View() PlaybackView {
	clean := s.Normalize()
	return PlaybackView{
		PlaybackState: clean,
		CanGoBack:     clean.Running && clean.HistoryIndex > 0,
		CanGoForward:  clean.Running && clean.HistoryIndex >= 0 && clean.HistoryIndex < len(clean.History)-1,
	}
}
