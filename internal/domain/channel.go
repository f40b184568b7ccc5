package domain

// Platform identifie le service de streaming hébergeant un item.
type Platform string

const (
	PlatformUnknown Platform = ""
	PlatformNetflix Platform = "netflix"
	PlatformHulu    Platform = "hulu"
	PlatformMax     Platform = "max"
)

// ShuffleMode est la politique de rotation d'un channel.
type ShuffleMode string

const (
	ShuffleSequential  ShuffleMode = "sequential"
	ShuffleRandom      ShuffleMode = "random"
	ShuffleLeastPlayed ShuffleMode = "least_played"
	ShuffleNewest      ShuffleMode = "newest"
)

// NormalizeShuffleMode ramène toute valeur inconnue sur sequential.
func NormalizeShuffleMode(raw string) ShuffleMode {
	switch ShuffleMode(raw) {
	case ShuffleRandom, ShuffleLeastPlayed, ShuffleNewest:
		return ShuffleMode(raw)
	default:
		return ShuffleSequential
	}
}

// Item est une entrée de channel: un épisode ou une série avec jusqu'à trois
// URLs (épisode précis, URL source telle qu'ajoutée, page série).
// CCEnabled est tri-état: nil = hériter du profil/des settings.
type Item struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	Platform        Platform `json:"platform"`
	SeriesURL       string   `json:"seriesUrl,omitempty"`
	SourceURL       string   `json:"sourceUrl,omitempty"`
	EpisodeURL      string   `json:"episodeUrl,omitempty"`
	CCEnabled       *bool    `json:"ccEnabled,omitempty"`
	PlayCount       int      `json:"playCount"`
	LastPlayedAt    int64    `json:"lastPlayedAt,omitempty"`
	MaxPlays        int      `json:"maxPlays,omitempty"`
	CooldownMinutes int      `json:"cooldownMinutes,omitempty"`
	AddedAt         int64    `json:"addedAt"`
}

// PreferredURL est l'URL la plus spécifique connue: épisode, sinon source,
// sinon série.
func (it Item) PreferredURL() string {
	if it.EpisodeURL != "" {
		return it.EpisodeURL
	}
	if it.SourceURL != "" {
		return it.SourceURL
	}
	return it.SeriesURL
}

// IdentityKey identifie un item pour la déduplication: deux entrées de même
// plateforme pointant la même URL préférée sont le même contenu.
func (it Item) IdentityKey() string {
	return string(it.Platform) + "|" + it.PreferredURL()
}

// ChannelProfile surcharge les settings globaux pour un channel. Les champs
// nil héritent de la valeur globale.
type ChannelProfile struct {
	CCEnabledDefault *bool  `json:"ccEnabledDefault,omitempty"`
	CaptionsLanguage string `json:"captionsLanguage,omitempty"`
	MaximizePlayer   *bool  `json:"maximizePlayer,omitempty"`
}

// Channel est une playlist nommée. Le nom vit dans la clé de la collection,
// pas dans le record.
type Channel struct {
	CreatedAt        int64           `json:"createdAt"`
	ShuffleMode      ShuffleMode     `json:"shuffleMode"`
	LastPlayedItemID string          `json:"lastPlayedItemId,omitempty"`
	Profile          *ChannelProfile `json:"profile,omitempty"`
	Items            []Item          `json:"items"`
}

// ItemIndex renvoie la position de l'item d'id donné, -1 si absent.
func (c Channel) ItemIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Item renvoie l'item d'id donné.
func (c Channel) Item(id string) (Item, bool) {
	idx := c.ItemIndex(id)
	if idx < 0 {
		return Item{}, false
	}
	return c.Items[idx], true
}
