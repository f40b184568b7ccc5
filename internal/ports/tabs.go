package ports

import (
	"context"
	"strings"
)

// Tab est la vue minimale d'un onglet du navigateur hôte.
type Tab struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Usable dit si l'onglet peut recevoir une navigation: les pages internes
// du navigateur ne sont pas pilotables.
func (t Tab) Usable() bool {
	if t.ID == 0 {
		return false
	}
	value := strings.ToLower(t.URL)
	for _, prefix := range []string{"chrome://", "edge://", "about:", "chrome-extension://"} {
		if strings.HasPrefix(value, prefix) {
			return false
		}
	}
	return true
}

// TabMessage est un signal one-way vers l'agent d'un onglet.
type TabMessage struct {
	Type string `json:"type"`
}

const TabMessageDeactivate = "streamChannelDeactivate"

// TabGateway abstrait les primitives onglets du navigateur hôte.
// Toutes les opérations sont best-effort: un onglet disparu ou sans agent
// n'est pas une erreur.
type TabGateway interface {
	Get(ctx context.Context, id int64) (Tab, bool)
	Active(ctx context.Context) (Tab, bool)
	List(ctx context.Context) []Tab
	// Navigate pointe l'onglet sur url et l'active. Renvoie l'onglet mis à jour.
	Navigate(ctx context.Context, id int64, url string) (Tab, error)
	// Create ouvre un nouvel onglet actif sur url.
	Create(ctx context.Context, url string) (Tab, error)
	// Send délivre un message fire-and-forget; l'absence de récepteur est
	// un résultat attendu, silencieux.
	Send(ctx context.Context, id int64, msg TabMessage)
}
