package buildinfo

// Ces variables sont renseignées à la compilation via -ldflags, par exemple:
//
//	-X github.com/Guilhem-Bonnet/Stream-Channel/internal/buildinfo.Version=v0.0.0
//	-X github.com/Guilhem-Bonnet/Stream-Channel/internal/buildinfo.Commit=abcdef
//	-X github.com/Guilhem-Bonnet/Stream-Channel/internal/buildinfo.Date=2026-01-18
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
