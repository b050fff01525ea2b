package api

import (
	"net/http"

	"github.com/seenimoa/newspulse/internal/config"
)

// PublicConfig is the running configuration without credentials.
type PublicConfig struct {
	Source struct {
		Provider string   `json:"provider"`
		Feeds    []string `json:"feeds,omitempty"`
	} `json:"source"`
	Annotation struct {
		Provider  string `json:"provider"`
		MaxTopics int    `json:"max_topics"`
	} `json:"annotation"`
	LLM struct {
		Primary string `json:"primary,omitempty"`
		Model   string `json:"model,omitempty"`
	} `json:"llm"`
	Narration struct {
		Enabled bool   `json:"enabled"`
		Locale  string `json:"locale"`
		Store   string `json:"store"`
	} `json:"narration"`
	Storage struct {
		Backend string `json:"backend"`
		TTL     int    `json:"ttl"`
	} `json:"storage"`
	Analysis struct {
		DefaultArticles int `json:"default_articles"`
		MaxArticles     int `json:"max_articles"`
	} `json:"analysis"`
	Watchlist struct {
		Companies []string `json:"companies"`
		Schedule  string   `json:"schedule"`
		Articles  int      `json:"articles"`
	} `json:"watchlist"`
}

func publicConfig(cfg *config.Config) PublicConfig {
	var p PublicConfig
	p.Source.Provider = cfg.Source.Provider
	p.Source.Feeds = cfg.Source.Feeds
	p.Annotation.Provider = cfg.Annotation.Provider
	p.Annotation.MaxTopics = cfg.Annotation.MaxTopics
	p.LLM.Primary = cfg.LLM.Primary
	p.LLM.Model = cfg.LLM.Model
	p.Narration.Enabled = cfg.Narration.Enabled
	p.Narration.Locale = cfg.Narration.Locale
	p.Narration.Store = cfg.Narration.Store
	p.Storage.Backend = cfg.Storage.Backend
	p.Storage.TTL = cfg.Storage.TTL
	p.Analysis.DefaultArticles = cfg.Analysis.DefaultArticles
	p.Analysis.MaxArticles = cfg.Analysis.MaxArticles
	p.Watchlist.Companies = cfg.Watchlist.Companies
	p.Watchlist.Schedule = cfg.Watchlist.Schedule
	p.Watchlist.Articles = cfg.Watchlist.Articles
	return p
}

// handleGetConfig returns the running configuration. Redis URLs, bucket
// settings and keys are left out.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: publicConfig(s.cfg)})
}

// handleGetConfigKeys returns the masked status of every credential.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: config.CheckAPIKeys(s.cfg)})
}
