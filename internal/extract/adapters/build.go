package adapters

import (
	"github.com/ppiankov/reviewharvest/internal/fetch"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/social"
	"go.uber.org/zap"
)

// Deps are the shared clients the adapters are built on
type Deps struct {
	Fetcher      *fetch.Fetcher
	API          *fetch.APIClient
	Browser      BrowserLauncher     // nil disables the browser adapter
	YouTubeQuota *social.QuotaLedger // nil gives the adapter its own ledger
}

// Build registers every adapter enabled in cfg, in fallthrough order
func Build(cfg *model.Config, deps Deps) *Registry {
	ac := cfg.Adapters
	r := NewRegistry()

	if ac.JudgeMe.Enabled {
		r.Register(NewJudgeMeAdapter(deps.API, ac.JudgeMe))
	}
	if ac.Shopify.Enabled {
		r.Register(NewShopifyAdapter(deps.API, ac.Shopify))
	}
	if ac.Yotpo.Enabled {
		r.Register(NewYotpoAdapter(deps.Fetcher, deps.API, ac.Yotpo))
	}
	if ac.Site.Enabled {
		r.Register(NewSiteAdapter(deps.Fetcher, ac.Site))
	}
	if ac.Browser.Enabled && deps.Browser != nil {
		r.Register(NewBrowserAdapter(deps.Browser, ac.Browser))
	}
	if ac.Reddit.Enabled {
		r.Register(NewRedditAdapter(deps.API, ac.Reddit))
	}
	if ac.YouTube.Enabled {
		if ac.YouTube.APIKey == "" {
			zap.L().Info("youtube adapter disabled: YOUTUBE_API_KEY not set")
		} else {
			r.Register(NewYouTubeAdapter(deps.API, ac.YouTube, deps.YouTubeQuota))
		}
	}

	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	zap.L().Debug("adapters registered", zap.Strings("adapters", names))
	return r
}
