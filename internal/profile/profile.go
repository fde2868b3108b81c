// Package profile gathers the pass-through company and catalog details of a site.
package profile

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/reviewharvest/internal/extract"
	"github.com/ppiankov/reviewharvest/internal/extract/adapters"
	"github.com/ppiankov/reviewharvest/internal/model"
)

const (
	maxProducts       = 20
	maxDescriptionLen = 500
)

// Profiler builds site profiles from the storefront page and, for Shopify
// stores, the public product catalog
type Profiler struct {
	pages adapters.PageFetcher
	api   adapters.JSONClient
}

// NewProfiler creates a profiler. api may be nil to skip the catalog lookup.
func NewProfiler(pages adapters.PageFetcher, api adapters.JSONClient) *Profiler {
	return &Profiler{pages: pages, api: api}
}

// Profile returns the company info and products for siteURL. It errors only
// when neither the page nor the catalog could be read.
func (p *Profiler) Profile(ctx context.Context, siteURL string) (*model.SiteProfile, error) {
	u, err := model.ValidateURL(siteURL)
	if err != nil {
		return nil, err
	}

	profile := &model.SiteProfile{
		Company: model.CompanyInfo{Website: siteURL},
	}

	catalog, catalogErr := p.shopifyProducts(ctx, u.Scheme+"://"+u.Host)
	if catalogErr != nil {
		zap.L().Debug("shopify catalog unavailable", zap.String("url", siteURL), zap.Error(catalogErr))
	}

	page, pageErr := p.pages.Fetch(ctx, siteURL)
	if pageErr != nil && len(catalog) == 0 {
		return nil, eris.Wrap(pageErr, "profile: fetch storefront")
	}

	var doc *goquery.Document
	if pageErr == nil {
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
		if err != nil && len(catalog) == 0 {
			return nil, eris.Wrap(err, "profile: parse storefront")
		}
	}

	if doc != nil {
		profile.Company = extract.CompanyInfo(doc, siteURL)
	}
	if profile.Company.Name == "" {
		profile.Company.Name = model.ShopName(u)
	}

	switch {
	case len(catalog) > 0:
		profile.Products = catalog
		if profile.Company.Platform == "" {
			profile.Company.Platform = "shopify"
		}
	case doc != nil:
		profile.Products = extract.Products(doc)
	}
	return profile, nil
}

func (p *Profiler) shopifyProducts(ctx context.Context, origin string) ([]model.ProductSummary, error) {
	if p.api == nil {
		return nil, nil
	}

	var catalog adapters.ShopifyProducts
	if err := p.api.GetJSON(ctx, origin+"/products.json", nil, &catalog); err != nil {
		return nil, eris.Wrap(err, "profile: products.json")
	}

	var products []model.ProductSummary
	for _, sp := range catalog.Products {
		if sp.Title == "" {
			continue
		}
		product := model.ProductSummary{
			Title:       sp.Title,
			Description: extract.Truncate(stripHTML(sp.BodyHTML), maxDescriptionLen),
			Source:      "shopify",
		}
		if len(sp.Variants) > 0 {
			product.Price = sp.Variants[0].Price
		}
		products = append(products, product)
		if len(products) == maxProducts {
			break
		}
	}
	return products, nil
}

// stripHTML returns the visible text of an HTML fragment
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return extract.Squash(fragment)
	}
	return extract.CleanText(doc.Selection)
}
