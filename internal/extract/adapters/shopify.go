package adapters

import (
	"context"
	"net/url"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ShopifyAdapter reads reviews embedded in Shopify product JSON
// (/products.json, then /products/<handle>.js). Single shot.
type ShopifyAdapter struct {
	siteOnly
	client      JSONClient
	maxProducts int
}

// NewShopifyAdapter creates the Shopify product adapter
func NewShopifyAdapter(client JSONClient, cfg model.ShopifyConfig) *ShopifyAdapter {
	maxProducts := cfg.MaxProducts
	if maxProducts <= 0 {
		maxProducts = 5
	}
	return &ShopifyAdapter{client: client, maxProducts: maxProducts}
}

func (a *ShopifyAdapter) Name() string              { return "shopify" }
func (a *ShopifyAdapter) Method() model.Method      { return model.MethodShopify }
func (a *ShopifyAdapter) Class() model.AdapterClass { return model.ClassAPI }

// ShopifyProducts is the /products.json catalog document
type ShopifyProducts struct {
	Products []ShopifyProduct `json:"products"`
}

// ShopifyProduct is one catalog entry
type ShopifyProduct struct {
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	BodyHTML string `json:"body_html"`
	Variants []struct {
		Price string `json:"price"`
	} `json:"variants"`
}

type shopifyProductDetail struct {
	Reviews []struct {
		Content   string    `json:"content"`
		Body      string    `json:"body"`
		Rating    flexFloat `json:"rating"`
		Author    string    `json:"author"`
		CreatedAt string    `json:"created_at"`
	} `json:"reviews"`
}

// Fetch walks the first products of the catalog and collects their embedded reviews
func (a *ShopifyAdapter) Fetch(ctx context.Context, req Request) Result {
	u, err := model.ValidateURL(req.URL)
	if err != nil {
		return Failure(err)
	}
	origin := u.Scheme + "://" + u.Host

	var catalog ShopifyProducts
	if err := a.client.GetJSON(ctx, origin+"/products.json", nil, &catalog); err != nil {
		return Failure(eris.Wrap(err, "shopify: products.json"))
	}

	products := catalog.Products
	if len(products) > a.maxProducts {
		products = products[:a.maxProducts]
	}

	var records []model.RawRecord
	var lastErr error
	fetched, failures := 0, 0
	for _, p := range products {
		if p.Handle == "" {
			continue
		}
		if req.QuotaRemaining > 0 && len(records) >= req.QuotaRemaining {
			break
		}

		productURL := origin + "/products/" + url.PathEscape(p.Handle) + ".js"
		var detail shopifyProductDetail
		fetched++
		if err := a.client.GetJSON(ctx, productURL, nil, &detail); err != nil {
			zap.L().Debug("shopify product fetch failed", zap.String("url", productURL), zap.Error(err))
			lastErr = err
			failures++
			continue
		}

		for _, r := range detail.Reviews {
			text := nonEmpty(r.Content, r.Body)
			if text == "" {
				continue
			}
			records = append(records, model.RawRecord{
				Text:         text,
				Rating:       r.Rating.Value,
				Author:       strings.TrimSpace(r.Author),
				Date:         r.CreatedAt,
				SourceURL:    productURL,
				OriginMethod: model.MethodShopify,
				Extra:        extras("product", p.Title),
			})
		}
	}

	if len(records) == 0 {
		if fetched > 0 && failures == fetched {
			return Failure(eris.Wrap(lastErr, "shopify: product data"))
		}
		return Empty("no reviews in shopify product data")
	}
	res := Success(records, 0)
	res.Done = true
	return res
}
