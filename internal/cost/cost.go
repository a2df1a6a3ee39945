// Package cost prices LLM usage from token counts. Rates are USD per
// million tokens, matching the provider's published pricing.
package cost

import "strings"

type pricing struct {
	input  float64
	cached float64
	output float64
}

// batchDiscount applies to every component of a batch-submitted request.
const batchDiscount = 0.5

var pricingTable = map[string]pricing{
	"gpt-4o-mini":   {input: 0.15, cached: 0.075, output: 0.60},
	"gpt-4o":        {input: 2.50, cached: 1.25, output: 10.00},
	"gpt-4.1":       {input: 2.00, cached: 0.50, output: 8.00},
	"gpt-4.1-mini":  {input: 0.40, cached: 0.10, output: 1.60},
	"gpt-4.1-nano":  {input: 0.10, cached: 0.025, output: 0.40},
	"o4-mini":       {input: 1.10, cached: 0.275, output: 4.40},
	"gpt-3.5-turbo": {input: 0.50, cached: 0.50, output: 1.50},
}

// defaultPricing is used for unknown models so cost tracking degrades to an
// estimate instead of zero.
var defaultPricing = pricing{input: 0.50, cached: 0.25, output: 1.50}

func rateFor(model string) pricing {
	if p, ok := pricingTable[model]; ok {
		return p
	}
	// Dated snapshots like gpt-4o-mini-2024-07-18 share the base rate.
	for name, p := range pricingTable {
		if strings.HasPrefix(model, name+"-") {
			return p
		}
	}
	return defaultPricing
}

// Compute prices one request. Cached prompt tokens are billed at the cached
// rate; the remainder of the prompt at the input rate.
func Compute(model string, promptTokens, completionTokens, cachedTokens int, batch bool) float64 {
	p := rateFor(model)

	uncached := promptTokens - cachedTokens
	if uncached < 0 {
		uncached = 0
	}
	usd := float64(uncached)*p.input/1e6 +
		float64(cachedTokens)*p.cached/1e6 +
		float64(completionTokens)*p.output/1e6
	if batch {
		usd *= batchDiscount
	}
	return usd
}
