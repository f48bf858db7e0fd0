// Package extract turns one detail page into a flat attribute record.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lmazurina/bookcrawl/fetch"
	"github.com/lmazurina/bookcrawl/models"
)

// Fixed attribute keys guaranteed for every page with a main-info block.
const (
	KeyName        = "Book name"
	KeyPrice       = "Book price"
	KeyStockAmount = "In stock amount"
	KeyRate        = "Rate"
	KeyDescription = "Book description"
)

// ratingMap translates the word-named star-rating CSS class to a digit.
var ratingMap = map[string]string{
	"Zero":  "0",
	"One":   "1",
	"Two":   "2",
	"Three": "3",
	"Four":  "4",
	"Five":  "5",
}

var digitsRe = regexp.MustCompile(`\d+`)

// Extractor fetches detail pages through a shared session and parses them.
type Extractor struct {
	client *fetch.Client
}

// New builds an Extractor on top of client.
func New(client *fetch.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract returns the attribute record for one detail page. Fetch and
// markup failures are logged and yield the empty record; Extract never
// returns an error to the caller.
func (e *Extractor) Extract(ctx context.Context, itemURL string) *models.Record {
	doc, err := e.client.GetDocument(ctx, itemURL)
	if err != nil {
		slog.Error("fetch detail page",
			slog.String("url", itemURL),
			slog.String("category", fetch.TypeLabel(err)),
			slog.Any("error", err),
		)
		return models.NewRecord()
	}
	return FromDocument(doc)
}

// FromDocument parses an already-fetched detail page. A page without a
// main-info block yields the empty record.
func FromDocument(doc *goquery.Document) *models.Record {
	record := models.NewRecord()

	mainInfo := doc.Find(".product_main").First()
	if mainInfo.Length() == 0 {
		return record
	}

	record.Set(KeyName, strippedText(mainInfo.Find("h1")))
	record.Set(KeyPrice, strippedText(mainInfo.Find("p.price_color")))
	record.Set(KeyStockAmount, stockAmount(availabilityText(mainInfo)))
	record.Set(KeyRate, rating(mainInfo.Find("p.star-rating")))
	record.Set(KeyDescription, description(doc))
	record.Merge(additionalInfo(doc))

	return record
}

func strippedText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}

// availabilityText finds the stock line; either class alone still
// marks it in some page variants.
func availabilityText(mainInfo *goquery.Selection) string {
	text := strippedText(mainInfo.Find("p.instock.availability"))
	if text == "" {
		text = strippedText(mainInfo.Find("p.availability"))
	}
	if text == "" {
		text = strippedText(mainInfo.Find("p.instock"))
	}
	return text
}

// stockAmount extracts the first run of digits from the availability
// text, or "" when no digits are present.
func stockAmount(availability string) string {
	return digitsRe.FindString(availability)
}

// rating maps the first recognised class on the star-rating element to
// its digit; absent or unmapped classes yield "".
func rating(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	classes := strings.Fields(sel.First().AttrOr("class", ""))
	for _, class := range classes {
		if value, ok := ratingMap[class]; ok {
			return value
		}
	}
	return ""
}

// description returns the stripped text of whatever element follows the
// description header marker.
func description(doc *goquery.Document) string {
	header := doc.Find("div#product_description.sub-header").First()
	if header.Length() == 0 {
		return ""
	}
	return strippedText(header.Next())
}

// additionalInfo collects the key/value table rows. Rows without a header
// cell are skipped; cell text is taken as-is, matching how the source
// site encodes it.
func additionalInfo(doc *goquery.Document) *models.Record {
	record := models.NewRecord()
	table := doc.Find("table.table.table-striped").First()
	if table.Length() == 0 {
		return record
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header := row.Find("th").First()
		if header.Length() == 0 {
			return
		}
		key := header.Text()
		if key == "" {
			return
		}
		record.Set(key, row.Find("td").First().Text())
	})
	return record
}
